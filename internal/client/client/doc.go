// Package client talks to the weekplanner remote entity service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): account
//     calls (Register, Login, Verify, UpdateProfile, ChangePassword, Logout),
//     per-record CRUD and bulk replace for objects and scheduled items, a
//     health probe and backup presigning.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that attaches the
//     bearer token to every call and maps response statuses to sentinel
//     errors.
//
// # Error Handling
//
// Callers match failures with errors.Is: ErrUnavailable (transport failure or
// gateway status), ErrUnauthorized, ErrConflict, ErrNotFound and
// common.ErrorValidation. Anything else is a generic server error carrying the
// message from the response body.
//
// HTTPClient is safe for concurrent use. Every call takes a context and is
// additionally bounded by the client's request timeout.
package client
