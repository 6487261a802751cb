// Package cli implements the weekplanner command line.
//
// Every invocation opens the local store, restores the saved session (online
// when the remote service answers its health probe, offline otherwise) and
// runs one kong command against an App. Commands that touch the planner need
// a signed-in user; sync commands additionally need an online session.
//
// Ids may be abbreviated to any unique prefix.
package cli
