// Package netx holds small HTTP helpers shared by the client and server.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ContentTypeZstd marks compressed snapshots uploaded by the client.
const ContentTypeZstd = "application/zstd"

var uploadClient = &http.Client{Timeout: 2 * time.Minute}

// UploadToPresignedURL PUTs data to a presigned object-storage URL. The
// content type must match the one the URL was signed for.
func UploadToPresignedURL(ctx context.Context, url string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := uploadClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
