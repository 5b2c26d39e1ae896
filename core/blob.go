package core

import "context"

// BlobStore stores uploaded material files and hands back a durable URL.
// The content tree never persists raw bytes once a BlobStore is wired in;
// materials keep only the returned reference.
type BlobStore interface {
	// Upload stores content under a name derived from suggestedName and
	// returns the durable URL of the stored blob.
	Upload(ctx context.Context, content []byte, mediaType, suggestedName string) (string, error)
}
