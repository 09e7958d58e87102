// Package artifact persists run artifacts (triage reports, triaged
// segment lists, index statistics dumps) produced as side outputs for
// operators.
//
// The [Store] interface abstracts the destination so the pipeline can
// write to local disk during development and to an S3-compatible object
// store in deployment without changing call sites.
package artifact

import (
	"context"
	"fmt"
	"io"
)

// Store is a minimal interface for artifact persistence.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type Store interface {
	// Read opens the named artifact for reading.
	// The caller must close the returned ReadCloser when done.
	// If the artifact does not exist, an error wrapping os.ErrNotExist
	// is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named artifact for writing, truncating any
	// existing content. The caller must close the returned WriteCloser
	// to flush data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named artifact. Deleting a missing artifact is
	// not an error (idempotent).
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named artifact exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// WriteFile writes data as the named artifact in one call.
func WriteFile(ctx context.Context, s Store, path string, data []byte) error {
	w, err := s.Write(ctx, path)
	if err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("artifact: close %s: %w", path, err)
	}
	return nil
}
