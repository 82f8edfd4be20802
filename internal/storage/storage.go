package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrIO marks directory creation, write and delete failures.
	ErrIO = errors.New("storage I/O failure")
	// ErrNotFound is returned by Open when nothing is stored under a locator.
	ErrNotFound = errors.New("file not found")
	// ErrOutsideRoot is returned when a locator resolves outside the storage root.
	ErrOutsideRoot = errors.New("locator resolves outside storage root")
)

type SaveOptions struct {
	Directory    string
	ContentType  string
	OriginalName string
}

type FileInfo struct {
	// Locator is the relative "{directory}/{name}" reference callers persist.
	Locator     string
	Path        string
	ContentType string
	Size        int64
	URL         string
}

// Storage writes validated uploads and resolves locators it issued. Save must
// only be called with bytes that already passed validation.
type Storage interface {
	Save(ctx context.Context, r io.Reader, opts SaveOptions) (FileInfo, error)
	Open(ctx context.Context, locator string) (io.ReadSeekCloser, FileInfo, error)
	Resolve(locator string) (string, error)
	// Delete reports false with a nil error when nothing was stored under locator.
	Delete(ctx context.Context, locator string) (bool, error)
	Exists(ctx context.Context, locator string) (bool, error)
}
