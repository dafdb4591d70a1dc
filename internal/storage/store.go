package storage

import (
	"context"
	"io"
)

// FileStore keeps whole files, such as exported workbooks.
type FileStore interface {
	Save(name string, reader io.Reader) (path string, size int64, err error)
	Open(path string) (io.ReadCloser, error)
	Delete(path string) error
}

// KV is durable string storage addressed by key. Get returns
// domain.ErrCacheMiss when the key has never been written.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Keys used by the client dashboard.
const (
	// KeySnapshotCache holds the last loaded reports and invoices as one
	// value, so the pair is always replaced together.
	KeySnapshotCache = "repairdesk:cache:snapshot"
	KeyActiveTab     = "repairdesk:active_tab"
)
