package store

import (
	"context"
	"errors"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
)

// ErrNoCatalog is returned by Load when the backend holds no catalog yet.
var ErrNoCatalog = errors.New("no catalog published")

// Store defines where raw catalog documents come from.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Load returns the current raw catalog. Validation is the caller's job.
	Load(ctx context.Context) (catalog.Raw, error)

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Publisher is implemented by stores that accept new catalog revisions.
type Publisher interface {
	Publish(ctx context.Context, raw catalog.Raw) (Revision, error)
}

// Revision identifies one published catalog document.
type Revision struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
