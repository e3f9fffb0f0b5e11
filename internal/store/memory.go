package store

import (
	"context"
	"sync"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
)

// MemoryStore keeps the raw catalog in memory.
// This implementation is suitable for tests and for embedding the engine.
type MemoryStore struct {
	mu  sync.RWMutex
	raw *catalog.Raw
	rev Revision
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Load returns the last document set, or ErrNoCatalog.
func (m *MemoryStore) Load(ctx context.Context) (catalog.Raw, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Raw{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.raw == nil {
		return catalog.Raw{}, ErrNoCatalog
	}
	return *m.raw, nil
}

// Set replaces the stored document.
func (m *MemoryStore) Set(raw catalog.Raw) {
	_, _ = m.Publish(context.Background(), raw)
}

// Publish stores raw as a new revision.
func (m *MemoryStore) Publish(ctx context.Context, raw catalog.Raw) (Revision, error) {
	if err := ctx.Err(); err != nil {
		return Revision{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.raw = &raw
	m.rev = Revision{ID: m.rev.ID + 1, CreatedAt: m.now().UTC()}
	return m.rev, nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
