// Package snapshot publishes the active catalog. Readers load it lock-free; a reload
// builds a complete new catalog and swaps the pointer, so in-flight requests see
// either the old or the new catalog in full.
package snapshot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
	"github.com/fouedh91760/a-level-saver-sub001/internal/telemetry"
)

// Snapshot is one published catalog.
type Snapshot struct {
	Catalog  *catalog.Catalog
	ETag     string
	LoadedAt time.Time
}

// Source yields raw catalog documents. The store package implements it.
type Source interface {
	Load(ctx context.Context) (catalog.Raw, error)
}

// Holder owns the current snapshot and its subscribers.
type Holder struct {
	current  atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
	now      func() time.Time

	mu   sync.Mutex
	subs map[subCh]struct{}
}

// New publishes initial, or an empty placeholder catalog when initial is nil.
func New(initial *catalog.Catalog) *Holder {
	h := &Holder{now: time.Now, subs: make(map[subCh]struct{})}
	if initial == nil {
		initial = catalog.Empty()
	}
	h.store(initial)
	return h
}

// Load returns the current snapshot. It never returns nil.
func (h *Holder) Load() *Snapshot { return h.current.Load() }

// Catalog is shorthand for Load().Catalog.
func (h *Holder) Catalog() *catalog.Catalog { return h.Load().Catalog }

// Update publishes cat and notifies subscribers when its version differs from the
// current one. It reports whether anything changed.
func (h *Holder) Update(cat *catalog.Catalog) bool {
	if cur := h.Load(); cur != nil && cur.Catalog.Version() == cat.Version() {
		return false
	}
	snap := h.store(cat)
	h.publishUpdate(snap.ETag)
	return true
}

// Reload fetches a raw catalog from src, validates it and publishes it. On any
// error the previous catalog stays active and is returned with the error.
func (h *Holder) Reload(ctx context.Context, src Source) (*Snapshot, bool, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	raw, err := src.Load(ctx)
	if err != nil {
		telemetry.CatalogReloads.WithLabelValues("error").Inc()
		return h.Load(), false, err
	}
	cat, err := catalog.Load(raw)
	if err != nil {
		telemetry.CatalogReloads.WithLabelValues("invalid").Inc()
		return h.Load(), false, err
	}
	changed := h.Update(cat)
	if changed {
		telemetry.CatalogReloads.WithLabelValues("success").Inc()
	} else {
		telemetry.CatalogReloads.WithLabelValues("unchanged").Inc()
	}
	return h.Load(), changed, nil
}

func (h *Holder) store(cat *catalog.Catalog) *Snapshot {
	snap := &Snapshot{
		Catalog:  cat,
		ETag:     ETag(cat),
		LoadedAt: h.now().UTC(),
	}
	h.current.Store(snap)
	telemetry.CatalogStates.Set(float64(len(cat.States())))
	return snap
}

// ETag is the weak entity tag of a catalog version.
func ETag(cat *catalog.Catalog) string {
	return `W/"` + cat.Version() + `"`
}
