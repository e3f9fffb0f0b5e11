package store

import (
	"context"
	"errors"
	"testing"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
)

func TestMemoryStore_EmptyLoad(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.Load(context.Background())
	if !errors.Is(err, ErrNoCatalog) {
		t.Errorf("Expected ErrNoCatalog, got %v", err)
	}
}

func TestMemoryStore_PublishAndLoad(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	rev1, err := m.Publish(ctx, catalog.Raw{DefaultTemplate: "a"})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	m.Set(catalog.Raw{DefaultTemplate: "b"})

	raw, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if raw.DefaultTemplate != "b" {
		t.Errorf("Expected latest document, got %q", raw.DefaultTemplate)
	}
	rev3, _ := m.Publish(ctx, raw)
	if rev1.ID != 1 || rev3.ID != 3 {
		t.Errorf("Expected revisions 1 and 3, got %d and %d", rev1.ID, rev3.ID)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if _, err := m.Publish(ctx, catalog.Raw{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

var _ Publisher = (*MemoryStore)(nil)
var _ Publisher = (*PostgresStore)(nil)
