package snapshot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/catalog"
	"github.com/fouedh91760/a-level-saver-sub001/internal/testutil"
)

type fakeSource struct {
	raw catalog.Raw
	err error
}

func (f fakeSource) Load(context.Context) (catalog.Raw, error) { return f.raw, f.err }

func TestNew_EmptyPlaceholder(t *testing.T) {
	h := New(nil)
	snap := h.Load()
	if snap == nil || snap.Catalog == nil {
		t.Fatal("Load() returned nil")
	}
	if len(snap.Catalog.States()) != 0 {
		t.Errorf("Expected empty catalog, got %d states", len(snap.Catalog.States()))
	}
	if !strings.HasPrefix(snap.ETag, `W/"`) {
		t.Errorf("Expected weak ETag, got %s", snap.ETag)
	}
}

func TestReload_PublishesAndNotifies(t *testing.T) {
	h := New(nil)
	updates, unsub := h.Subscribe()
	defer unsub()

	snap, changed, err := h.Reload(context.Background(), fakeSource{raw: testutil.SampleRaw(t)})
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !changed {
		t.Error("Expected the first reload to change the catalog")
	}
	if len(snap.Catalog.States()) != 6 {
		t.Errorf("Expected 6 states, got %d", len(snap.Catalog.States()))
	}
	if h.Load() != snap {
		t.Error("Load() should return the published snapshot")
	}

	select {
	case etag := <-updates:
		if etag != snap.ETag {
			t.Errorf("notified %s, want %s", etag, snap.ETag)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification after reload")
	}

	_, changed, err = h.Reload(context.Background(), fakeSource{raw: testutil.SampleRaw(t)})
	if err != nil || changed {
		t.Errorf("reloading identical content: changed = %v, err = %v", changed, err)
	}
	select {
	case etag := <-updates:
		t.Errorf("unexpected notification %s for unchanged catalog", etag)
	default:
	}
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	good := testutil.SampleCatalog(t)
	h := New(good)
	before := h.Load()

	broken := testutil.SampleRaw(t)
	broken.DefaultTemplate = "missing"
	snap, changed, err := h.Reload(context.Background(), fakeSource{raw: broken})
	if !errors.Is(err, catalog.ErrDanglingTemplate) {
		t.Fatalf("Reload() error = %v, want ErrDanglingTemplate", err)
	}
	if changed || snap != before || h.Load() != before {
		t.Error("invalid catalog must not replace the active one")
	}

	fetchErr := errors.New("store down")
	_, _, err = h.Reload(context.Background(), fakeSource{err: fetchErr})
	if !errors.Is(err, fetchErr) {
		t.Errorf("Reload() error = %v, want %v", err, fetchErr)
	}
	if h.Catalog() != good {
		t.Error("fetch failure must not replace the active catalog")
	}
}

func TestConcurrentReadersSeeWholeCatalogs(t *testing.T) {
	a := testutil.SampleCatalog(t)
	b := testutil.MustLoad(t, `templates: {default: "only"}`)
	h := New(a)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := h.Load()
				if snap.ETag != ETag(snap.Catalog) {
					t.Error("snapshot ETag does not match its catalog")
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			h.Update(b)
		} else {
			h.Update(a)
		}
	}
	close(stop)
	wg.Wait()
}
