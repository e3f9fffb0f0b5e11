package snapshot

import "sync"

type subCh = chan string // carries new ETags

// Subscribe registers a listener and returns its channel and an unsubscribe func.
// Unsubscribing more than once is harmless.
func (h *Holder) Subscribe() (<-chan string, func()) {
	ch := make(subCh, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, unsub
}

// publishUpdate notifies all listeners (non-blocking).
func (h *Holder) publishUpdate(etag string) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- etag:
		default: // if client is slow, skip instead of blocking
		}
	}
	h.mu.Unlock()
}
