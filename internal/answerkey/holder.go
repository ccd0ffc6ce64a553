package answerkey

import (
	"sync"
	"time"
)

// Holder owns the active answer key. Readers get an immutable *Key; uploads
// replace it wholesale.
type Holder struct {
	mu       sync.RWMutex
	key      *Key
	source   string
	loadedAt time.Time
}

func NewHolder(k *Key, source string) *Holder {
	h := &Holder{}
	h.Swap(k, source)
	return h
}

// Current returns the active key, which may be nil if none has been loaded.
func (h *Holder) Current() *Key {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.key
}

// Info describes where the active key came from.
func (h *Holder) Info() (source string, loadedAt time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.source, h.loadedAt
}

func (h *Holder) Swap(k *Key, source string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.key = k
	h.source = source
	h.loadedAt = time.Now()
}
