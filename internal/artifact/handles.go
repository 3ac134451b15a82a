// Package artifact persists generated speech tracks and transcripts on the
// kv substrate and hands out revocable in-process handles over stored
// audio payloads.
package artifact

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const handlePrefix = "blob:"

var ErrHandleRevoked = errors.New("handle revoked or unknown")

// Registry maps handle URLs to payloads. A handle lives until Revoke; it is
// never written to disk.
type Registry struct {
	mu      sync.RWMutex
	handles map[string][]byte
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string][]byte)}
}

// Create registers a private copy of payload and returns its handle URL.
func (r *Registry) Create(payload []byte) string {
	url := handlePrefix + uuid.NewString()
	cp := append([]byte(nil), payload...)
	r.mu.Lock()
	r.handles[url] = cp
	r.mu.Unlock()
	return url
}

// Resolve returns a copy of the payload behind url.
func (r *Registry) Resolve(url string) ([]byte, error) {
	r.mu.RLock()
	p, ok := r.handles[url]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrHandleRevoked
	}
	return append([]byte(nil), p...), nil
}

// Open returns a reader over the payload behind url.
func (r *Registry) Open(url string) (io.ReadSeeker, error) {
	r.mu.RLock()
	p, ok := r.handles[url]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrHandleRevoked
	}
	return bytes.NewReader(p), nil
}

// Revoke releases url. Revoking an unknown handle is a no-op.
func (r *Registry) Revoke(url string) {
	if url == "" {
		return
	}
	r.mu.Lock()
	delete(r.handles, url)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// IsHandle reports whether s looks like a handle URL.
func IsHandle(s string) bool {
	return strings.HasPrefix(s, handlePrefix)
}
