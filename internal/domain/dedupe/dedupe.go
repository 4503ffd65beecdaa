// Package dedupe remembers which result files have already been accepted so a
// re-uploaded export is not ingested twice.
package dedupe

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Deduper records content digests for at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks whether digest was seen and records it
	// if not. It returns true for a repeat.
	SeenAndRecord(ctx context.Context, digest string) bool
	// Unrecord forgets a digest whose upload could not be queued or ingested,
	// so the same file can be sent again.
	Unrecord(ctx context.Context, digest string)
	Size() int
}

// Digest returns the hex SHA-256 identifying an uploaded file. The race date
// and run are part of it, so the same export filed under another day or run
// is a separate upload.
func Digest(eventDate string, run int, body []byte) string {
	h := sha256.New()
	h.Write([]byte(eventDate))
	h.Write([]byte{0, byte(run), 0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is oldest
	maxSize int
}

// NewInMemoryDeduper returns a process-local deduper. The default keeps the
// last 10000 digests, far more than one season of race files.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, digest string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[digest]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[digest] = d.order.PushBack(digest)
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.seen[digest]; ok {
		d.order.Remove(e)
		delete(d.seen, digest)
	}
}

func (d *memoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
