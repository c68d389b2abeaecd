// Package dedupe maps upload digests to the job that first analyzed them so
// identical uploads resolve to one job.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Index records which job owns each upload digest.
type Index interface {
	// Claim atomically returns the job already owning digest, or records
	// jobID as its owner. seen is true when another job owned it.
	Claim(ctx context.Context, digest, jobID string) (owner string, seen bool)

	// Release forgets digest so a later upload can be analyzed again, e.g.
	// after the owning job was rejected by a full queue.
	Release(ctx context.Context, digest string)

	// Transfer hands digest from one job to another when from still owns
	// it. Otherwise it returns the current owner and false; an unowned
	// digest is claimed for to.
	Transfer(ctx context.Context, digest, from, to string) (owner string, ok bool)

	// Lookup returns the owner of digest without recording anything.
	Lookup(ctx context.Context, digest string) (string, bool)

	Size() int64
}

type entry struct {
	digest string
	jobID  string
}

// inMemoryIndex keeps digests in insertion order; the front of order is the
// newest claim.
type inMemoryIndex struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryIndex creates an index bounded to 10000 digests by default.
func NewInMemoryIndex(opts ...Option) Index {
	d := &inMemoryIndex{
		maxSize: defaultMaxSize,
		byKey:   make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryIndex) Claim(_ context.Context, digest, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[digest]; ok {
		return el.Value.(entry).jobID, true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.byKey[digest] = d.order.PushFront(entry{digest: digest, jobID: jobID})
	d.size.Add(1)
	return jobID, false
}

func (d *inMemoryIndex) Release(_ context.Context, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[digest]; ok {
		d.order.Remove(el)
		delete(d.byKey, digest)
		d.size.Add(-1)
	}
}

func (d *inMemoryIndex) Transfer(ctx context.Context, digest, from, to string) (string, bool) {
	d.mu.Lock()
	el, ok := d.byKey[digest]
	if !ok {
		d.mu.Unlock()
		owner, seen := d.Claim(ctx, digest, to)
		return owner, !seen
	}
	defer d.mu.Unlock()

	if cur := el.Value.(entry).jobID; cur != from {
		return cur, false
	}
	el.Value = entry{digest: digest, jobID: to}
	d.order.MoveToFront(el)
	return to, true
}

func (d *inMemoryIndex) Lookup(_ context.Context, digest string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[digest]; ok {
		return el.Value.(entry).jobID, true
	}
	return "", false
}

// evictOldest must be called with mu held.
func (d *inMemoryIndex) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.byKey, el.Value.(entry).digest)
	d.size.Add(-1)
}

func (d *inMemoryIndex) Size() int64 {
	return d.size.Load()
}
