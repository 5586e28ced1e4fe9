package memory

import (
	"sort"
	"sync"
)

type record[T any] struct {
	seq uint64
	val T
}

// table holds the committed rows of one entity type. It is guarded by the
// owning Store's mutex.
type table[T any] struct {
	rows map[string]record[T]
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]record[T])}
}

// rowSet is what a repository reads and writes through: either the committed
// table or a transaction overlay on top of it.
type rowSet[T any] interface {
	get(id string) (T, bool)
	put(id string, val T)
	remove(id string) bool
	list() []T
}

type committed[T any] struct {
	mu  *sync.RWMutex
	seq func() uint64
	t   *table[T]
}

func (c *committed[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.t.rows[id]
	return r.val, ok
}

func (c *committed[T]) put(id string, val T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.t.rows[id]
	if !ok {
		r.seq = c.seq()
	}
	r.val = val
	c.t.rows[id] = r
}

func (c *committed[T]) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.t.rows[id]; !ok {
		return false
	}
	delete(c.t.rows, id)
	return true
}

func (c *committed[T]) list() []T {
	c.mu.RLock()
	records := make([]record[T], 0, len(c.t.rows))
	for _, r := range c.t.rows {
		records = append(records, r)
	}
	c.mu.RUnlock()
	return sorted(records)
}

// overlay buffers a transaction's writes. A nil entry marks a delete.
type overlay[T any] struct {
	base  *committed[T]
	dirty map[string]*record[T]
}

func newOverlay[T any](base *committed[T]) *overlay[T] {
	return &overlay[T]{base: base, dirty: make(map[string]*record[T])}
}

func (o *overlay[T]) get(id string) (T, bool) {
	if r, ok := o.dirty[id]; ok {
		if r == nil {
			var zero T
			return zero, false
		}
		return r.val, true
	}
	return o.base.get(id)
}

func (o *overlay[T]) put(id string, val T) {
	if r, ok := o.dirty[id]; ok && r != nil {
		r.val = val
		return
	}
	o.base.mu.RLock()
	existing, ok := o.base.t.rows[id]
	o.base.mu.RUnlock()
	seq := existing.seq
	if !ok {
		seq = o.base.seq()
	}
	o.dirty[id] = &record[T]{seq: seq, val: val}
}

func (o *overlay[T]) remove(id string) bool {
	if _, ok := o.get(id); !ok {
		return false
	}
	o.dirty[id] = nil
	return true
}

func (o *overlay[T]) list() []T {
	o.base.mu.RLock()
	merged := make(map[string]record[T], len(o.base.t.rows))
	for id, r := range o.base.t.rows {
		merged[id] = r
	}
	o.base.mu.RUnlock()

	for id, r := range o.dirty {
		if r == nil {
			delete(merged, id)
			continue
		}
		merged[id] = *r
	}

	records := make([]record[T], 0, len(merged))
	for _, r := range merged {
		records = append(records, r)
	}
	return sorted(records)
}

// apply writes the buffered changes into the table. Caller holds the store lock.
func (o *overlay[T]) apply() {
	for id, r := range o.dirty {
		if r == nil {
			delete(o.base.t.rows, id)
			continue
		}
		o.base.t.rows[id] = *r
	}
}

func sorted[T any](records []record[T]) []T {
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })
	out := make([]T, len(records))
	for i, r := range records {
		out[i] = r.val
	}
	return out
}
