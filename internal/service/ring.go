package service

import "sync"

// ring is a fixed-size, newest-first buffer.
type ring[T any] struct {
	mu        sync.Mutex
	maxSize   int
	records   []T
	nextIndex int
}

func newRing[T any](maxSize int) *ring[T] {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &ring[T]{
		maxSize: maxSize,
		records: make([]T, 0, maxSize),
	}
}

func (b *ring[T]) Add(entries ...T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range entries {
		if len(b.records) < b.maxSize {
			b.records = append(b.records, entry)
			continue
		}
		b.records[b.nextIndex] = entry
		b.nextIndex = (b.nextIndex + 1) % b.maxSize
	}
}

// List returns up to limit entries accepted by keep, newest first.
func (b *ring[T]) List(limit int, keep func(T) bool) []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]T, 0, min(limit, len(b.records)))
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		entry := b.records[idx]
		if keep != nil && !keep(entry) {
			continue
		}
		results = append(results, entry)
		if len(results) >= limit {
			break
		}
	}
	return results
}
