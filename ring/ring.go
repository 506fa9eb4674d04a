// Package ring is a fixed-capacity single-producer single-consumer queue.
//
// New returns the two halves of one queue. Each half must be owned by exactly
// one goroutine: Push and Notify belong to the producer, Pop and Wait to the
// consumer. Len and Cap are safe from anywhere
package ring

import (
	"context"
	"sync/atomic"
)

type buffer[T any] struct {
	data []T
	mask uint64

	head atomic.Uint64 // next write, advanced by the producer
	tail atomic.Uint64 // next read, advanced by the consumer

	ready chan struct{}
}

// Producer is the write half of a queue
type Producer[T any] struct {
	b *buffer[T]
}

// Consumer is the read half of a queue
type Consumer[T any] struct {
	b *buffer[T]
}

// New creates a queue holding at least capacity items (rounded up to a power of two)
func New[T any](capacity int) (*Producer[T], *Consumer[T]) {
	size := nextPowerOfTwo(capacity)
	b := &buffer[T]{
		data:  make([]T, size),
		mask:  uint64(size - 1),
		ready: make(chan struct{}, 1),
	}
	return &Producer[T]{b: b}, &Consumer[T]{b: b}
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// Push appends v. It returns false without blocking when the queue is full
func (p *Producer[T]) Push(v T) bool {
	b := p.b
	head := b.head.Load()
	if head-b.tail.Load() == uint64(len(b.data)) {
		return false
	}
	b.data[head&b.mask] = v
	b.head.Store(head + 1)
	return true
}

// Notify wakes a consumer blocked in Wait or on Ready. Never blocks
func (p *Producer[T]) Notify() {
	select {
	case p.b.ready <- struct{}{}:
	default:
	}
}

// Len returns the number of queued items
func (p *Producer[T]) Len() int { return p.b.len() }

// Cap returns the queue capacity
func (p *Producer[T]) Cap() int { return len(p.b.data) }

// Pop removes the oldest item. ok is false when the queue is empty
func (c *Consumer[T]) Pop() (v T, ok bool) {
	b := c.b
	tail := b.tail.Load()
	if tail == b.head.Load() {
		return v, false
	}
	v = b.data[tail&b.mask]
	b.tail.Store(tail + 1)
	return v, true
}

// Ready is signalled by Notify. A receive may be spurious; always Pop after it
func (c *Consumer[T]) Ready() <-chan struct{} {
	return c.b.ready
}

// Wait blocks until the queue is non-empty or ctx is done
func (c *Consumer[T]) Wait(ctx context.Context) error {
	for c.b.len() == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.b.ready:
		}
	}
	return nil
}

// Len returns the number of queued items
func (c *Consumer[T]) Len() int { return c.b.len() }

// Cap returns the queue capacity
func (c *Consumer[T]) Cap() int { return len(c.b.data) }

func (b *buffer[T]) len() int {
	tail := b.tail.Load()
	return int(b.head.Load() - tail)
}
