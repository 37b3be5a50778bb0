// Package api
// Author: momentics@gmail.com
//
// Bounded queue contract for cross-goroutine task hand-off.

package api

// Ring is a bounded multi-producer, multi-consumer queue.
type Ring[T any] interface {
	// Enqueue adds an item, returns false if full.
	Enqueue(item T) bool
	// Dequeue removes the oldest item, returns false if empty.
	Dequeue() (T, bool)
	// Len returns the current number of items.
	Len() int
	// Cap returns the fixed capacity.
	Cap() int
}
