package binpack

import (
	"fmt"
	"strconv"
	"strings"
)

// Bin is a fixed-capacity container that accumulates items in acceptance order.
// Items are never removed or reordered once added.
type Bin[T Item] struct {
	items     []T
	remaining uint64
	capacity  uint64
}

// NewBin returns an empty bin of the given capacity.
func NewBin[T Item](capacity uint64) *Bin[T] {
	return &Bin[T]{
		remaining: capacity,
		capacity:  capacity,
	}
}

// NewBinWith returns a bin holding item as its only element.
// It panics if item is larger than capacity.
func NewBinWith[T Item](item T, capacity uint64) *Bin[T] {
	if item.Size() > capacity {
		panic(fmt.Sprintf("binpack: seed item of size %d exceeds capacity %d", item.Size(), capacity))
	}
	return &Bin[T]{
		items:     []T{item},
		remaining: capacity - item.Size(),
		capacity:  capacity,
	}
}

// Add appends item to the bin. Callers must check Fits first; Add panics
// rather than let the remaining space underflow.
func (b *Bin[T]) Add(item T) {
	size := item.Size()
	if size > b.remaining {
		panic(fmt.Sprintf("binpack: item of size %d does not fit in remaining space %d", size, b.remaining))
	}
	b.remaining -= size
	b.items = append(b.items, item)
}

// Fits reports whether item fits in the space left in the bin.
func (b *Bin[T]) Fits(item T) bool {
	return item.Size() <= b.remaining
}

// Count returns the number of items in the bin.
func (b *Bin[T]) Count() int {
	return len(b.items)
}

// Items returns a copy of the bin's items in acceptance order.
func (b *Bin[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// Remaining returns the unused capacity.
func (b *Bin[T]) Remaining() uint64 {
	return b.remaining
}

// Capacity returns the capacity the bin was created with.
func (b *Bin[T]) Capacity() uint64 {
	return b.capacity
}

// Used returns the sum of the sizes of the items in the bin.
func (b *Bin[T]) Used() uint64 {
	return b.capacity - b.remaining
}

// WeightsSummary renders item sizes as a comma-separated list, e.g. "60, 12".
func (b *Bin[T]) WeightsSummary() string {
	parts := make([]string, len(b.items))
	for i, item := range b.items {
		parts[i] = strconv.FormatUint(item.Size(), 10)
	}
	return strings.Join(parts, ", ")
}
