package binpack

import (
	"cmp"
	"slices"
	"sort"
)

// LargestThatFits returns the index of the largest item in items that fits in
// bin. items must be sorted by descending size; the returned index is the
// earliest qualifying position. ok is false when no item fits.
func LargestThatFits[T Item](items []T, bin *Bin[T]) (index int, ok bool) {
	if len(items) == 0 || !bin.Fits(items[len(items)-1]) {
		return 0, false
	}
	// Fits is false on a (possibly empty) prefix and true afterwards.
	return sort.Search(len(items), func(i int) bool {
		return bin.Fits(items[i])
	}), true
}

func sortedDescending[T Item](items []T) []T {
	out := slices.Clone(items)
	slices.SortFunc(out, func(a, b T) int {
		return cmp.Compare(b.Size(), a.Size())
	})
	return out
}

// checkLargest validates the head of a descending list, which is the first
// item a decreasing strategy considers.
func checkLargest[T Item](sorted []T, capacity uint64) error {
	if len(sorted) > 0 && sorted[0].Size() > capacity {
		return tooBig(sorted[0].Size(), capacity)
	}
	return nil
}

// firstFitInto places each item in the first bin of bins it fits, opening a
// new bin when none does. Items are expected in descending order and no
// larger than capacity.
func firstFitInto[T Item](items []T, bins []*Bin[T], capacity uint64) []*Bin[T] {
	for _, item := range items {
		placed := false
		for _, bin := range bins {
			if bin.Fits(item) {
				bin.Add(item)
				placed = true
				break
			}
		}
		if !placed {
			bins = append(bins, NewBinWith(item, capacity))
		}
	}
	return bins
}
