package binpack

// NextFit packs items in input order, keeping a single bin open and closing it
// as soon as the next item does not fit. It runs in O(n) and never sorts, so
// it may use noticeably more bins than the decreasing strategies.
//
// The last bin is always part of the result, so an empty input yields one
// empty bin.
func NextFit[T Item](items []T, capacity uint64) ([]*Bin[T], error) {
	current := NewBin[T](capacity)
	var closed []*Bin[T]

	for _, item := range items {
		size := item.Size()
		if size > current.Remaining() {
			if size > capacity {
				return nil, tooBig(size, capacity)
			}
			closed = append(closed, current)
			current = NewBin[T](capacity)
		}
		current.Add(item)
	}

	return append(closed, current), nil
}
