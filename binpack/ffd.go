package binpack

// FirstFitDecreasing sorts items largest first and places each one in the
// first bin, in creation order, that can hold it. The input slice is not
// modified. Worst case cost is O(n*b) for b bins.
func FirstFitDecreasing[T Item](items []T, capacity uint64) ([]*Bin[T], error) {
	sorted := sortedDescending(items)
	if err := checkLargest(sorted, capacity); err != nil {
		return nil, err
	}
	return firstFitInto(sorted, nil, capacity), nil
}
