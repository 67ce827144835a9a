package binpack

import "slices"

// ModifiedFirstFitDecreasing implements the MFFD heuristic. Items are split by
// size relative to capacity C into large (> C/2), medium (> C/3), small
// (> C/6) and tiny classes. Every large item opens its own bin, which is then
// offered one medium item or, failing that, two small ones. Whatever is left
// goes through first-fit, reusing the large bins before opening new ones.
//
// The placement scans make this quadratic in the worst case even though the
// heuristic is often quoted as O(n log n).
func ModifiedFirstFitDecreasing[T Item](items []T, capacity uint64) ([]*Bin[T], error) {
	sorted := sortedDescending(items)
	if err := checkLargest(sorted, capacity); err != nil {
		return nil, err
	}

	var (
		bins   []*Bin[T]
		medium []T
		small  []T
		tiny   []T
	)

	for _, item := range sorted {
		switch size := item.Size(); {
		case size > capacity/2:
			bins = append(bins, NewBinWith(item, capacity))
		case size > capacity/3:
			medium = append(medium, item)
		case size > capacity/6:
			small = append(small, item)
		default:
			tiny = append(tiny, item)
		}
	}

	for _, bin := range bins {
		if i, ok := LargestThatFits(medium, bin); ok {
			bin.Add(medium[i])
			medium = slices.Delete(medium, i, i+1)
		}
	}

	for _, bin := range slices.Backward(bins) {
		if bin.Count() != 1 || len(small) < 2 {
			continue
		}
		n := len(small)
		if bin.Remaining() < small[n-1].Size()+small[n-2].Size() {
			continue
		}
		bin.Add(small[n-1])
		small = small[:n-1]
		if i, ok := LargestThatFits(small, bin); ok {
			bin.Add(small[i])
			small = slices.Delete(small, i, i+1)
		}
	}

	residue := make([]T, 0, len(medium)+len(small)+len(tiny))
	residue = append(residue, medium...)
	residue = append(residue, small...)
	residue = append(residue, tiny...)

	return firstFitInto(residue, bins, capacity), nil
}
