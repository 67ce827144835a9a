package binpack

// Summary aggregates the outcome of a packing run.
// WastedSpace counts the free space left across all bins and FillRatio is
// UsedSpace divided by the total capacity of the bins (zero when no capacity
// was allocated).
type Summary struct {
	Bins        int     `json:"bins" yaml:"bins"`
	Items       int     `json:"items" yaml:"items"`
	Capacity    uint64  `json:"capacity" yaml:"capacity"`
	UsedSpace   uint64  `json:"usedSpace" yaml:"used_space"`
	WastedSpace uint64  `json:"wastedSpace" yaml:"wasted_space"`
	FillRatio   float64 `json:"fillRatio" yaml:"fill_ratio"`
}

// Summarize computes a Summary for bins.
func Summarize[T Item](bins []*Bin[T]) Summary {
	var s Summary
	var total uint64
	for _, bin := range bins {
		s.Bins++
		s.Items += bin.Count()
		s.UsedSpace += bin.Used()
		s.WastedSpace += bin.Remaining()
		total += bin.Capacity()
		s.Capacity = bin.Capacity()
	}
	if total > 0 {
		s.FillRatio = float64(s.UsedSpace) / float64(total)
	}
	return s
}
