package binpack

// Item is anything with a non-negative size that can be placed in a bin.
type Item interface {
	Size() uint64
}
