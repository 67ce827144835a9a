// Package binpack assigns sized items to fixed-capacity bins.
//
// Three strategies are provided, trading packing quality against cost:
// NextFit runs in a single pass without sorting, FirstFitDecreasing sorts the
// items and places each one in the first bin it fits, and
// ModifiedFirstFitDecreasing pairs large items with medium and small ones
// before falling back to first-fit for the rest.
//
// Any type with a Size method can be packed. All bins of a call share the same
// capacity, and a call fails with an *ItemTooBigError when an item could never
// fit in an empty bin.
package binpack
