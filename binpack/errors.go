package binpack

import (
	"errors"
	"fmt"
)

var (
	// ErrItemExceedsCapacity is matched by every *ItemTooBigError.
	ErrItemExceedsCapacity = errors.New("item exceeds bin capacity")
	// ErrUnknownStrategy is returned when a strategy name cannot be resolved.
	ErrUnknownStrategy = errors.New("unknown packing strategy")
)

// ItemTooBigError reports an item that cannot fit even in an empty bin.
type ItemTooBigError struct {
	Size     uint64
	Capacity uint64
}

func (e *ItemTooBigError) Error() string {
	return fmt.Sprintf("Object too big! %d can't fit in %d", e.Size, e.Capacity)
}

// Is lets errors.Is match ErrItemExceedsCapacity.
func (e *ItemTooBigError) Is(target error) bool {
	return target == ErrItemExceedsCapacity
}

func tooBig(size, capacity uint64) error {
	return &ItemTooBigError{Size: size, Capacity: capacity}
}
