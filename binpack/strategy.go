package binpack

import (
	"fmt"
	"strings"
)

// Strategy names a packing algorithm.
type Strategy string

const (
	// StrategyNextFit selects NextFit.
	StrategyNextFit Strategy = "next-fit"
	// StrategyFirstFitDecreasing selects FirstFitDecreasing.
	StrategyFirstFitDecreasing Strategy = "ffd"
	// StrategyModifiedFFD selects ModifiedFirstFitDecreasing.
	StrategyModifiedFFD Strategy = "mffd"
)

var strategyAliases = map[string]Strategy{
	"next-fit":        StrategyNextFit,
	"nextfit":         StrategyNextFit,
	"nf":              StrategyNextFit,
	"online-next-fit": StrategyNextFit,

	"ffd":                  StrategyFirstFitDecreasing,
	"first-fit-decreasing": StrategyFirstFitDecreasing,

	"mffd":                          StrategyModifiedFFD,
	"modified-ffd":                  StrategyModifiedFFD,
	"modified-first-fit-decreasing": StrategyModifiedFFD,
}

// Strategies lists every supported strategy, cheapest first.
func Strategies() []Strategy {
	return []Strategy{StrategyNextFit, StrategyFirstFitDecreasing, StrategyModifiedFFD}
}

// ParseStrategy resolves a strategy name or alias, ignoring case and
// surrounding whitespace.
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if s, ok := strategyAliases[key]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyNextFit, StrategyFirstFitDecreasing, StrategyModifiedFFD:
		return true
	}
	return false
}

func (s Strategy) String() string {
	return string(s)
}

// Pack runs the named strategy over items.
func Pack[T Item](strategy Strategy, items []T, capacity uint64) ([]*Bin[T], error) {
	switch strategy {
	case StrategyNextFit:
		return NextFit(items, capacity)
	case StrategyFirstFitDecreasing:
		return FirstFitDecreasing(items, capacity)
	case StrategyModifiedFFD:
		return ModifiedFirstFitDecreasing(items, capacity)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(strategy))
	}
}
