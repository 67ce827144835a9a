package workload

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Pallinder/go-randomdata"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/binpacker/binpack"
)

var (
	// ErrInvalidSizes is returned when a size list cannot be parsed.
	ErrInvalidSizes = errors.New("sizes must be a comma-separated list of non-negative integers")
	// ErrInvalidRange is returned when generator bounds are inconsistent.
	ErrInvalidRange = errors.New("invalid size range")
)

// Item is a labelled unit of work. Units is the amount of bin capacity it
// consumes.
type Item struct {
	ID    string `json:"id" yaml:"id"`
	Units uint64 `json:"size" yaml:"size"`
}

var _ binpack.Item = Item{}

// Size implements binpack.Item.
func (i Item) Size() uint64 {
	return i.Units
}

// FromSizes builds items with generated IDs, numbering from offset.
func FromSizes(sizes []uint64, offset int) []Item {
	items := make([]Item, len(sizes))
	for i, size := range sizes {
		items[i] = Item{ID: itemID(offset + i), Units: size}
	}
	return items
}

// ParseSizes parses a comma-separated list such as "10, 20,30".
func ParseSizes(raw string) ([]uint64, error) {
	parts := strings.Split(raw, ",")
	sizes := make([]uint64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid value %q", ErrInvalidSizes, part)
		}
		sizes = append(sizes, value)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%w: no sizes provided", ErrInvalidSizes)
	}
	return sizes, nil
}

// file is the YAML layout accepted by Load. Both keys are optional; sizes are
// appended after items.
type file struct {
	Items []Item   `yaml:"items"`
	Sizes []uint64 `yaml:"sizes"`
}

// Load reads items from a YAML file, or from stdin when path is "-".
func Load(path string, stdin io.Reader) ([]Item, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return Decode(data)
}

// Decode parses the YAML item layout. Items without an ID get one based on
// their position.
func Decode(data []byte) ([]Item, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	items := make([]Item, 0, len(f.Items)+len(f.Sizes))
	for i, item := range f.Items {
		if item.ID == "" {
			item.ID = itemID(i)
		}
		items = append(items, item)
	}
	items = append(items, FromSizes(f.Sizes, len(f.Items))...)
	return items, nil
}

// Generator draws items with uniformly distributed sizes and readable IDs such
// as "quiet-river-12". A Generator is not safe for concurrent use, but separate
// Generators may run concurrently.
type Generator struct {
	rng *rand.Rand
}

// randomdata reads from a single package-level source; namesMu serializes
// swapping in a Generator's source and drawing names from it.
var namesMu sync.Mutex

// NewGenerator returns a Generator. A zero seed picks a time-based one.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns count items with sizes drawn uniformly from [minSize, maxSize].
func (g *Generator) Generate(count int, minSize, maxSize uint64) ([]Item, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be non-negative, got %d", ErrInvalidRange, count)
	}
	if minSize > maxSize {
		return nil, fmt.Errorf("%w: min %d is greater than max %d", ErrInvalidRange, minSize, maxSize)
	}

	items := make([]Item, count)
	for i := range items {
		items[i].Units = minSize + g.uint64n(maxSize-minSize)
	}
	g.name(items)
	return items, nil
}

// uint64n returns a uniform value in [0, span].
func (g *Generator) uint64n(span uint64) uint64 {
	switch {
	case span == math.MaxUint64:
		return g.rng.Uint64()
	case span < math.MaxInt64:
		return uint64(g.rng.Int63n(int64(span) + 1))
	}
	for {
		if v := g.rng.Uint64(); v <= span {
			return v
		}
	}
}

func (g *Generator) name(items []Item) {
	namesMu.Lock()
	defer namesMu.Unlock()

	randomdata.CustomRand(g.rng)
	for i := range items {
		items[i].ID = fmt.Sprintf("%s-%s-%d",
			strings.ToLower(randomdata.Adjective()), strings.ToLower(randomdata.Noun()), i+1)
	}
}

// Sizes extracts the sizes of items in order.
func Sizes(items []Item) []uint64 {
	out := make([]uint64, len(items))
	for i, item := range items {
		out[i] = item.Units
	}
	return out
}

func itemID(n int) string {
	return fmt.Sprintf("item-%d", n+1)
}
