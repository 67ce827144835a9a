package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/binpacker/binpack"
)

// MaxCapacity bounds the bin capacity accepted as a default setting.
const MaxCapacity uint64 = 1 << 40

var (
	// ErrInvalidSettings indicates the provided settings violate validation rules.
	ErrInvalidSettings = errors.New("settings must have a capacity between 1 and 2^40 and a known strategy")
)

var defaultSettings = Settings{
	Capacity: 100,
	Strategy: binpack.StrategyModifiedFFD,
}

// Settings are the defaults applied to pack requests that omit them.
type Settings struct {
	Capacity uint64           `json:"capacity"`
	Strategy binpack.Strategy `json:"strategy"`
}

// Storage provides access to the packing defaults used by the API.
type Storage interface {
	GetSettings() (Settings, error)
	SetSettings(settings Settings) error
}

// MemoryStorage keeps settings in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	settings Settings
}

// NewMemoryStorage initialises storage with the default settings.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		settings: defaultSettings,
	}
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return defaultSettings
}

// GetSettings returns the currently configured settings.
func (s *MemoryStorage) GetSettings() (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings, nil
}

// SetSettings validates, normalises, and stores the provided settings.
func (s *MemoryStorage) SetSettings(settings Settings) error {
	normalized, err := normalizeSettings(settings)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = normalized
	s.mu.Unlock()

	return nil
}

func normalizeSettings(settings Settings) (Settings, error) {
	if settings.Capacity == 0 || settings.Capacity > MaxCapacity {
		return Settings{}, fmt.Errorf("%w: capacity %d", ErrInvalidSettings, settings.Capacity)
	}

	strategy, err := binpack.ParseStrategy(string(settings.Strategy))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	return Settings{Capacity: settings.Capacity, Strategy: strategy}, nil
}
