package cache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/cachesim/memory"
)

// ErrInvalidConfig is wrapped by every error that rejects a cache
// configuration.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// ErrOutOfRange is returned when an address is beyond the address space of
// the cache or of the memory behind it.
var ErrOutOfRange = memory.ErrOutOfRange

// ReplacementPolicy names the strategy that picks a victim when a set is
// full.
type ReplacementPolicy string

// Supported replacement policies.
const (
	PolicyFIFO   ReplacementPolicy = "FIFO"
	PolicyLRU    ReplacementPolicy = "LRU"
	PolicyRandom ReplacementPolicy = "RANDOM"
)

// ParsePolicy converts a case-insensitive policy name into a
// ReplacementPolicy.
func ParsePolicy(name string) (ReplacementPolicy, error) {
	p := ReplacementPolicy(strings.ToUpper(strings.TrimSpace(name)))

	switch p {
	case PolicyFIFO, PolicyLRU, PolicyRandom:
		return p, nil
	default:
		return "", fmt.Errorf(
			"%w: policy must be one of FIFO, LRU, RANDOM, got %q",
			ErrInvalidConfig, name)
	}
}

// Config describes the geometry and the replacement policy of a cache.
// Sizes are counted in words.
type Config struct {
	CacheSize     uint64
	BlockSize     uint64
	Associativity uint64
	Policy        ReplacementPolicy
	AddressBits   uint
}

// DefaultConfig returns a 1024-word, 2-way LRU cache with 64-word blocks in
// front of a 10-bit address space.
func DefaultConfig() Config {
	return Config{
		CacheSize:     1024,
		BlockSize:     64,
		Associativity: 2,
		Policy:        PolicyLRU,
		AddressBits:   10,
	}
}

// NumSets returns the number of sets the configuration describes. It is only
// meaningful for a configuration that passes Validate.
func (c Config) NumSets() uint64 {
	return c.CacheSize / (c.BlockSize * c.Associativity)
}

// AddressSpace returns the number of addressable words.
func (c Config) AddressSpace() uint64 {
	return 1 << c.AddressBits
}

// Validate checks every constraint of the configuration and names the first
// one that is violated.
func (c Config) Validate() error {
	sizes := []struct {
		name  string
		value uint64
	}{
		{"cache size", c.CacheSize},
		{"block size", c.BlockSize},
		{"associativity", c.Associativity},
	}

	for _, s := range sizes {
		if s.value == 0 {
			return fmt.Errorf("%w: %s must be greater than 0",
				ErrInvalidConfig, s.name)
		}

		if !isPowerOfTwo(s.value) {
			return fmt.Errorf("%w: %s must be a power of 2, got %d",
				ErrInvalidConfig, s.name, s.value)
		}
	}

	if _, err := ParsePolicy(string(c.Policy)); err != nil {
		return err
	}

	if c.AddressBits == 0 || c.AddressBits > 63 {
		return fmt.Errorf("%w: address bits must be within [1, 63], got %d",
			ErrInvalidConfig, c.AddressBits)
	}

	setSize := c.BlockSize * c.Associativity
	if setSize/c.Associativity != c.BlockSize || setSize > c.CacheSize {
		return fmt.Errorf(
			"%w: cache size %d holds no set of %d blocks of %d words",
			ErrInvalidConfig, c.CacheSize, c.Associativity, c.BlockSize)
	}

	if c.CacheSize%setSize != 0 {
		return fmt.Errorf(
			"%w: cache size %d is not divisible by block size x associativity %d",
			ErrInvalidConfig, c.CacheSize, setSize)
	}

	return nil
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}
