package cache

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/cachesim/memory"
)

// Builder can build caches.
type Builder struct {
	config  Config
	backing memory.Controller
	rng     *rand.Rand
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration of the builder.
func (b Builder) WithConfig(config Config) Builder {
	b.config = config
	return b
}

// WithCacheSize sets the number of words the cache can hold.
func (b Builder) WithCacheSize(cacheSize uint64) Builder {
	b.config.CacheSize = cacheSize
	return b
}

// WithBlockSize sets the number of words in a block.
func (b Builder) WithBlockSize(blockSize uint64) Builder {
	b.config.BlockSize = blockSize
	return b
}

// WithAssociativity sets the number of blocks per set.
func (b Builder) WithAssociativity(associativity uint64) Builder {
	b.config.Associativity = associativity
	return b
}

// WithPolicy sets the replacement policy.
func (b Builder) WithPolicy(policy ReplacementPolicy) Builder {
	b.config.Policy = policy
	return b
}

// WithAddressBits sets the width of the addresses the cache accepts.
func (b Builder) WithAddressBits(addressBits uint) Builder {
	b.config.AddressBits = addressBits
	return b
}

// WithMemory sets the memory behind the cache.
func (b Builder) WithMemory(backing memory.Controller) Builder {
	b.backing = backing
	return b
}

// WithRandSource sets the random source used by the random replacement
// policy. Without it, the source is seeded from the current time.
func (b Builder) WithRandSource(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// Build validates the configuration and creates a cache. Nothing is
// allocated when the configuration is rejected.
func (b Builder) Build(name string) (*Cache, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	if b.backing == nil {
		return nil, fmt.Errorf("%w: a memory is required", ErrInvalidConfig)
	}

	config := b.config
	config.Policy, _ = ParsePolicy(string(config.Policy))

	c := &Cache{
		name:    name,
		config:  config,
		backing: b.backing,
	}

	c.directory = NewDirectory(
		config.NumSets(),
		config.Associativity,
		config.BlockSize,
		config.AddressBits,
		NewVictimFinder(config.Policy, b.rng),
		b.backing,
	)

	return c, nil
}
