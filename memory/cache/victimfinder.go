package cache

import (
	"fmt"
	"math/rand"
	"time"
)

// A VictimFinder decides which block should be evicted from a full set.
type VictimFinder interface {
	FindVictim(set *Set) *Block
}

// FIFOVictimFinder evicts the block that entered the set first.
type FIFOVictimFinder struct {
}

// NewFIFOVictimFinder returns a newly constructed fifo evictor
func NewFIFOVictimFinder() *FIFOVictimFinder {
	return new(FIFOVictimFinder)
}

// FindVictim returns the block with the smallest load time. Ties go to the
// smallest tag.
func (e *FIFOVictimFinder) FindVictim(set *Set) *Block {
	return oldestBlock(set, func(b *Block) uint64 { return b.LoadTime })
}

// LRUVictimFinder evicts the least recently used block
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	return new(LRUVictimFinder)
}

// FindVictim returns the block with the smallest last access time. Ties go
// to the smallest tag.
func (e *LRUVictimFinder) FindVictim(set *Set) *Block {
	return oldestBlock(set, func(b *Block) uint64 { return b.LastTime })
}

func oldestBlock(set *Set, timeOf func(b *Block) uint64) *Block {
	var victim *Block

	// Blocks are sorted by tag, so keeping the first minimum breaks ties by
	// ascending tag.
	for _, b := range set.Blocks() {
		if victim == nil || timeOf(b) < timeOf(victim) {
			victim = b
		}
	}

	return victim
}

// RandomVictimFinder evicts a block chosen uniformly at random.
type RandomVictimFinder struct {
	rng *rand.Rand
}

// NewRandomVictimFinder returns a random evictor that draws from rng. A nil
// rng is replaced by a source seeded from the current time.
func NewRandomVictimFinder(rng *rand.Rand) *RandomVictimFinder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &RandomVictimFinder{rng: rng}
}

// FindVictim returns a random block of the set. The draw is made over the
// blocks sorted by tag, so a seeded source always yields the same victims.
func (e *RandomVictimFinder) FindVictim(set *Set) *Block {
	blocks := set.Blocks()
	if len(blocks) == 0 {
		return nil
	}

	return blocks[e.rng.Intn(len(blocks))]
}

// NewVictimFinder returns the victim finder that implements the policy. The
// rng is only used by the random policy.
func NewVictimFinder(policy ReplacementPolicy, rng *rand.Rand) VictimFinder {
	switch policy {
	case PolicyFIFO:
		return NewFIFOVictimFinder()
	case PolicyLRU:
		return NewLRUVictimFinder()
	case PolicyRandom:
		return NewRandomVictimFinder(rng)
	default:
		panic(fmt.Sprintf("unknown replacement policy %q", policy))
	}
}
