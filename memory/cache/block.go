package cache

import (
	"log"
	"sort"

	"github.com/sarchlab/cachesim/memory"
)

// A Block of a cache is the information that is associated with a cache line
type Block struct {
	Tag         uint64
	IsValid     bool
	IsDirty     bool
	Data        []memory.Word
	BaseAddress uint64

	// LoadTime is the logical time the block was filled. It never changes
	// afterwards.
	LoadTime uint64

	// LastTime is the logical time of the most recent access that hit the
	// block. It is only refreshed under the LRU policy.
	LastTime uint64
}

// Address returns the memory address of the word at the offset.
func (b *Block) Address(offset uint64) uint64 {
	return b.BaseAddress + offset
}

// A Set is the group of blocks where a certain piece of memory can be stored.
type Set struct {
	blocks        map[uint64]*Block
	associativity int
	victimFinder  VictimFinder
	backing       memory.Controller
}

// NewSet returns an empty set that can hold up to associativity blocks.
// Dirty victims are written back to the backing memory.
func NewSet(
	associativity int,
	victimFinder VictimFinder,
	backing memory.Controller,
) *Set {
	return &Set{
		blocks:        make(map[uint64]*Block, associativity),
		associativity: associativity,
		victimFinder:  victimFinder,
		backing:       backing,
	}
}

// Associativity returns the number of blocks the set can hold.
func (s *Set) Associativity() int {
	return s.associativity
}

// Len returns the number of blocks currently in the set.
func (s *Set) Len() int {
	return len(s.blocks)
}

// IsFull tells if adding another block would require an eviction.
func (s *Set) IsFull() bool {
	return len(s.blocks) >= s.associativity
}

// FindBlock returns the block with the given tag, if it is in the set. It
// does not update any timestamp.
func (s *Set) FindBlock(tag uint64) (*Block, bool) {
	block, ok := s.blocks[tag]
	return block, ok
}

// Blocks returns the blocks in the set, ordered by ascending tag.
func (s *Set) Blocks() []*Block {
	blocks := make([]*Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		blocks = append(blocks, b)
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Tag < blocks[j].Tag
	})

	return blocks
}

// AddBlock inserts the block. If the set is full, one block is evicted
// first and returned. The tag of the new block must not be in the set.
func (s *Set) AddBlock(block *Block) (victim *Block, err error) {
	if _, found := s.blocks[block.Tag]; found {
		log.Panicf("block with tag 0x%x is already in the set", block.Tag)
	}

	if s.IsFull() {
		victim, err = s.evict()
		if err != nil {
			return nil, err
		}
	}

	s.blocks[block.Tag] = block

	return victim, nil
}

// evict removes a block chosen by the victim finder, writing it back first
// if it is dirty. The returned block keeps its dirty flag so that callers can
// tell whether a write-back happened.
func (s *Set) evict() (*Block, error) {
	if len(s.blocks) == 0 {
		return nil, nil
	}

	victim := s.victimFinder.FindVictim(s)
	if victim == nil {
		log.Panic("victim finder did not find a victim in a non-empty set")
	}

	if victim.IsDirty {
		if err := s.writeBack(victim); err != nil {
			return nil, err
		}
	}

	delete(s.blocks, victim.Tag)

	return victim, nil
}

// writeBack copies the data of the block to the backing memory. Words whose
// address is beyond the memory capacity are skipped.
func (s *Set) writeBack(block *Block) error {
	capacity := s.backing.Capacity()

	for offset, word := range block.Data {
		addr := block.Address(uint64(offset))
		if addr >= capacity {
			continue
		}

		if err := s.backing.Write(addr, word); err != nil {
			return err
		}
	}

	return nil
}
