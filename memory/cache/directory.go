package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/memory"
)

// A Directory stores the information about what is stored in the cache.
//
// The directory translates a memory address into the tag, the set index and
// the offset within a block, and owns one Set per index for the whole life
// of the cache.
type Directory struct {
	numSets     uint64
	numWays     uint64
	blockSize   uint64
	addressBits uint

	sets []*Set
}

// NewDirectory returns a directory with all of its sets allocated. All sets
// share the victim finder and the backing memory.
func NewDirectory(
	numSets, numWays, blockSize uint64,
	addressBits uint,
	victimFinder VictimFinder,
	backing memory.Controller,
) *Directory {
	d := &Directory{
		numSets:     numSets,
		numWays:     numWays,
		blockSize:   blockSize,
		addressBits: addressBits,
		sets:        make([]*Set, numSets),
	}

	for i := range d.sets {
		d.sets[i] = NewSet(int(numWays), victimFinder, backing)
	}

	return d
}

// NumSets returns the number of sets.
func (d *Directory) NumSets() uint64 {
	return d.numSets
}

// TotalSize returns the maximum number of words can be stored in the cache
func (d *Directory) TotalSize() uint64 {
	return d.numSets * d.numWays * d.blockSize
}

// AddressSpace returns the number of addresses the directory accepts.
func (d *Directory) AddressSpace() uint64 {
	return 1 << d.addressBits
}

// AddressSplit decomposes an address. The parts recombine as
// tag*blockSize*numSets + index*blockSize + offset.
func (d *Directory) AddressSplit(
	address uint64,
) (tag, index, offset uint64, err error) {
	if address >= d.AddressSpace() {
		err = fmt.Errorf("%w: 0x%x needs more than %d address bits",
			ErrOutOfRange, address, d.addressBits)
		return
	}

	offset = address % d.blockSize
	index = (address / d.blockSize) % d.numSets
	tag = address / (d.blockSize * d.numSets)

	return
}

// BlockAddress returns the address of the first word of the block that
// holds the address.
func (d *Directory) BlockAddress(address uint64) uint64 {
	return address / d.blockSize * d.blockSize
}

// GetSet returns the set at the index.
func (d *Directory) GetSet(index uint64) *Set {
	return d.sets[index]
}

// Sets returns all the sets, ordered by index.
func (d *Directory) Sets() []*Set {
	return d.sets
}
