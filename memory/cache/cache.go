// Package cache models a set-associative, write-back, write-around cache in
// front of a word-addressed memory.
package cache

import (
	"io"

	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// A Cache is a storage that is managed in sets and blocks.
//
// The Cache does not model timing or coherency. It only keeps track of what
// data is stored in the cache, and counts hits and misses. A logical time
// advances by one on every successful Read or Write and orders blocks for
// the FIFO and LRU policies. A Cache is not safe for concurrent use.
type Cache struct {
	hooking.HookableBase

	name      string
	config    Config
	directory *Directory
	backing   memory.Controller

	time  uint64
	stats Statistics
}

// New creates a cache with the given configuration in front of the backing
// memory. The memory is referenced, not owned.
func New(config Config, backing memory.Controller) (*Cache, error) {
	return MakeBuilder().
		WithConfig(config).
		WithMemory(backing).
		Build("Cache")
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Config returns the configuration the cache was built with.
func (c *Cache) Config() Config {
	return c.config
}

// Directory returns the tag directory of the cache.
func (c *Cache) Directory() *Directory {
	return c.directory
}

// Memory returns the memory behind the cache.
func (c *Cache) Memory() memory.Controller {
	return c.backing
}

// Time returns the current logical time.
func (c *Cache) Time() uint64 {
	return c.time
}

// AddressSplit decomposes an address into the tag, the set index and the
// offset within the block.
func (c *Cache) AddressSplit(address uint64) (tag, index, offset uint64, err error) {
	return c.directory.AddressSplit(address)
}

// Read returns the word at the address, filling the block from memory on a
// miss. A failed read leaves the cache unchanged.
func (c *Cache) Read(address uint64) (memory.Word, error) {
	tag, index, offset, err := c.directory.AddressSplit(address)
	if err != nil {
		return 0, err
	}

	set := c.directory.GetSet(index)

	block, found := set.FindBlock(tag)
	if found && block.IsValid {
		return c.readHit(block, address, tag, index, offset), nil
	}

	baseAddress := c.directory.BlockAddress(address)

	data, err := c.fetch(baseAddress)
	if err != nil {
		return 0, err
	}

	newBlock := &Block{
		Tag:         tag,
		IsValid:     true,
		IsDirty:     false,
		Data:        data,
		BaseAddress: baseAddress,
		LoadTime:    c.time,
		LastTime:    c.time,
	}

	victim, err := set.AddBlock(newBlock)
	if err != nil {
		return 0, err
	}

	if victim != nil {
		c.recordEviction(index, victim)
	}

	c.stats.Accesses++
	c.stats.Reads++

	value := data[offset]
	c.invokeAccessHook(AccessInfo{
		Kind:    AccessRead,
		Address: address,
		Tag:     tag,
		Index:   index,
		Offset:  offset,
		Value:   value,
		Time:    c.time,
	})
	c.time++

	return value, nil
}

func (c *Cache) readHit(
	block *Block,
	address, tag, index, offset uint64,
) memory.Word {
	c.stats.Accesses++
	c.stats.Reads++
	c.stats.Hits++
	c.stats.ReadHits++

	if c.config.Policy == PolicyLRU {
		block.LastTime = c.time
	}

	value := block.Data[offset]
	c.invokeAccessHook(AccessInfo{
		Kind:    AccessRead,
		Address: address,
		Tag:     tag,
		Index:   index,
		Offset:  offset,
		Hit:     true,
		Value:   value,
		Time:    c.time,
	})
	c.time++

	return value
}

// fetch reads one block worth of words starting at the block address. Words
// beyond the address space are left out, so the last block of the space can
// be short.
func (c *Cache) fetch(baseAddress uint64) ([]memory.Word, error) {
	space := c.directory.AddressSpace()
	data := make([]memory.Word, 0, c.config.BlockSize)

	for i := uint64(0); i < c.config.BlockSize; i++ {
		addr := baseAddress + i
		if addr >= space {
			break
		}

		word, err := c.backing.Read(addr)
		if err != nil {
			return nil, err
		}

		data = append(data, word)
	}

	return data, nil
}

// Write stores the word at the address. A hit updates the cached block and
// marks it dirty without touching memory. A miss writes around the cache,
// straight to memory, and does not allocate a block.
func (c *Cache) Write(address uint64, value memory.Word) error {
	tag, index, offset, err := c.directory.AddressSplit(address)
	if err != nil {
		return err
	}

	info := AccessInfo{
		Kind:    AccessWrite,
		Address: address,
		Tag:     tag,
		Index:   index,
		Offset:  offset,
		Value:   value,
		Time:    c.time,
	}

	block, found := c.directory.GetSet(index).FindBlock(tag)
	if found && block.IsValid {
		c.stats.Accesses++
		c.stats.Writes++
		c.stats.Hits++
		c.stats.WriteHits++

		block.Data[offset] = value
		block.IsDirty = true

		if c.config.Policy == PolicyLRU {
			block.LastTime = c.time
		}

		info.Hit = true
		c.invokeAccessHook(info)
		c.time++

		return nil
	}

	if err := c.backing.Write(address, value); err != nil {
		return err
	}

	c.stats.Accesses++
	c.stats.Writes++

	c.invokeAccessHook(info)
	c.time++

	return nil
}

func (c *Cache) recordEviction(index uint64, victim *Block) {
	c.stats.Evictions++
	if victim.IsDirty {
		c.stats.WriteBacks++
	}

	c.invokeEvictHook(index, victim)
}

// Flush writes every dirty block back to memory and marks it clean. The
// blocks stay in the cache, and no access is counted.
func (c *Cache) Flush() error {
	for _, set := range c.directory.Sets() {
		for _, block := range set.Blocks() {
			if !block.IsDirty {
				continue
			}

			if err := set.writeBack(block); err != nil {
				return err
			}

			block.IsDirty = false
			c.stats.WriteBacks++
		}
	}

	return nil
}

// Stats returns a snapshot of the statistics counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the statistics counters. The content of the cache and
// the logical time are kept.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// HitRate returns the fraction of accesses that hit.
func (c *Cache) HitRate() float64 {
	return c.stats.HitRate()
}

// ReadHitRate returns the fraction of reads that hit.
func (c *Cache) ReadHitRate() float64 {
	return c.stats.ReadHitRate()
}

// WriteHitRate returns the fraction of writes that hit.
func (c *Cache) WriteHitRate() float64 {
	return c.stats.WriteHitRate()
}

// Report prints the statistics of the cache.
func (c *Cache) Report(w io.Writer) error {
	return c.stats.Report(w)
}
