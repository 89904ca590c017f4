package cache

import (
	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// HookPosAccess marks the completion of a read or a write. The hook detail is
// an AccessInfo.
var HookPosAccess = &hooking.HookPos{Name: "Cache Access"}

// HookPosEvict marks the removal of a block from a set. The hook item is the
// evicted *Block and the detail is an EvictionInfo.
var HookPosEvict = &hooking.HookPos{Name: "Cache Evict"}

// AccessKind tells reads and writes apart.
type AccessKind int

// Kinds of accesses.
const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "unknown"
	}
}

// AccessInfo describes one completed access.
type AccessInfo struct {
	Kind    AccessKind
	Address uint64
	Tag     uint64
	Index   uint64
	Offset  uint64
	Hit     bool
	Value   memory.Word
	Time    uint64
}

// EvictionInfo describes one evicted block.
type EvictionInfo struct {
	Index       uint64
	Tag         uint64
	BaseAddress uint64
	WrittenBack bool
	Time        uint64
}

func (c *Cache) invokeAccessHook(info AccessInfo) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Detail: info,
	})
}

func (c *Cache) invokeEvictHook(index uint64, victim *Block) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosEvict,
		Item:   victim,
		Detail: EvictionInfo{
			Index:       index,
			Tag:         victim.Tag,
			BaseAddress: victim.BaseAddress,
			WrittenBack: victim.IsDirty,
			Time:        c.time,
		},
	})
}
