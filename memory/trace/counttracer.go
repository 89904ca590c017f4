package trace

import (
	"sync"

	"github.com/sarchlab/cachesim/memory/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// Tags counted by the CountTracer.
const (
	TagReadHit   = "read-hit"
	TagReadMiss  = "read-miss"
	TagWriteHit  = "write-hit"
	TagWriteMiss = "write-miss"
	TagEvict     = "evict"
	TagWriteBack = "write-back"
)

// CountTracer counts the events of a cache by tag and by set.
type CountTracer struct {
	lock sync.Mutex

	tagNames    []string
	tagCount    map[string]uint64
	setAccesses map[uint64]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		tagCount:    make(map[string]uint64),
		setAccesses: make(map[uint64]uint64),
	}
}

// Func counts an access or an eviction.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	switch ctx.Pos {
	case cache.HookPosAccess:
		info := ctx.Detail.(cache.AccessInfo)
		t.setAccesses[info.Index]++
		t.countTag(accessTag(info))
	case cache.HookPosEvict:
		info := ctx.Detail.(cache.EvictionInfo)
		t.countTag(TagEvict)

		if info.WrittenBack {
			t.countTag(TagWriteBack)
		}
	}
}

func accessTag(info cache.AccessInfo) string {
	switch {
	case info.Kind == cache.AccessRead && info.Hit:
		return TagReadHit
	case info.Kind == cache.AccessRead:
		return TagReadMiss
	case info.Hit:
		return TagWriteHit
	default:
		return TagWriteMiss
	}
}

func (t *CountTracer) countTag(tag string) {
	_, ok := t.tagCount[tag]
	if !ok {
		t.tagNames = append(t.tagNames, tag)
	}

	t.tagCount[tag]++
}

// TagNames returns the tags seen so far, in the order they first appeared.
func (t *CountTracer) TagNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, len(t.tagNames))
	copy(names, t.tagNames)

	return names
}

// TagCount returns the number of events recorded with a tag.
func (t *CountTracer) TagCount(tag string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.tagCount[tag]
}

// SetAccesses returns the number of accesses that went to a set.
func (t *CountTracer) SetAccesses(index uint64) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.setAccesses[index]
}

// Counts returns a copy of all the tag counts.
func (t *CountTracer) Counts() map[string]uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	counts := make(map[string]uint64, len(t.tagCount))
	for k, v := range t.tagCount {
		counts[k] = v
	}

	return counts
}

// Reset clears all the counts.
func (t *CountTracer) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.tagNames = nil
	t.tagCount = make(map[string]uint64)
	t.setAccesses = make(map[uint64]uint64)
}
