// Package trace provides hooks that trace the accesses and the evictions of a
// cache.
package trace

import (
	"log"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/memory/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/sim/id"
)

// Table names used by the DB tracer.
const (
	AccessTable   = "cache_accesses"
	EvictionTable = "cache_evictions"
)

// An AccessEntry is the row recorded for a cache access.
type AccessEntry struct {
	ID       string
	Location string
	Time     uint64
	What     string
	Address  uint64
	Tag      uint64
	SetIndex uint64
	Offset   uint64
	Hit      bool
	Value    uint64
}

// An EvictionEntry is the row recorded for an evicted block.
type EvictionEntry struct {
	ID          string
	Location    string
	Time        uint64
	SetIndex    uint64
	Tag         uint64
	BaseAddress uint64
	WrittenBack bool
}

type named interface {
	Name() string
}

func locationOf(ctx hooking.HookCtx) string {
	if n, ok := ctx.Domain.(named); ok {
		return n.Name()
	}

	return ""
}

// A tracer is a hook that prints the actions of a cache through a logger.
type tracer struct {
	logger *log.Logger
}

// NewTracer creates a hook that prints one line per access and per eviction.
func NewTracer(logger *log.Logger) hooking.Hook {
	return &tracer{logger: logger}
}

// Func prints the access or the eviction.
func (t *tracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		info := ctx.Detail.(cache.AccessInfo)

		result := "miss"
		if info.Hit {
			result = "hit"
		}

		t.logger.Printf("%d, %s, %s, 0x%x, %s, tag 0x%x, set %d, offset %d, %d\n",
			info.Time,
			locationOf(ctx),
			info.Kind,
			info.Address,
			result,
			info.Tag,
			info.Index,
			info.Offset,
			info.Value,
		)
	case cache.HookPosEvict:
		info := ctx.Detail.(cache.EvictionInfo)

		t.logger.Printf("%d, %s, evict, 0x%x, set %d, tag 0x%x, write-back %t\n",
			info.Time,
			locationOf(ctx),
			info.BaseAddress,
			info.Index,
			info.Tag,
			info.WrittenBack,
		)
	}
}

// A DBTracer is a hook that can record the actions of a cache into a
// database using the data recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	idGenerator  id.IDGenerator
}

// NewDBTracer creates a new database-based tracer and the tables it writes
// to.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	idGenerator id.IDGenerator,
) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
		idGenerator:  idGenerator,
	}

	t.dataRecorder.CreateTable(AccessTable, AccessEntry{})
	t.dataRecorder.CreateTable(EvictionTable, EvictionEntry{})

	return t
}

// Func records the access or the eviction.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		info := ctx.Detail.(cache.AccessInfo)

		t.dataRecorder.InsertData(AccessTable, AccessEntry{
			ID:       t.idGenerator.Generate(),
			Location: locationOf(ctx),
			Time:     info.Time,
			What:     info.Kind.String(),
			Address:  info.Address,
			Tag:      info.Tag,
			SetIndex: info.Index,
			Offset:   info.Offset,
			Hit:      info.Hit,
			Value:    info.Value,
		})
	case cache.HookPosEvict:
		info := ctx.Detail.(cache.EvictionInfo)

		t.dataRecorder.InsertData(EvictionTable, EvictionEntry{
			ID:          t.idGenerator.Generate(),
			Location:    locationOf(ctx),
			Time:        info.Time,
			SetIndex:    info.Index,
			Tag:         info.Tag,
			BaseAddress: info.BaseAddress,
			WrittenBack: info.WrittenBack,
		})
	}
}

// Flush writes the buffered records to the database.
func (t *DBTracer) Flush() {
	t.dataRecorder.Flush()
}
