package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/cachesim/memory/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// A ProgressBar is a tracker of the progress of a workload.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

type progressBarRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// snapshot copies the bar state while holding its lock.
func (b *ProgressBar) snapshot() progressBarRsp {
	b.Lock()
	defer b.Unlock()

	return progressBarRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}

// A ProgressTracker is a hook that moves the tracked progress bar forward
// by one on every cache access.
type ProgressTracker struct {
	lock sync.Mutex
	bar  *ProgressBar
}

// Track makes the tracker advance the bar. A nil bar stops tracking.
func (t *ProgressTracker) Track(bar *ProgressBar) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.bar = bar
}

// Func advances the tracked bar on access hooks.
func (t *ProgressTracker) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	t.lock.Lock()
	bar := t.bar
	t.lock.Unlock()

	if bar != nil {
		bar.IncrementFinished(1)
	}
}
