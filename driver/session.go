package driver

import (
	"io"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/memory/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// A Session holds the cache and the memory a user works with. It starts
// unconfigured, and every workload operation fails with ErrNotConfigured
// until Configure succeeds. A Session is safe for concurrent use, so a
// monitor can read it while workloads run.
type Session struct {
	mu sync.Mutex

	rng   *rand.Rand
	hooks []hooking.Hook

	config  cache.Config
	cache   *cache.Cache
	storage *memory.Storage
}

// NewSession creates an unconfigured session. The rng drives random
// workloads and the random replacement policy; nil seeds one from the
// current time. The hooks are attached to every cache the session builds.
func NewSession(rng *rand.Rand, hooks ...hooking.Hook) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Session{
		rng:   rng,
		hooks: hooks,
	}
}

// Configure builds a fresh memory of 2^AddressBits words and a cache in
// front of it. If the configuration is rejected, the previous cache is kept.
func (s *Session) Configure(config cache.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	storage := memory.NewStorageWithAddressBits(config.AddressBits)

	c, err := cache.MakeBuilder().
		WithConfig(config).
		WithMemory(storage).
		WithRandSource(s.rng).
		Build("Cache")
	if err != nil {
		return err
	}

	for _, h := range s.hooks {
		c.AcceptHook(h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = c.Config()
	s.cache = c
	s.storage = storage

	return nil
}

// IsConfigured tells if a cache has been configured.
func (s *Session) IsConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache != nil
}

// Config returns the configuration of the current cache.
func (s *Session) Config() (cache.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		return cache.Config{}, ErrNotConfigured
	}

	return s.config, nil
}

// Do runs f with the current cache and memory while holding the session.
func (s *Session) Do(f func(c *cache.Cache, storage *memory.Storage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		return ErrNotConfigured
	}

	return f(s.cache, s.storage)
}

// RunTrace replays a trace against the cache.
func (s *Session) RunTrace(r io.Reader) (result TraceResult, err error) {
	err = s.Do(func(c *cache.Cache, _ *memory.Storage) error {
		result, err = RunTrace(c, r)
		return err
	})

	return result, err
}

// RunTraceFile replays the trace stored in a file.
func (s *Session) RunTraceFile(path string) (TraceResult, error) {
	if !s.IsConfigured() {
		return TraceResult{}, ErrNotConfigured
	}

	f, err := os.Open(path)
	if err != nil {
		return TraceResult{}, err
	}
	defer f.Close()

	return s.RunTrace(f)
}

// RunOps replays already parsed operations against the cache.
func (s *Session) RunOps(ops []Op) error {
	return s.Do(func(c *cache.Cache, _ *memory.Storage) error {
		return Replay(c, ops)
	})
}

// RunRandom runs a random workload against the cache.
func (s *Session) RunRandom(w RandomWorkload) error {
	return s.Do(func(c *cache.Cache, _ *memory.Storage) error {
		return w.Run(c, s.rng, c.Directory().AddressSpace())
	})
}

// Stats returns the statistics of the cache.
func (s *Session) Stats() (stats cache.Statistics, err error) {
	err = s.Do(func(c *cache.Cache, _ *memory.Storage) error {
		stats = c.Stats()
		return nil
	})

	return stats, err
}

// Report prints the statistics of the cache.
func (s *Session) Report(w io.Writer) error {
	return s.Do(func(c *cache.Cache, _ *memory.Storage) error {
		return c.Report(w)
	})
}

// Flush writes all dirty blocks back to memory.
func (s *Session) Flush() error {
	return s.Do(func(c *cache.Cache, _ *memory.Storage) error {
		return c.Flush()
	})
}
