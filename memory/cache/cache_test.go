package cache

import (
	"bytes"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/sim/hooking"
)

var _ = Describe("Cache", func() {
	var (
		storage *memory.Storage
		c       *Cache
	)

	build := func(builder Builder) {
		var err error

		storage = memory.NewStorageWithAddressBits(builder.config.AddressBits)
		c, err = builder.WithMemory(storage).Build("Cache")
		Expect(err).NotTo(HaveOccurred())
	}

	mustRead := func(addr uint64) memory.Word {
		value, err := c.Read(addr)
		Expect(err).NotTo(HaveOccurred())
		return value
	}

	isCached := func(addr uint64) bool {
		tag, index, _, err := c.AddressSplit(addr)
		Expect(err).NotTo(HaveOccurred())
		_, found := c.Directory().GetSet(index).FindBlock(tag)
		return found
	}

	BeforeEach(func() {
		build(MakeBuilder())
	})

	Context("with 1024 words, 64-word blocks, 2 ways, LRU", func() {
		It("should have 8 sets", func() {
			Expect(c.Directory().NumSets()).To(Equal(uint64(8)))
		})

		It("should hit on the second read of the same address", func() {
			Expect(storage.Write(0, 77)).To(Succeed())

			first := mustRead(0)
			Expect(c.Stats().Hits).To(BeZero())

			second := mustRead(0)
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
			Expect(second).To(Equal(first))
			Expect(second).To(Equal(memory.Word(77)))
		})

		It("should keep two tags of the same set", func() {
			mustRead(0)
			mustRead(512)
			mustRead(0)

			stats := c.Stats()
			Expect(stats.Accesses).To(Equal(uint64(3)))
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.ReadHits).To(Equal(uint64(1)))
			Expect(stats.Evictions).To(BeZero())
			Expect(c.Directory().GetSet(0).Len()).To(Equal(2))
		})

		It("should hit on any word of a filled block", func() {
			Expect(storage.Write(10, 5)).To(Succeed())

			mustRead(3)

			Expect(mustRead(10)).To(Equal(memory.Word(5)))
			Expect(c.Stats().ReadHits).To(Equal(uint64(1)))
		})

		It("should fetch the whole block on a read miss", func() {
			mustRead(70)

			Expect(storage.AccessCount()).To(Equal(uint64(64)))

			block, found := c.Directory().GetSet(1).FindBlock(0)
			Expect(found).To(BeTrue())
			Expect(block.BaseAddress).To(Equal(uint64(64)))
			Expect(block.Data).To(HaveLen(64))
			Expect(block.IsValid).To(BeTrue())
			Expect(block.IsDirty).To(BeFalse())
			Expect(block.LoadTime).To(BeZero())
			Expect(block.LastTime).To(BeZero())
		})

		It("should write around the cache on a write miss", func() {
			Expect(c.Write(100, 9)).To(Succeed())

			Expect(c.Stats().Hits).To(BeZero())
			Expect(c.Stats().Writes).To(Equal(uint64(1)))
			Expect(isCached(100)).To(BeFalse())

			value, _ := storage.Read(100)
			Expect(value).To(Equal(memory.Word(9)))
		})

		It("should not touch memory on a write hit", func() {
			mustRead(5)
			accesses := storage.AccessCount()

			Expect(c.Write(5, 99)).To(Succeed())

			Expect(storage.AccessCount()).To(Equal(accesses))
			Expect(c.Stats().WriteHits).To(Equal(uint64(1)))
			Expect(mustRead(5)).To(Equal(memory.Word(99)))

			block, _ := c.Directory().GetSet(0).FindBlock(0)
			Expect(block.IsDirty).To(BeTrue())
		})

		It("should advance time once per access", func() {
			mustRead(0)
			Expect(c.Write(1, 1)).To(Succeed())
			Expect(c.Write(900, 1)).To(Succeed())

			Expect(c.Time()).To(Equal(uint64(3)))
		})

		It("should refresh the last time on hits", func() {
			mustRead(0)
			mustRead(1)
			Expect(c.Write(2, 3)).To(Succeed())

			block, _ := c.Directory().GetSet(0).FindBlock(0)
			Expect(block.LoadTime).To(Equal(uint64(0)))
			Expect(block.LastTime).To(Equal(uint64(2)))
		})
	})

	Context("when the address is out of range", func() {
		It("should fail the read and leave the cache unchanged", func() {
			_, err := c.Read(1024)

			Expect(err).To(MatchError(ErrOutOfRange))
			Expect(c.Stats()).To(Equal(Statistics{}))
			Expect(c.Time()).To(BeZero())
			Expect(storage.AccessCount()).To(BeZero())
		})

		It("should fail the write and leave the cache unchanged", func() {
			err := c.Write(4096, 1)

			Expect(err).To(MatchError(ErrOutOfRange))
			Expect(c.Stats()).To(Equal(Statistics{}))
			Expect(c.Time()).To(BeZero())
		})

		It("should fail when the memory is smaller than the address space", func() {
			small := memory.NewStorage(512)
			var err error
			c, err = New(DefaultConfig(), small)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.Read(600)

			Expect(err).To(MatchError(ErrOutOfRange))
			Expect(c.Stats()).To(Equal(Statistics{}))
			Expect(c.Directory().GetSet(1).Len()).To(BeZero())
		})
	})

	Context("with 512 words, one way and FIFO", func() {
		BeforeEach(func() {
			build(MakeBuilder().
				WithCacheSize(512).
				WithAssociativity(1).
				WithPolicy(PolicyFIFO))
		})

		It("should evict the block of the same index", func() {
			mustRead(0)
			mustRead(512)
			mustRead(0)

			stats := c.Stats()
			Expect(stats.Hits).To(BeZero())
			Expect(stats.Evictions).To(Equal(uint64(2)))
		})
	})

	Context("with four ways and FIFO", func() {
		BeforeEach(func() {
			build(MakeBuilder().
				WithAssociativity(4).
				WithPolicy(PolicyFIFO).
				WithAddressBits(12))
		})

		It("should evict the first block loaded regardless of hits", func() {
			for _, addr := range []uint64{0, 256, 512, 768} {
				mustRead(addr)
			}

			Expect(c.Write(0, 1)).To(Succeed())
			mustRead(0)
			Expect(c.Write(2048, 3)).To(Succeed())

			mustRead(1024)

			Expect(isCached(0)).To(BeFalse())
			Expect(isCached(256)).To(BeTrue())
			Expect(isCached(512)).To(BeTrue())
			Expect(isCached(768)).To(BeTrue())
			Expect(isCached(1024)).To(BeTrue())
		})
	})

	Context("with two ways in a 2048-word address space", func() {
		It("should evict the least recently used block under LRU", func() {
			build(MakeBuilder().WithAddressBits(11))

			mustRead(0)
			mustRead(512)
			mustRead(0)
			mustRead(1024)

			Expect(isCached(0)).To(BeTrue())
			Expect(isCached(512)).To(BeFalse())
			Expect(isCached(1024)).To(BeTrue())
		})

		It("should evict the first loaded block under FIFO", func() {
			build(MakeBuilder().
				WithAddressBits(11).
				WithPolicy(PolicyFIFO))

			mustRead(0)
			mustRead(512)
			mustRead(0)
			mustRead(1024)

			Expect(isCached(0)).To(BeFalse())
			Expect(isCached(512)).To(BeTrue())
		})

		It("should write dirty data back on eviction", func() {
			build(MakeBuilder().WithAddressBits(11))
			Expect(storage.Write(6, 42)).To(Succeed())

			mustRead(0)
			Expect(c.Write(5, 99)).To(Succeed())

			value, _ := storage.Read(5)
			Expect(value).To(BeZero())

			mustRead(512)
			mustRead(1024)

			Expect(isCached(0)).To(BeFalse())
			Expect(c.Stats().WriteBacks).To(Equal(uint64(1)))

			value, _ = storage.Read(5)
			Expect(value).To(Equal(memory.Word(99)))
			value, _ = storage.Read(6)
			Expect(value).To(Equal(memory.Word(42)))
		})

		It("should not write a clean block back", func() {
			build(MakeBuilder().WithAddressBits(11))
			Expect(storage.Write(5, 7)).To(Succeed())

			mustRead(0)
			mustRead(512)
			before := storage.AccessCount()

			mustRead(1024)

			Expect(storage.AccessCount() - before).To(Equal(uint64(64)))
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Stats().WriteBacks).To(BeZero())

			value, _ := storage.Read(5)
			Expect(value).To(Equal(memory.Word(7)))
		})
	})

	Context("when blocks are larger than the address space", func() {
		It("should fetch a short block", func() {
			build(MakeBuilder().
				WithCacheSize(64).
				WithBlockSize(64).
				WithAssociativity(1).
				WithAddressBits(4))
			Expect(storage.Write(15, 3)).To(Succeed())

			Expect(mustRead(15)).To(Equal(memory.Word(3)))

			block, _ := c.Directory().GetSet(0).FindBlock(0)
			Expect(block.Data).To(HaveLen(16))
		})
	})

	Context("with the random policy", func() {
		victimsFor := func(seed int64) []uint64 {
			storage := memory.NewStorageWithAddressBits(16)
			c, err := MakeBuilder().
				WithPolicy(PolicyRandom).
				WithAssociativity(4).
				WithAddressBits(16).
				WithMemory(storage).
				WithRandSource(rand.New(rand.NewSource(seed))).
				Build("Cache")
			Expect(err).NotTo(HaveOccurred())

			victims := []uint64{}
			hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
				if ctx.Pos == HookPosEvict {
					victims = append(victims, ctx.Detail.(EvictionInfo).Tag)
				}
			})
			c.AcceptHook(&hook)

			for i := uint64(0); i < 20; i++ {
				_, err := c.Read(i * 256)
				Expect(err).NotTo(HaveOccurred())
			}

			return victims
		}

		It("should evict the same blocks for the same seed", func() {
			v1 := victimsFor(7)
			v2 := victimsFor(7)

			Expect(v1).To(HaveLen(16))
			Expect(v1).To(Equal(v2))
		})
	})

	Context("statistics", func() {
		It("should report zero rates before any access", func() {
			Expect(c.HitRate()).To(BeZero())
			Expect(c.ReadHitRate()).To(BeZero())
			Expect(c.WriteHitRate()).To(BeZero())
		})

		It("should keep the counters consistent", func() {
			rng := rand.New(rand.NewSource(3))

			for i := 0; i < 2000; i++ {
				addr := uint64(rng.Intn(1024))
				if rng.Float64() < 0.7 {
					mustRead(addr)
				} else {
					Expect(c.Write(addr, memory.Word(rng.Intn(256)))).To(Succeed())
				}

				s := c.Stats()
				Expect(s.Accesses).To(Equal(s.Reads + s.Writes))
				Expect(s.Hits).To(Equal(s.ReadHits + s.WriteHits))
				Expect(s.Misses()).To(Equal(s.Accesses - s.Hits))
			}

			for _, rate := range []float64{
				c.HitRate(), c.ReadHitRate(), c.WriteHitRate(),
			} {
				Expect(rate).To(BeNumerically(">=", 0))
				Expect(rate).To(BeNumerically("<=", 1))
			}
		})

		It("should compute the rates", func() {
			mustRead(0)
			mustRead(0)
			Expect(c.Write(0, 1)).To(Succeed())
			Expect(c.Write(900, 1)).To(Succeed())

			Expect(c.HitRate()).To(Equal(0.5))
			Expect(c.ReadHitRate()).To(Equal(0.5))
			Expect(c.WriteHitRate()).To(Equal(0.5))
		})

		It("should reset the counters", func() {
			mustRead(0)
			c.ResetStats()

			Expect(c.Stats()).To(Equal(Statistics{}))
			Expect(c.Time()).To(Equal(uint64(1)))
		})

		It("should print a report", func() {
			mustRead(0)
			mustRead(0)

			buf := new(bytes.Buffer)
			Expect(c.Report(buf)).To(Succeed())

			Expect(buf.String()).To(ContainSubstring("Total accesses: 2\n"))
			Expect(buf.String()).To(ContainSubstring("Hit rate: 0.5000\n"))
			Expect(buf.String()).To(ContainSubstring("Write hit rate: 0.0000\n"))
		})
	})

	Context("flush", func() {
		It("should write every dirty block back and keep it cached", func() {
			mustRead(0)
			mustRead(64)
			Expect(c.Write(1, 11)).To(Succeed())
			Expect(c.Write(65, 12)).To(Succeed())

			Expect(c.Flush()).To(Succeed())

			v1, _ := storage.Read(1)
			v2, _ := storage.Read(65)
			Expect(v1).To(Equal(memory.Word(11)))
			Expect(v2).To(Equal(memory.Word(12)))
			Expect(c.Stats().WriteBacks).To(Equal(uint64(2)))
			Expect(isCached(1)).To(BeTrue())

			block, _ := c.Directory().GetSet(0).FindBlock(0)
			Expect(block.IsDirty).To(BeFalse())
		})
	})
})

var _ = Describe("Cache with mocked collaborators", func() {
	var (
		mockCtrl *gomock.Controller
		backing  *MockController
		hook     *MockHook
		c        *Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backing = NewMockController(mockCtrl)
		hook = NewMockHook(mockCtrl)

		var err error
		c, err = MakeBuilder().
			WithCacheSize(16).
			WithBlockSize(4).
			WithAssociativity(1).
			WithPolicy(PolicyFIFO).
			WithAddressBits(6).
			WithMemory(backing).
			Build("Cache")
		Expect(err).NotTo(HaveOccurred())
		c.AcceptHook(hook)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should only write memory on a write miss", func() {
		backing.EXPECT().Write(uint64(9), uint64(4)).Return(nil)
		hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosAccess))
			info := ctx.Detail.(AccessInfo)
			Expect(info.Kind).To(Equal(AccessWrite))
			Expect(info.Hit).To(BeFalse())
			Expect(info.Address).To(Equal(uint64(9)))
			Expect(info.Index).To(Equal(uint64(2)))
			Expect(info.Offset).To(Equal(uint64(1)))
		})

		Expect(c.Write(9, 4)).To(Succeed())
	})

	It("should not count a write miss the memory rejects", func() {
		backing.EXPECT().Write(uint64(9), uint64(4)).Return(memory.ErrOutOfRange)

		Expect(c.Write(9, 4)).To(MatchError(ErrOutOfRange))
		Expect(c.Stats()).To(Equal(Statistics{}))
	})

	It("should report evictions to hooks", func() {
		for addr := uint64(0); addr < 4; addr++ {
			backing.EXPECT().Read(addr).Return(addr*10, nil)
		}
		for addr := uint64(16); addr < 20; addr++ {
			backing.EXPECT().Read(addr).Return(uint64(0), nil)
		}
		backing.EXPECT().Capacity().Return(uint64(64))
		for addr := uint64(0); addr < 4; addr++ {
			value := addr * 10
			if addr == 2 {
				value = 5
			}
			backing.EXPECT().Write(addr, value).Return(nil)
		}

		var positions []*hooking.HookPos
		var eviction EvictionInfo
		hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
			positions = append(positions, ctx.Pos)
			if ctx.Pos == HookPosEvict {
				eviction = ctx.Detail.(EvictionInfo)
				Expect(ctx.Item.(*Block).Tag).To(Equal(uint64(0)))
			}
		}).Times(4)

		value, err := c.Read(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(memory.Word(10)))
		Expect(c.Write(2, 5)).To(Succeed())
		_, err = c.Read(16)
		Expect(err).NotTo(HaveOccurred())

		Expect(positions).To(Equal([]*hooking.HookPos{
			HookPosAccess, HookPosAccess, HookPosEvict, HookPosAccess,
		}))
		Expect(eviction).To(Equal(EvictionInfo{
			Index:       0,
			Tag:         0,
			BaseAddress: 0,
			WrittenBack: true,
			Time:        2,
		}))
	})
})

var _ = Describe("Builder", func() {
	It("should reject a configuration without memory", func() {
		_, err := MakeBuilder().Build("Cache")

		Expect(err).To(MatchError(ErrInvalidConfig))
	})

	It("should reject an invalid configuration", func() {
		_, err := New(Config{
			CacheSize:     1000,
			BlockSize:     64,
			Associativity: 2,
			Policy:        PolicyLRU,
			AddressBits:   10,
		}, memory.NewStorage(1024))

		Expect(err).To(MatchError(ErrInvalidConfig))
		Expect(err.Error()).To(ContainSubstring("cache size"))
	})

	It("should normalize the policy name", func() {
		c, err := MakeBuilder().
			WithPolicy("fifo").
			WithMemory(memory.NewStorage(1024)).
			Build("L1")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Config().Policy).To(Equal(PolicyFIFO))
		Expect(c.Name()).To(Equal("L1"))
	})
})
