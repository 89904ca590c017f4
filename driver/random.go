package driver

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sarchlab/cachesim/memory"
)

// maxRandomValue bounds the values written by a random workload.
const maxRandomValue = 255

// A RandomWorkload generates uniformly distributed reads and writes.
type RandomWorkload struct {
	// Count is the number of operations.
	Count int

	// ReadRatio is the probability for an operation to be a read.
	ReadRatio float64

	// AddressRange bounds the addresses to [0, AddressRange). Zero means
	// the whole address space.
	AddressRange uint64
}

// Validate checks the parameters of the workload.
func (w RandomWorkload) Validate() error {
	if w.Count < 0 {
		return fmt.Errorf("access count must not be negative, got %d", w.Count)
	}

	if w.ReadRatio < 0 || w.ReadRatio > 1 {
		return fmt.Errorf("read ratio must be within [0, 1], got %g", w.ReadRatio)
	}

	return nil
}

// Generate draws all the operations from rng. The address range is capped
// at addressSpace. Run draws the same sequence without keeping it.
func (w RandomWorkload) Generate(rng *rand.Rand, addressSpace uint64) ([]Op, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var ops []Op

	addrRange := w.addressRange(addressSpace)
	for i := 0; i < w.Count; i++ {
		ops = append(ops, w.next(rng, addrRange))
	}

	return ops, nil
}

func (w RandomWorkload) addressRange(addressSpace uint64) uint64 {
	if w.AddressRange > 0 && w.AddressRange < addressSpace {
		return w.AddressRange
	}

	return addressSpace
}

func (w RandomWorkload) next(rng *rand.Rand, addrRange uint64) Op {
	op := Op{Address: randomAddress(rng, addrRange)}

	if rng.Float64() >= w.ReadRatio {
		op.Kind = OpWrite
		op.Value = memory.Word(rng.Intn(maxRandomValue + 1))
	}

	return op
}

func randomAddress(rng *rand.Rand, n uint64) uint64 {
	if n <= math.MaxInt64 {
		return uint64(rng.Int63n(int64(n)))
	}

	return rng.Uint64() % n
}

// Run draws the operations one at a time and applies each to the accessor
// as soon as it is drawn. It stops at the first failing operation.
func (w RandomWorkload) Run(a Accessor, rng *rand.Rand, addressSpace uint64) error {
	if err := w.Validate(); err != nil {
		return err
	}

	addrRange := w.addressRange(addressSpace)
	for i := 0; i < w.Count; i++ {
		op := w.next(rng, addrRange)
		if err := apply(a, op); err != nil {
			return &OpError{Index: i, Op: op, Err: err}
		}
	}

	return nil
}
