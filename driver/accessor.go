// Package driver feeds workloads into a cache: trace files, random accesses
// and an interactive session.
package driver

import (
	"github.com/sarchlab/cachesim/memory"
)

// An Accessor is anything that serves word reads and writes, typically a
// cache.
type Accessor interface {
	Read(address uint64) (memory.Word, error)
	Write(address uint64, value memory.Word) error
}

// OpKind tells reads and writes apart.
type OpKind int

// Kinds of operations.
const (
	OpRead OpKind = iota
	OpWrite
)

func (k OpKind) String() string {
	if k == OpWrite {
		return "write"
	}

	return "read"
}

// An Op is one access of a workload.
type Op struct {
	Kind    OpKind
	Address uint64
	Value   memory.Word
}

// Replay applies the operations in order and stops at the first error.
func Replay(a Accessor, ops []Op) error {
	for i, op := range ops {
		if err := apply(a, op); err != nil {
			return &OpError{Index: i, Op: op, Err: err}
		}
	}

	return nil
}

func apply(a Accessor, op Op) error {
	if op.Kind == OpWrite {
		return a.Write(op.Address, op.Value)
	}

	_, err := a.Read(op.Address)

	return err
}
