// Package id generates identifiers for recorded entries.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// An IDGenerator hands out unique string identifiers.
type IDGenerator interface {
	Generate() string
}

// NewIDGenerator returns a generator that counts up from 1. The IDs are
// reproducible from run to run.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewGlobalIDGenerator returns a generator whose IDs are unique across
// processes and runs.
func NewGlobalIDGenerator() IDGenerator {
	return globalIDGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	id := strconv.FormatUint(idNumber, 10)

	return id
}

type globalIDGenerator struct {
}

func (g globalIDGenerator) Generate() string {
	return xid.New().String()
}
