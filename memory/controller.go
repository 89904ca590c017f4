// Package memory provides the main memory that sits behind a cache.
package memory

// A Controller defines the interface to a memory component. It reads and
// writes single words and reports how many words it can address. Every
// implementation must reject addresses at or beyond Capacity with an error
// that wraps ErrOutOfRange.
type Controller interface {
	Read(address uint64) (Word, error)
	Write(address uint64, value Word) error
	Capacity() uint64
}

var _ Controller = (*Storage)(nil)
