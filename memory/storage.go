package memory

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when an address falls outside the addressable
// range of a storage.
var ErrOutOfRange = errors.New("address out of range")

// A Word is the unit of data held at one address.
type Word = uint64

const defaultUnitSize = 4096

// A Storage is a flat, word-addressed main memory.
//
// The storage manages its content in units. The unit is similar to the
// concept of page in memory management. For the units that are not touched
// by Read and Write, no memory is allocated, so an address space of 2^32
// words costs nothing until it is used. Words that were never written read
// as zero.
type Storage struct {
	unitSize    uint64
	capacity    uint64
	data        map[uint64][]Word
	accessCount uint64
}

// NewStorage creates a storage object with the specified capacity, counted in
// words.
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = defaultUnitSize
	storage.capacity = capacity
	storage.data = make(map[uint64][]Word)

	return storage
}

// NewStorageWithAddressBits creates a storage that covers every address
// expressible with the given number of address bits.
func NewStorageWithAddressBits(addressBits uint) *Storage {
	if addressBits >= 64 {
		panic(fmt.Sprintf("address bits %d too large", addressBits))
	}

	return NewStorage(1 << addressBits)
}

// Capacity returns the number of addressable words.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// AccessCount returns the number of successful reads and writes performed on
// the storage.
func (s *Storage) AccessCount() uint64 {
	return s.accessCount
}

// ResetAccessCount sets the access counter back to zero.
func (s *Storage) ResetAccessCount() {
	s.accessCount = 0
}

func (s *Storage) mustBeInRange(address uint64) error {
	if address >= s.capacity {
		return fmt.Errorf("%w: 0x%x, capacity 0x%x",
			ErrOutOfRange, address, s.capacity)
	}

	return nil
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns the word stored at the address.
func (s *Storage) Read(address uint64) (Word, error) {
	if err := s.mustBeInRange(address); err != nil {
		return 0, err
	}

	s.accessCount++

	baseAddr, inUnitAddr := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		return 0, nil
	}

	return unit[inUnitAddr], nil
}

// Write stores the word at the address, overwriting the previous content.
func (s *Storage) Write(address uint64, value Word) error {
	if err := s.mustBeInRange(address); err != nil {
		return err
	}

	s.accessCount++

	baseAddr, inUnitAddr := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]Word, s.unitSize)
		s.data[baseAddr] = unit
	}

	unit[inUnitAddr] = value

	return nil
}
