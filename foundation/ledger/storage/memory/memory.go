// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/notary/foundation/ledger/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Serializer
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockData
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block and stores it in memory. The block must
// be the next one in sequence.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := uint64(len(m.blocks))
	if blockData.Index != l {
		return fmt.Errorf("%w: got %d, exp %d", database.ErrOutOfOrder, blockData.Index, l)
	}

	m.blocks = append(m.blocks, blockData)

	return nil
}

// GetBlock returns the contents of the specified block by index.
func (m *Memory) GetBlock(index uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index >= uint64(len(m.blocks)) {
		return database.BlockData{}, fmt.Errorf("%w: %d", database.ErrNotFound, index)
	}

	return m.blocks[index], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with genesis.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the database Iterator
// interface.
type memoryIterator struct {
	storage *Memory // Access to the memory storage API.
	current uint64  // Current block index being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, database.ErrEndOfChain
	}

	blockData, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
		return database.BlockData{}, err
	}
	mi.current++

	return blockData, nil
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
