// Package database defines the block record and the behavior required by
// any package providing storage for the ledger.
package database

import "errors"

// Set of errors returned by storage implementations.
var (
	ErrNotFound   = errors.New("block not found")
	ErrOutOfOrder = errors.New("block is out of order")
	ErrEndOfChain = errors.New("end of chain")
)

// Serializer interface represents the behavior required to be implemented by
// any package providing support for storing and reading the ledger. Blocks are
// only ever appended, there is no support for rewriting or removing them.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(index uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks starting with genesis.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// ReadAll walks the iterator and returns every block in order.
func ReadAll(serializer Serializer) ([]Block, error) {
	var blocks []Block

	iter := serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, ToBlock(blockData))
	}

	return blocks, nil
}
