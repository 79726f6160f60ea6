// Package disk implements the ability to read and write blocks to disk
// with each block stored in its own JSON file.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ardanlabs/notary/foundation/ledger/database"
)

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// database.Serializer interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified block and stores it on disk in a file labeled
// with the block index. An existing block is never overwritten.
func (d *Disk) Write(blockData database.BlockData) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(blockData, "", "  ")
	if err != nil {
		return err
	}

	// Create a new file for this block and name it based on the block index.
	f, err := os.OpenFile(d.getPath(blockData.Index), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: block %d already exists", database.ErrOutOfOrder, blockData.Index)
		}
		return err
	}
	defer f.Close()

	// Write the new block to disk.
	if _, err := f.Write(data); err != nil {
		return err
	}

	return f.Sync()
}

// GetBlock searches the ledger on disk to locate and return the
// contents of the specified block by index.
func (d *Disk) GetBlock(index uint64) (database.BlockData, error) {

	// Open the block file for the specified index.
	f, err := os.Open(d.getPath(index))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.BlockData{}, fmt.Errorf("%w: %d", database.ErrNotFound, index)
		}
		return database.BlockData{}, err
	}
	defer f.Close()

	// Decode the contents of the block.
	var blockData database.BlockData
	if err := json.NewDecoder(f).Decode(&blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decoding block %d: %w", index, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with genesis.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{disk: d}
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(index uint64) string {
	name := strconv.FormatUint(index, 10)
	return filepath.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type diskIterator struct {
	disk    *Disk  // Access to the disk storage API.
	current uint64 // Current block index being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *diskIterator) Next() (database.BlockData, error) {
	if di.eoc {
		return database.BlockData{}, database.ErrEndOfChain
	}

	blockData, err := di.disk.GetBlock(di.current)
	if errors.Is(err, database.ErrNotFound) {
		di.eoc = true
	}
	if err != nil {
		return database.BlockData{}, err
	}
	di.current++

	return blockData, nil
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
