// Package leveldb implements the ability to read and write blocks to a
// LevelDB database.
package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key layout inside the database.
const (
	blockPrefix = "block_"
	heightKey   = "chain_height"
)

// LevelDB represents the serialization implementation for reading and storing
// blocks in a LevelDB database. This implements the database.Serializer
// interface.
type LevelDB struct {
	mu     sync.Mutex
	db     *leveldb.DB
	height uint64
}

// New opens or creates the database at the specified path.
func New(dbPath string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	height, err := readHeight(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &LevelDB{db: db, height: height}, nil
}

// Close releases the database.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// Write stores the block and the new chain height in one atomic batch. The
// block must be the next one in sequence.
func (ldb *LevelDB) Write(blockData database.BlockData) error {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	if blockData.Index != ldb.height {
		return fmt.Errorf("%w: got %d, exp %d", database.ErrOutOfOrder, blockData.Index, ldb.height)
	}

	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	var height [8]byte
	binary.BigEndian.PutUint64(height[:], ldb.height+1)

	batch := new(leveldb.Batch)
	batch.Put(blockKey(blockData.Index), data)
	batch.Put([]byte(heightKey), height[:])

	if err := ldb.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("writing block %d: %w", blockData.Index, err)
	}
	ldb.height++

	return nil
}

// GetBlock returns the contents of the specified block by index.
func (ldb *LevelDB) GetBlock(index uint64) (database.BlockData, error) {
	data, err := ldb.db.Get(blockKey(index), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.BlockData{}, fmt.Errorf("%w: %d", database.ErrNotFound, index)
		}
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decoding block %d: %w", index, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// genesis. The zero padded keys keep the blocks in index order.
func (ldb *LevelDB) ForEach() database.Iterator {
	return &levelIterator{
		iter: ldb.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil),
	}
}

// blockKey forms the key for the specified block.
func blockKey(index uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", blockPrefix, index))
}

// readHeight reads the number of blocks stored.
func readHeight(db *leveldb.DB) (uint64, error) {
	data, err := db.Get([]byte(heightKey), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("reading chain height: %w", err)
	case len(data) != 8:
		return 0, fmt.Errorf("reading chain height: invalid length %d", len(data))
	}

	return binary.BigEndian.Uint64(data), nil
}

// =============================================================================

// levelIterator represents the iteration implementation for walking through
// the blocks in the database. The underlying iterator is released once the
// end of the chain is reached or an error occurs.
type levelIterator struct {
	iter     iterator.Iterator
	released bool
	eoc      bool
}

// Next retrieves the next block from the database.
func (li *levelIterator) Next() (database.BlockData, error) {
	if li.eoc || li.released {
		return database.BlockData{}, database.ErrEndOfChain
	}

	if !li.iter.Next() {
		err := li.iter.Error()
		li.release()
		if err != nil {
			return database.BlockData{}, err
		}
		li.eoc = true
		return database.BlockData{}, database.ErrEndOfChain
	}

	var blockData database.BlockData
	if err := json.Unmarshal(li.iter.Value(), &blockData); err != nil {
		key := string(li.iter.Key())
		li.release()
		return database.BlockData{}, fmt.Errorf("decoding block %s: %w", key, err)
	}

	return blockData, nil
}

// Done returns the end of chain value.
func (li *levelIterator) Done() bool {
	return li.eoc
}

func (li *levelIterator) release() {
	if !li.released {
		li.released = true
		li.iter.Release()
	}
}
