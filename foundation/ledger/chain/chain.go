// Package chain is the core API for the ledger. It owns the blocks, enforces
// the link and proof of work invariants and is the only way to add blocks.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
	"github.com/ardanlabs/notary/foundation/ledger/storage/memory"
	"github.com/ardanlabs/notary/foundation/ledger/validator"
)

// Set of errors returned by the chain.
var (
	ErrEmptyChain     = errors.New("chain is empty, genesis block required")
	ErrGenesisExists  = errors.New("genesis block already exists")
	ErrInvalidPayload = errors.New("invalid payload digest")
	ErrNotFound       = errors.New("block not found")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of appending blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to open a chain.
type Config struct {
	Hasher            digest.Hasher
	Engine            *pow.Engine
	Storage           database.Serializer
	GenesisDifficulty uint
	MinDifficulty     uint
	MaxTrials         uint64
	Now               func() time.Time
	EvHandler         EventHandler
}

// Chain manages the ordered, append only sequence of blocks. Appends are
// serialized by writeMu which is held across the proof of work search.
// Readers only take mu so they are not blocked by a search in progress.
type Chain struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	blocks []database.Block
	byHash map[string]uint64

	hasher            digest.Hasher
	engine            *pow.Engine
	storage           database.Serializer
	genesisDifficulty uint
	minDifficulty     uint
	maxTrials         uint64
	now               func() time.Time
	evHandler         EventHandler
}

// New constructs a chain over the configured storage. Blocks already in
// storage are loaded and validated; a chain will not open over corrupted
// storage.
func New(cfg Config) (*Chain, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	hasher := cfg.Hasher
	if hasher.Name() == "" {
		hasher = digest.SHA256
	}

	engine := cfg.Engine
	if engine == nil {
		engine = pow.NewEngine(pow.Config{
			Hasher:    hasher,
			EvHandler: pow.EventHandler(ev),
		})
	}

	if engine.Hasher().Name() != hasher.Name() {
		return nil, fmt.Errorf("engine hasher %s does not match chain hasher %s", engine.Hasher(), hasher)
	}

	if err := pow.CheckDifficulty(hasher, cfg.GenesisDifficulty); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	if err := pow.CheckDifficulty(hasher, cfg.MinDifficulty); err != nil {
		return nil, fmt.Errorf("minimum: %w", err)
	}

	strg := cfg.Storage
	if strg == nil {
		var err error
		if strg, err = memory.New(); err != nil {
			return nil, err
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ev("chain: New: loading blocks from storage")

	// Load all existing blocks from storage into memory for processing.
	blocks, err := database.ReadAll(strg)
	if err != nil {
		return nil, fmt.Errorf("reading blocks: %w", err)
	}

	ev("chain: New: validating blocks: count[%d]", len(blocks))

	if err := validator.New(hasher, validator.WithMinDifficulty(cfg.MinDifficulty)).Validate(blocks); err != nil {
		return nil, err
	}

	byHash := make(map[string]uint64, len(blocks))
	for _, block := range blocks {
		byHash[block.Hash] = block.Index
	}

	c := Chain{
		blocks:            blocks,
		byHash:            byHash,
		hasher:            hasher,
		engine:            engine,
		storage:           strg,
		genesisDifficulty: cfg.GenesisDifficulty,
		minDifficulty:     cfg.MinDifficulty,
		maxTrials:         cfg.MaxTrials,
		now:               now,
		evHandler:         ev,
	}

	return &c, nil
}

// Close releases the storage.
func (c *Chain) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.storage.Close()
}

// Hasher returns the hasher the chain computes block hashes with.
func (c *Chain) Hasher() digest.Hasher {
	return c.hasher
}

// MinDifficulty returns the lowest difficulty a block after genesis can be
// appended at.
func (c *Chain) MinDifficulty() uint {
	return c.minDifficulty
}

// =============================================================================

// Genesis creates the first block of the chain. It can only be called once
// in the lifetime of a chain.
func (c *Chain) Genesis(ctx context.Context) (database.Block, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.evHandler("chain: Genesis: started")
	defer c.evHandler("chain: Genesis: completed")

	if c.Length() != 0 {
		return database.Block{}, ErrGenesisExists
	}

	block, err := c.mine(ctx, 0, "", database.GenesisPrevHash, c.now().UnixNano(), c.genesisDifficulty)
	if err != nil {
		return database.Block{}, err
	}

	if err := c.commit(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// Append mines a new block for the payload digest at the specified difficulty
// and adds it to the end of the chain.
func (c *Chain) Append(ctx context.Context, payloadDigest string, difficulty uint) (database.Block, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.evHandler("chain: Append: started: payload[%s] difficulty[%d]", payloadDigest, difficulty)
	defer c.evHandler("chain: Append: completed")

	if err := pow.CheckDifficulty(c.hasher, difficulty); err != nil {
		return database.Block{}, err
	}

	if difficulty < c.minDifficulty {
		return database.Block{}, fmt.Errorf("%w: difficulty %d is below the minimum %d", pow.ErrInvalidDifficulty, difficulty, c.minDifficulty)
	}

	if !c.hasher.IsDigest(payloadDigest) {
		return database.Block{}, fmt.Errorf("%w: %q is not a %s digest", ErrInvalidPayload, payloadDigest, c.hasher)
	}

	tip, err := c.Tip()
	if err != nil {
		return database.Block{}, err
	}

	// The ledger timestamps never go backwards even if the clock does.
	timeStamp := c.now().UnixNano()
	if timeStamp < tip.TimeStamp {
		c.evHandler("chain: Append: WARNING: clock behind tip: now[%d] tip[%d]", timeStamp, tip.TimeStamp)
		timeStamp = tip.TimeStamp
	}

	block, err := c.mine(ctx, tip.Index+1, payloadDigest, tip.Hash, timeStamp, difficulty)
	if err != nil {
		return database.Block{}, err
	}

	if err := c.commit(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// mine performs the proof of work for a block built from the fields.
func (c *Chain) mine(ctx context.Context, index uint64, payloadDigest string, prevHash string, timeStamp int64, difficulty uint) (database.Block, error) {
	header := database.Header(index, payloadDigest, prevHash, timeStamp, difficulty)

	c.evHandler("chain: mine: MINING: blk[%d] difficulty[%d]", index, difficulty)

	trials := c.maxTrials
	if trials == 0 {
		trials = pow.Unbounded
	}

	sol, err := c.engine.SolveBounded(ctx, header, difficulty, trials)
	if err != nil {
		return database.Block{}, fmt.Errorf("mining block %d: %w", index, err)
	}

	block := database.Block{
		Index:         index,
		TimeStamp:     timeStamp,
		PayloadDigest: payloadDigest,
		PrevHash:      prevHash,
		Difficulty:    difficulty,
		Nonce:         sol.Nonce,
		Hash:          sol.Hash,
	}

	return block, nil
}

// commit writes the block to storage and then advances the tip. The caller
// must hold writeMu.
func (c *Chain) commit(block database.Block) error {
	c.evHandler("chain: commit: write to storage: blk[%d] hash[%s]", block.Index, block.Hash)

	if err := c.storage.Write(database.NewBlockData(block)); err != nil {
		return fmt.Errorf("writing block %d: %w", block.Index, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.blocks = append(c.blocks, block)
	c.byHash[block.Hash] = block.Index

	return nil
}

// =============================================================================

// Length returns the number of blocks in the chain.
func (c *Chain) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks)
}

// Tip returns the latest block.
func (c *Chain) Tip() (database.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.blocks) == 0 {
		return database.Block{}, ErrEmptyChain
	}

	return c.blocks[len(c.blocks)-1], nil
}

// Blocks returns a copy of all the blocks in the chain.
func (c *Chain) Blocks() []database.Block {
	return c.Snapshot(c.Length())
}

// Snapshot returns a copy of the first n blocks. Validating a snapshot is
// not affected by appends that happen while the validation runs.
func (c *Chain) Snapshot(n int) []database.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(c.blocks) {
		n = len(c.blocks)
	}

	blocks := make([]database.Block, n)
	copy(blocks, c.blocks[:n])

	return blocks
}

// BlockByIndex returns the block at the specified index.
func (c *Chain) BlockByIndex(index uint64) (database.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index >= uint64(len(c.blocks)) {
		return database.Block{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}

	return c.blocks[index], nil
}

// BlockByHash returns the block with the specified hash.
func (c *Chain) BlockByHash(hash string) (database.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	index, exists := c.byHash[hash]
	if !exists {
		return database.Block{}, fmt.Errorf("%w: hash %s", ErrNotFound, hash)
	}

	return c.blocks[index], nil
}
