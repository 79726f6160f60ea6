// Package notary anchors documents into the ledger. The hash of the block
// that carries a document's digest is handed back as a receipt, which can
// later be presented with the document to prove it existed at or before
// that point in the chain.
package notary

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/notary/foundation/ledger/chain"
	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
	"github.com/ardanlabs/notary/foundation/ledger/validator"
)

// Set of errors returned by the notary.
var (
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrDocumentMismatch = errors.New("document does not match receipt")
)

// Config represents the configuration required to construct a Notary.
// A zero MaxDifficulty allows any difficulty the digest supports.
type Config struct {
	Chain         *chain.Chain
	Difficulty    uint
	MinDifficulty uint
	MaxDifficulty uint
}

// Notary is the entry point for notarizing and verifying documents.
type Notary struct {
	chain         *chain.Chain
	difficulty    uint
	minDifficulty uint
	maxDifficulty uint
	validator     *validator.Validator
}

// New constructs a notary that appends blocks at the configured difficulty.
// The difficulty must be at least one, can't exceed the digest length and
// must sit within the minimum and maximum. The minimum is raised to the
// chain's own minimum when that is higher.
func New(cfg Config) (*Notary, error) {
	if cfg.Chain == nil {
		return nil, errors.New("chain is required")
	}

	if cfg.Difficulty == 0 {
		return nil, fmt.Errorf("%w: difficulty must be positive", pow.ErrInvalidDifficulty)
	}

	hasher := cfg.Chain.Hasher()

	if err := pow.CheckDifficulty(hasher, cfg.Difficulty); err != nil {
		return nil, err
	}

	minDifficulty := max(cfg.MinDifficulty, cfg.Chain.MinDifficulty())

	maxDifficulty := cfg.MaxDifficulty
	if maxDifficulty == 0 {
		maxDifficulty = uint(hasher.HexLen())
	}

	if err := pow.CheckDifficulty(hasher, maxDifficulty); err != nil {
		return nil, fmt.Errorf("maximum: %w", err)
	}

	if cfg.Difficulty < minDifficulty || cfg.Difficulty > maxDifficulty {
		return nil, fmt.Errorf("%w: difficulty %d outside [%d, %d]", pow.ErrInvalidDifficulty, cfg.Difficulty, minDifficulty, maxDifficulty)
	}

	n := Notary{
		chain:         cfg.Chain,
		difficulty:    cfg.Difficulty,
		minDifficulty: minDifficulty,
		maxDifficulty: maxDifficulty,
		validator:     validator.New(hasher, validator.WithMinDifficulty(minDifficulty)),
	}

	return &n, nil
}

// Difficulty returns the difficulty blocks are appended at.
func (n *Notary) Difficulty() uint {
	return n.difficulty
}

// DifficultyRange returns the lowest and highest difficulty a document can
// be notarized at.
func (n *Notary) DifficultyRange() (uint, uint) {
	return n.minDifficulty, n.maxDifficulty
}

// Digest returns the payload digest the document is anchored with.
func (n *Notary) Digest(document []byte) string {
	return n.chain.Hasher().Sum(document)
}

// Notarize anchors the document's digest into the chain and returns the
// hash of the new block as the receipt.
func (n *Notary) Notarize(ctx context.Context, document []byte) (string, error) {
	block, err := n.NotarizeBlock(ctx, document, n.difficulty)
	if err != nil {
		return "", err
	}

	return block.Hash, nil
}

// NotarizeBlock anchors the document at the specified difficulty and returns
// the new block.
func (n *Notary) NotarizeBlock(ctx context.Context, document []byte, difficulty uint) (database.Block, error) {
	if difficulty < n.minDifficulty || difficulty > n.maxDifficulty {
		return database.Block{}, fmt.Errorf("notarize: %w: difficulty %d outside [%d, %d]", pow.ErrInvalidDifficulty, difficulty, n.minDifficulty, n.maxDifficulty)
	}

	block, err := n.chain.Append(ctx, n.Digest(document), difficulty)
	if err != nil {
		return database.Block{}, fmt.Errorf("notarize: %w", err)
	}

	return block, nil
}

// Verify proves the document was anchored by the block named in the receipt.
// The chain from genesis up to and including that block must validate.
func (n *Notary) Verify(ctx context.Context, document []byte, receipt string) (database.Block, error) {
	block, err := n.chain.BlockByHash(receipt)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return database.Block{}, fmt.Errorf("%w: %s", ErrReceiptNotFound, receipt)
		}
		return database.Block{}, err
	}

	if digest := n.Digest(document); digest != block.PayloadDigest {
		return database.Block{}, fmt.Errorf("%w: digest %s, block payload %s", ErrDocumentMismatch, digest, block.PayloadDigest)
	}

	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	if err := n.validator.Validate(n.chain.Snapshot(int(block.Index) + 1)); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// Validate checks the entire chain.
func (n *Notary) Validate() error {
	return n.validator.ValidateChain(n.chain)
}
