// Package validator walks a sequence of blocks recomputing hashes and
// checking links, reporting the first point of corruption.
package validator

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
)

// Reason identifies why a block failed validation.
type Reason string

// Set of reasons a block can fail validation.
const (
	IndexMismatch      Reason = "IndexMismatch"
	LinkBroken         Reason = "LinkBroken"
	HashMismatch       Reason = "HashMismatch"
	DifficultyNotMet   Reason = "DifficultyNotMet"
	TimestampRegressed Reason = "TimestampRegressed"
)

// ErrIntegrity is matched by every IntegrityError through errors.Is.
var ErrIntegrity = errors.New("integrity check failed")

// IntegrityError is returned when a block fails validation. The chain can't
// be trusted from Index onward.
type IntegrityError struct {
	Index  uint64
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (ie *IntegrityError) Error() string {
	if ie.Detail == "" {
		return fmt.Sprintf("integrity check failed: blk[%d]: %s", ie.Index, ie.Reason)
	}
	return fmt.Sprintf("integrity check failed: blk[%d]: %s: %s", ie.Index, ie.Reason, ie.Detail)
}

// Is allows errors.Is to match any IntegrityError against ErrIntegrity.
func (ie *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// GetIntegrityError returns the IntegrityError in the chain, if any.
func GetIntegrityError(err error) *IntegrityError {
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		return nil
	}
	return ie
}

// =============================================================================

// Source represents anything that can hand out a copy of its blocks.
type Source interface {
	Blocks() []database.Block
}

// Validator checks blocks against the ledger invariants.
type Validator struct {
	hasher        digest.Hasher
	minDifficulty uint
}

// Option configures a Validator.
type Option func(v *Validator)

// WithMinDifficulty sets a chain wide policy every non-genesis block must
// meet in addition to the difficulty it recorded.
func WithMinDifficulty(difficulty uint) Option {
	return func(v *Validator) {
		v.minDifficulty = difficulty
	}
}

// New constructs a validator for blocks hashed with the specified hasher.
func New(hasher digest.Hasher, options ...Option) *Validator {
	v := Validator{
		hasher: hasher,
	}

	for _, option := range options {
		option(&v)
	}

	return &v
}

// ValidateChain validates the blocks handed out by the source.
func (v *Validator) ValidateChain(source Source) error {
	return v.Validate(source.Blocks())
}

// Validate walks the blocks in order and returns an IntegrityError for the
// first block that breaks an invariant. It does not attempt any repair.
func (v *Validator) Validate(blocks []database.Block) error {
	for i, block := range blocks {
		var prev *database.Block
		if i > 0 {
			prev = &blocks[i-1]
		}

		if err := v.ValidateBlock(uint64(i), block, prev); err != nil {
			return err
		}
	}

	return nil
}

// TrustedPrefix returns the blocks that precede the first corrupted block
// along with the error describing the corruption. When the chain is intact
// all blocks are returned with a nil error.
func (v *Validator) TrustedPrefix(blocks []database.Block) ([]database.Block, error) {
	err := v.Validate(blocks)
	if ie := GetIntegrityError(err); ie != nil {
		return blocks[:ie.Index], err
	}

	return blocks, err
}

// ValidateBlock checks a single block at the specified position against its
// predecessor. The predecessor is nil for the genesis position.
func (v *Validator) ValidateBlock(position uint64, block database.Block, prev *database.Block) error {
	fail := func(reason Reason, format string, args ...any) error {
		return &IntegrityError{
			Index:  position,
			Reason: reason,
			Detail: fmt.Sprintf(format, args...),
		}
	}

	if block.Index != position {
		return fail(IndexMismatch, "got %d, exp %d", block.Index, position)
	}

	switch prev {
	case nil:
		if block.PrevHash != database.GenesisPrevHash {
			return fail(LinkBroken, "genesis prev hash got %q, exp %q", block.PrevHash, database.GenesisPrevHash)
		}

	default:
		if block.PrevHash != prev.Hash {
			return fail(LinkBroken, "prev hash got %s, exp %s", block.PrevHash, prev.Hash)
		}
	}

	if hash := block.ComputeHash(v.hasher); hash != block.Hash {
		return fail(HashMismatch, "got %s, exp %s", block.Hash, hash)
	}

	if !pow.IsSolved(block.Hash, block.Difficulty) {
		return fail(DifficultyNotMet, "hash %s does not have %d leading zeros", block.Hash, block.Difficulty)
	}

	if prev != nil && block.Difficulty < v.minDifficulty {
		return fail(DifficultyNotMet, "difficulty %d is below the minimum %d", block.Difficulty, v.minDifficulty)
	}

	if prev != nil && block.TimeStamp < prev.TimeStamp {
		return fail(TimestampRegressed, "timestamp %s is before parent %s", block.Time(), prev.Time())
	}

	return nil
}
