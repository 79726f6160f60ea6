// Package pow implements the Hashcash style proof of work used to gate the
// creation of blocks. A solution is the lowest nonce whose digest, computed
// over the header followed by the decimal nonce, starts with a difficulty
// number of '0' hex characters.
package pow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ardanlabs/notary/foundation/ledger/digest"
)

// Set of errors returned by the proof of work search.
var (
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrPoWNotFound       = errors.New("proof of work not found within trial budget")
)

// pollInterval is the number of nonces a search hashes between checks for
// cancellation and for a better solution found by another worker.
const pollInterval = 1024

// Unbounded represents a trial budget that covers the entire nonce space.
const Unbounded uint64 = math.MaxUint64

// =============================================================================

// Solution represents the result of a successful search.
type Solution struct {
	Nonce uint64 `json:"nonce"`
	Hash  string `json:"hash"`
}

// Trials returns the number of hashes a sequential scan performs to find
// this solution.
func (s Solution) Trials() uint64 {
	return s.Nonce + 1
}

// =============================================================================

// HashNonce computes the digest of the header followed by the decimal form
// of the nonce.
func HashNonce(h digest.Hasher, header []byte, nonce uint64) string {
	data := make([]byte, 0, len(header)+20)
	data = append(data, header...)
	data = strconv.AppendUint(data, nonce, 10)

	return h.Sum(data)
}

// IsSolved checks the hash has at least difficulty leading '0' characters.
// A difficulty of zero is satisfied by any hash.
func IsSolved(hash string, difficulty uint) bool {
	if difficulty > uint(len(hash)) {
		return false
	}

	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}

// CheckDifficulty validates the difficulty can be met by the hasher's digest.
func CheckDifficulty(h digest.Hasher, difficulty uint) error {
	if difficulty > uint(h.HexLen()) {
		return fmt.Errorf("%w: %d exceeds digest length %d", ErrInvalidDifficulty, difficulty, h.HexLen())
	}

	return nil
}

// Verify checks the nonce reproduces the hash for the header and that the
// hash meets the difficulty.
func Verify(h digest.Hasher, header []byte, nonce uint64, hash string, difficulty uint) error {
	expected := HashNonce(h, header, nonce)
	if expected != hash {
		return fmt.Errorf("hash mismatch, got %s, exp %s", hash, expected)
	}

	if !IsSolved(hash, difficulty) {
		return fmt.Errorf("hash %s does not have %d leading zeros", hash, difficulty)
	}

	return nil
}

// =============================================================================

// Solve scans nonces sequentially from zero until a solution is found or
// the context is cancelled.
func Solve(ctx context.Context, h digest.Hasher, header []byte, difficulty uint) (Solution, error) {
	return SolveBounded(ctx, h, header, difficulty, Unbounded)
}

// SolveBounded scans the nonces in [0, maxTrials) sequentially and returns
// ErrPoWNotFound if none of them is a solution.
func SolveBounded(ctx context.Context, h digest.Hasher, header []byte, difficulty uint, maxTrials uint64) (Solution, error) {
	if err := CheckDifficulty(h, difficulty); err != nil {
		return Solution{}, err
	}

	sol, found, err := scan(ctx, h, header, difficulty, 0, maxTrials, nil)
	if err != nil {
		return Solution{}, err
	}

	if !found {
		return Solution{}, fmt.Errorf("%w: trials[%d] difficulty[%d]", ErrPoWNotFound, maxTrials, difficulty)
	}

	return sol, nil
}

// scan hashes the nonces in [start, end) in order and stops at the first
// solution. The optional stop function is polled so the scan can give up
// once another worker has a better solution.
func scan(ctx context.Context, h digest.Hasher, header []byte, difficulty uint, start uint64, end uint64, stop func(nonce uint64) bool) (Solution, bool, error) {
	for nonce := start; nonce < end; nonce++ {
		if (nonce-start)%pollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Solution{}, false, err
			}

			if stop != nil && stop(nonce) {
				return Solution{}, false, nil
			}
		}

		hash := HashNonce(h, header, nonce)
		if IsSolved(hash, difficulty) {
			return Solution{Nonce: nonce, Hash: hash}, true, nil
		}
	}

	return Solution{}, false, nil
}
