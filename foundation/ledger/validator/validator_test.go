package validator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ardanlabs/notary/foundation/ledger/chain"
	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
	"github.com/ardanlabs/notary/foundation/ledger/validator"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

// buildChain returns the blocks of a chain with genesis and n appended
// blocks, all mined at the specified difficulty.
func buildChain(t *testing.T, n int, difficulty uint) []database.Block {
	t.Helper()

	ctx := context.Background()

	c, err := chain.New(chain.Config{GenesisDifficulty: difficulty})
	ifErrFailNow(t, err)

	_, err = c.Genesis(ctx)
	ifErrFailNow(t, err)

	for i := range n {
		_, err := c.Append(ctx, digest.SHA256.Sum([]byte(fmt.Sprintf("document %d", i))), difficulty)
		ifErrFailNow(t, err)
	}

	return c.Blocks()
}

// =============================================================================

func Test_ValidChain(t *testing.T) {
	v := validator.New(digest.SHA256)

	if err := v.Validate(nil); err != nil {
		t.Fatalf("Should accept an empty chain: %s", err)
	}

	if err := v.Validate(buildChain(t, 5, 1)); err != nil {
		t.Fatalf("Should accept a chain built through genesis and appends: %s", err)
	}
}

func Test_SingleFieldTamper(t *testing.T) {
	type table struct {
		name   string
		reason validator.Reason
		mutate func(b *database.Block)
	}

	tt := []table{
		{
			name:   "payload",
			reason: validator.HashMismatch,
			mutate: func(b *database.Block) { b.PayloadDigest = digest.SHA256.Sum([]byte("forged")) },
		},
		{
			name:   "nonce",
			reason: validator.HashMismatch,
			mutate: func(b *database.Block) { b.Nonce++ },
		},
		{
			name:   "timestamp",
			reason: validator.HashMismatch,
			mutate: func(b *database.Block) { b.TimeStamp++ },
		},
		{
			name:   "hash",
			reason: validator.HashMismatch,
			mutate: func(b *database.Block) { b.Hash = digest.SHA256.Sum([]byte(b.Hash)) },
		},
		{
			name:   "prev-hash",
			reason: validator.LinkBroken,
			mutate: func(b *database.Block) { b.PrevHash = digest.SHA256.Sum([]byte(b.PrevHash)) },
		},
		{
			name:   "index",
			reason: validator.IndexMismatch,
			mutate: func(b *database.Block) { b.Index += 10 },
		},
		{
			name:   "raise-difficulty",
			reason: validator.HashMismatch,
			mutate: func(b *database.Block) { b.Difficulty = 64 },
		},
		{
			name:   "lower-difficulty",
			reason: validator.HashMismatch,
			mutate: func(b *database.Block) { b.Difficulty-- },
		},
	}

	blocks := buildChain(t, 3, 1)
	v := validator.New(digest.SHA256)

	t.Log("Given the need to detect a single modified field.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				for index := range blocks {
					t.Logf("\tTest %d:\tWhen modifying the %s of block %d.", testID, tst.name, index)
					{
						tampered := make([]database.Block, len(blocks))
						copy(tampered, blocks)
						tst.mutate(&tampered[index])

						err := v.Validate(tampered)
						ie := validator.GetIntegrityError(err)
						if ie == nil {
							t.Fatalf("\t%s\tTest %d:\tShould get an integrity error: %v", failed, testID, err)
						}

						if !errors.Is(err, validator.ErrIntegrity) {
							t.Fatalf("\t%s\tTest %d:\tShould match ErrIntegrity.", failed, testID)
						}

						if ie.Index != uint64(index) {
							t.Fatalf("\t%s\tTest %d:\tShould report index %d, got %d.", failed, testID, index, ie.Index)
						}

						if ie.Reason != tst.reason {
							t.Fatalf("\t%s\tTest %d:\tShould report %s, got %s.", failed, testID, tst.reason, ie.Reason)
						}
						t.Logf("\t%s\tTest %d:\tShould report %s at exactly index %d.", success, testID, tst.reason, index)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_TimestampRegressed(t *testing.T) {
	ctx := context.Background()
	h := digest.SHA256

	mine := func(index uint64, payload string, prev string, ts int64) database.Block {
		sol, err := pow.Solve(ctx, h, database.Header(index, payload, prev, ts, 1), 1)
		ifErrFailNow(t, err)

		return database.Block{
			Index:         index,
			TimeStamp:     ts,
			PayloadDigest: payload,
			PrevHash:      prev,
			Difficulty:    1,
			Nonce:         sol.Nonce,
			Hash:          sol.Hash,
		}
	}

	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()

	genesis := mine(0, "", database.GenesisPrevHash, now)
	first := mine(1, h.Sum([]byte("first")), genesis.Hash, now+10)
	second := mine(2, h.Sum([]byte("second")), first.Hash, now+5)

	err := validator.New(h).Validate([]database.Block{genesis, first, second})
	ie := validator.GetIntegrityError(err)
	if ie == nil || ie.Index != 2 || ie.Reason != validator.TimestampRegressed {
		t.Fatalf("Should report TimestampRegressed at index 2, got %v", err)
	}
}

func Test_MinDifficulty(t *testing.T) {
	blocks := buildChain(t, 2, 1)

	if err := validator.New(digest.SHA256, validator.WithMinDifficulty(1)).Validate(blocks); err != nil {
		t.Fatalf("Should accept blocks that meet the minimum: %s", err)
	}

	err := validator.New(digest.SHA256, validator.WithMinDifficulty(2)).Validate(blocks)
	ie := validator.GetIntegrityError(err)
	if ie == nil || ie.Index != 1 || ie.Reason != validator.DifficultyNotMet {
		t.Fatalf("Should report DifficultyNotMet at index 1, got %v", err)
	}
}

func Test_TrustedPrefix(t *testing.T) {
	blocks := buildChain(t, 4, 1)
	v := validator.New(digest.SHA256)

	trusted, err := v.TrustedPrefix(blocks)
	if err != nil || len(trusted) != len(blocks) {
		t.Fatalf("Should trust an intact chain, got %d blocks: %v", len(trusted), err)
	}

	blocks[3].PayloadDigest = digest.SHA256.Sum([]byte("forged"))

	trusted, err = v.TrustedPrefix(blocks)
	if validator.GetIntegrityError(err) == nil {
		t.Fatalf("Should get an integrity error, got %v", err)
	}

	if len(trusted) != 3 {
		t.Fatalf("Should trust the 3 blocks before the corruption, got %d", len(trusted))
	}
}

func Test_WrongHasher(t *testing.T) {
	blocks := buildChain(t, 1, 0)

	err := validator.New(digest.Keccak256).Validate(blocks)
	ie := validator.GetIntegrityError(err)
	if ie == nil || ie.Index != 0 || ie.Reason != validator.HashMismatch {
		t.Fatalf("Should report HashMismatch at genesis with the wrong hasher, got %v", err)
	}
}

// remine recomputes the proof of work for the block at its recorded
// difficulty and links it to prev.
func remine(t *testing.T, block database.Block, prev database.Block) database.Block {
	t.Helper()

	block.PrevHash = prev.Hash

	sol, err := pow.Solve(context.Background(), digest.SHA256, block.Header(), block.Difficulty)
	ifErrFailNow(t, err)

	block.Nonce = sol.Nonce
	block.Hash = sol.Hash

	return block
}

func Test_RewrittenHistory(t *testing.T) {
	blocks := buildChain(t, 3, 2)

	t.Log("Given the need to reject a history rewritten without the work.")
	{
		t.Log("\tWhen block 1's payload is swapped and every later block is re-mined at difficulty 0.")
		{
			forged := make([]database.Block, len(blocks))
			copy(forged, blocks)

			forged[1].PayloadDigest = digest.SHA256.Sum([]byte("forged"))
			for i := 1; i < len(forged); i++ {
				forged[i].Difficulty = 0
				forged[i] = remine(t, forged[i], forged[i-1])
			}

			if err := validator.New(digest.SHA256).Validate(forged); err != nil {
				t.Fatalf("\t%s\tShould be internally consistent without a policy: %v", failed, err)
			}
			t.Logf("\t%s\tShould be internally consistent without a policy.", success)

			err := validator.New(digest.SHA256, validator.WithMinDifficulty(2)).Validate(forged)
			ie := validator.GetIntegrityError(err)
			if ie == nil || ie.Index != 1 || ie.Reason != validator.DifficultyNotMet {
				t.Fatalf("\t%s\tShould report DifficultyNotMet at index 1, got %v", failed, err)
			}
			t.Logf("\t%s\tShould report DifficultyNotMet at index 1 under the minimum.", success)
		}

		t.Log("\tWhen only the difficulty field of block 2 is lowered.")
		{
			forged := make([]database.Block, len(blocks))
			copy(forged, blocks)
			forged[2].Difficulty = 0

			err := validator.New(digest.SHA256, validator.WithMinDifficulty(2)).Validate(forged)
			ie := validator.GetIntegrityError(err)
			if ie == nil || ie.Index != 2 || ie.Reason != validator.HashMismatch {
				t.Fatalf("\t%s\tShould report HashMismatch at index 2, got %v", failed, err)
			}
			t.Logf("\t%s\tShould report HashMismatch at index 2.", success)
		}
	}
}

func Test_UnsolvedBlock(t *testing.T) {
	blocks := buildChain(t, 1, 1)

	// An honest hash that was never mined for its recorded difficulty.
	block := blocks[1]
	block.Difficulty = 8
	block.Nonce = 0
	block.Hash = block.ComputeHash(digest.SHA256)
	if pow.IsSolved(block.Hash, block.Difficulty) {
		t.Skip("nonce 0 happens to solve difficulty 8")
	}
	blocks[1] = block

	err := validator.New(digest.SHA256).Validate(blocks)
	ie := validator.GetIntegrityError(err)
	if ie == nil || ie.Index != 1 || ie.Reason != validator.DifficultyNotMet {
		t.Fatalf("Should report DifficultyNotMet at index 1, got %v", err)
	}
}
