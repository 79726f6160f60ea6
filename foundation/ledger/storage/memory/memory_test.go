package memory_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/ardanlabs/notary/foundation/ledger/storage/memory"
)

func Test_WriteAndIterate(t *testing.T) {
	m, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to construct memory storage: %s", err)
	}

	for i := range uint64(3) {
		if err := m.Write(database.BlockData{Index: i, Hash: string(rune('a' + i))}); err != nil {
			t.Fatalf("Should be able to write block %d: %s", i, err)
		}
	}

	if err := m.Write(database.BlockData{Index: 7}); !errors.Is(err, database.ErrOutOfOrder) {
		t.Fatalf("Should reject an out of order block, got %v", err)
	}

	blocks, err := database.ReadAll(m)
	if err != nil {
		t.Fatalf("Should be able to read all blocks: %s", err)
	}

	if len(blocks) != 3 {
		t.Fatalf("Should read 3 blocks, got %d", len(blocks))
	}

	for i, block := range blocks {
		if block.Index != uint64(i) {
			t.Fatalf("Should read blocks in order, got %d at %d", block.Index, i)
		}
	}

	if _, err := m.GetBlock(3); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound, got %v", err)
	}
}
