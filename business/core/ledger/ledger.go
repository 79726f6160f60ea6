// Package ledger wires the ledger packages together from configuration. It
// opens the configured storage engine, builds the proof of work engine and
// chain over it, mines the genesis block for a fresh store and constructs
// the notary used by the service and tooling.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/notary/foundation/ledger/chain"
	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/ardanlabs/notary/foundation/ledger/notary"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
	"github.com/ardanlabs/notary/foundation/ledger/storage/disk"
	"github.com/ardanlabs/notary/foundation/ledger/storage/leveldb"
	"github.com/ardanlabs/notary/foundation/ledger/storage/memory"
)

// Set of storage engines that can be configured.
const (
	StorageMemory  = "memory"
	StorageDisk    = "disk"
	StorageLevelDB = "leveldb"
)

// ErrUnknownStorage is returned when the storage engine is not supported.
var ErrUnknownStorage = errors.New("unknown storage engine")

// Config represents the configuration required to open a ledger. A zero
// MinDifficulty takes the value of Difficulty so every block after genesis
// carries at least the work documents are notarized with. A zero
// MaxDifficulty allows any difficulty the digest supports.
type Config struct {
	Storage           string
	DBPath            string
	Digest            string
	Difficulty        uint
	GenesisDifficulty uint
	MinDifficulty     uint
	MaxDifficulty     uint
	MaxTrials         uint64
	Workers           int
	Now               func() time.Time
	EvHandler         func(v string, args ...any)
}

// Ledger holds the chain and the notary built over it.
type Ledger struct {
	Chain  *chain.Chain
	Notary *notary.Notary
}

// Open constructs the ledger from the configuration. When the storage holds
// no blocks the genesis block is mined before the ledger is returned.
func Open(ctx context.Context, cfg Config) (*Ledger, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	minDifficulty := cfg.MinDifficulty
	if minDifficulty == 0 {
		minDifficulty = cfg.Difficulty
	}

	hasher, err := digest.Lookup(cfg.Digest)
	if err != nil {
		return nil, err
	}

	strg, err := OpenStorage(cfg.Storage, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	engine := pow.NewEngine(pow.Config{
		Hasher:    hasher,
		Workers:   cfg.Workers,
		EvHandler: ev,
	})

	ch, err := chain.New(chain.Config{
		Hasher:            hasher,
		Engine:            engine,
		Storage:           strg,
		GenesisDifficulty: cfg.GenesisDifficulty,
		MinDifficulty:     minDifficulty,
		MaxTrials:         cfg.MaxTrials,
		Now:               cfg.Now,
		EvHandler:         ev,
	})
	if err != nil {
		strg.Close()
		return nil, err
	}

	if ch.Length() == 0 {
		if _, err := ch.Genesis(ctx); err != nil {
			ch.Close()
			return nil, fmt.Errorf("genesis: %w", err)
		}
	}

	ntry, err := notary.New(notary.Config{
		Chain:         ch,
		Difficulty:    cfg.Difficulty,
		MinDifficulty: minDifficulty,
		MaxDifficulty: cfg.MaxDifficulty,
	})
	if err != nil {
		ch.Close()
		return nil, err
	}

	l := Ledger{
		Chain:  ch,
		Notary: ntry,
	}

	return &l, nil
}

// Close releases the storage underneath the chain.
func (l *Ledger) Close() error {
	return l.Chain.Close()
}

// OpenStorage constructs the named storage engine over the path. The memory
// engine ignores the path.
func OpenStorage(kind string, dbPath string) (database.Serializer, error) {
	switch strings.ToLower(kind) {
	case StorageMemory, "":
		return memory.New()

	case StorageDisk:
		return disk.New(dbPath)

	case StorageLevelDB:
		return leveldb.New(dbPath)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, kind)
}
