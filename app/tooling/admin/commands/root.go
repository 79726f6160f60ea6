// Package commands contains the admin commands for working with a ledger
// directly through its storage.
package commands

import (
	"context"
	"fmt"

	"github.com/ardanlabs/notary/business/core/ledger"
	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// config holds the values of the persistent flags.
type config struct {
	storage           string
	dbPath            string
	digest            string
	difficulty        uint
	genesisDifficulty uint
	minDifficulty     uint
	maxDifficulty     uint
	maxTrials         uint64
	workers           int
	verbose           bool
}

// NewRootCmd constructs the admin command tree. Ledger events are written to
// the logger when the verbose flag is set.
func NewRootCmd(log *zap.SugaredLogger) *cobra.Command {
	var cfg config

	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Administer a notarization ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfg.storage, "storage", "s", ledger.StorageLevelDB, "Storage engine: memory, disk or leveldb.")
	flags.StringVarP(&cfg.dbPath, "db-path", "p", "zblock/ledger", "Path to the ledger storage.")
	flags.StringVarP(&cfg.digest, "digest", "d", digest.NameSHA256, fmt.Sprintf("Digest algorithm: %v.", digest.Names()))
	flags.UintVar(&cfg.difficulty, "difficulty", 2, "Difficulty documents are notarized at.")
	flags.UintVar(&cfg.genesisDifficulty, "genesis-difficulty", 0, "Difficulty of the genesis block for a new ledger.")
	flags.UintVar(&cfg.minDifficulty, "min-difficulty", 0, "Minimum difficulty every block after genesis must meet, 0 uses --difficulty.")
	flags.UintVar(&cfg.maxDifficulty, "max-difficulty", 0, "Highest difficulty a document can be notarized at, 0 allows any.")
	flags.Uint64Var(&cfg.maxTrials, "max-trials", 0, "Nonces tried before giving up, 0 searches without bound.")
	flags.IntVarP(&cfg.workers, "workers", "w", 0, "Proof of work workers, 0 uses one per cpu.")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "Log ledger events.")

	rootCmd.AddCommand(
		notarizeCmd(log, &cfg),
		verifyCmd(log, &cfg),
		validateCmd(log, &cfg),
		blocksCmd(log, &cfg),
		solveCmd(log, &cfg),
	)

	return rootCmd
}

// evHandler returns the event handler for the ledger packages.
func (cfg *config) evHandler(log *zap.SugaredLogger) func(v string, args ...any) {
	if !cfg.verbose {
		return nil
	}

	return func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}
}

// open opens the ledger described by the flags.
func (cfg *config) open(ctx context.Context, log *zap.SugaredLogger) (*ledger.Ledger, error) {
	return ledger.Open(ctx, ledger.Config{
		Storage:           cfg.storage,
		DBPath:            cfg.dbPath,
		Digest:            cfg.digest,
		Difficulty:        cfg.difficulty,
		GenesisDifficulty: cfg.genesisDifficulty,
		MinDifficulty:     cfg.minDifficulty,
		MaxDifficulty:     cfg.maxDifficulty,
		MaxTrials:         cfg.maxTrials,
		Workers:           cfg.workers,
		EvHandler:         cfg.evHandler(log),
	})
}
