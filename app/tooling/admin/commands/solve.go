package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func solveCmd(log *zap.SugaredLogger, cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "solve <header> <difficulty>",
		Short: "Search for the lowest nonce that solves the header at the difficulty.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			difficulty, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("parsing difficulty: %w", err)
			}

			hasher, err := digest.Lookup(cfg.digest)
			if err != nil {
				return err
			}

			engine := pow.NewEngine(pow.Config{
				Hasher:    hasher,
				Workers:   cfg.workers,
				EvHandler: cfg.evHandler(log),
			})

			trials := cfg.maxTrials
			if trials == 0 {
				trials = pow.Unbounded
			}

			start := time.Now()

			sol, err := engine.SolveBounded(cmd.Context(), []byte(args[0]), uint(difficulty), trials)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Nonce:   %d\n", sol.Nonce)
			fmt.Fprintf(out, "Hash:    %s\n", sol.Hash)
			fmt.Fprintf(out, "Trials:  %d\n", sol.Trials())
			fmt.Fprintf(out, "Elapsed: %s\n", time.Since(start))

			return nil
		},
	}
}
