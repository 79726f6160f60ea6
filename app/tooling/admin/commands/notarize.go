package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func notarizeCmd(log *zap.SugaredLogger, cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "notarize <file>",
		Short: "Anchor a document in the ledger and print its receipt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}

			lgr, err := cfg.open(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer lgr.Close()

			block, err := lgr.Notary.NotarizeBlock(cmd.Context(), document, cfg.difficulty)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Receipt: %s\n", block.Hash)
			fmt.Fprintf(out, "Block:   %d\n", block.Index)
			fmt.Fprintf(out, "Digest:  %s\n", block.PayloadDigest)
			fmt.Fprintf(out, "Nonce:   %d\n", block.Nonce)

			return nil
		},
	}
}
