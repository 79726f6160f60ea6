package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func verifyCmd(log *zap.SugaredLogger, cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file> <receipt>",
		Short: "Prove a document was notarized under the receipt.",
		Args:  cobra.ExactArgs(2),
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

			block, err := lgr.Notary.Verify(cmd.Context(), document, args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Verified: blk[%d] notarized at %s\n", block.Index, block.Time().UTC().Format(time.RFC3339Nano))

			return nil
		},
	}
}
