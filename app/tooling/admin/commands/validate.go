package commands

import (
	"fmt"

	"github.com/ardanlabs/notary/foundation/ledger/validator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func validateCmd(log *zap.SugaredLogger, cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Walk the chain and report the first corrupted block.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			// Opening the ledger validates the stored blocks.
			lgr, err := cfg.open(cmd.Context(), log)
			if err != nil {
				if ie := validator.GetIntegrityError(err); ie != nil {
					fmt.Fprintf(out, "INVALID: blk[%d] %s\n", ie.Index, ie.Reason)
				}
				return err
			}
			defer lgr.Close()

			if err := lgr.Notary.Validate(); err != nil {
				return err
			}

			fmt.Fprintf(out, "VALID: %d blocks\n", lgr.Chain.Length())

			return nil
		},
	}
}
