package commands

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/notary/foundation/ledger/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func blocksCmd(log *zap.SugaredLogger, cfg *config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Print the blocks in the chain.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lgr, err := cfg.open(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer lgr.Close()

			out := cmd.OutOrStdout()
			blocks := lgr.Chain.Blocks()

			if asJSON {
				enc := json.NewEncoder(out)
				for _, block := range blocks {
					if err := enc.Encode(database.NewBlockData(block)); err != nil {
						return err
					}
				}
				return nil
			}

			for _, block := range blocks {
				fmt.Fprintf(out, "blk[%d] hash[%s] prev[%s] difficulty[%d] nonce[%d] payload[%s]\n",
					block.Index, block.Hash, block.PrevHash, block.Difficulty, block.Nonce, block.PayloadDigest)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Print each block as a line of JSON.")

	return cmd
}
