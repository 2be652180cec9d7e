package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"playtesting-bot/internal/config"
	"playtesting-bot/internal/export"
	"playtesting-bot/internal/logger"
)

// NewExportCmd writes a server's recorded results to an .xlsx file.
func NewExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <server> <file.xlsx>",
		Short: "Export recorded playtest results to a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, nil)

			st, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.close()

			serverID, path := args[0], args[1]
			results, err := st.results.ServerResults(ctx, serverID)
			if err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := export.WriteWorkbook(f, serverID, results, st.sealer); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d buzzes and %d bonus parts to %s\n", len(results.Buzzes), len(results.BonusParts), path)
			return nil
		},
	}
}
