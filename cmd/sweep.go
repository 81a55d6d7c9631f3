package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolbox_back/components"
)

func newSweepCommand(v *viper.Viper) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove component files that no record points at",
		Long: `Remove component files that no record points at and that are older than the
grace period. Records whose file is missing are listed but never deleted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindLocal(v, cmd, map[string]string{"grace": "sweep.grace"}); err != nil {
				return err
			}

			a, err := bootstrap(cmd.Context(), v, needs{blobs: true})
			if err != nil {
				return err
			}
			defer a.close()

			sweeper := components.NewSweeper(a.store, a.blobs, a.cfg.Sweep.Grace, a.log)
			report, err := sweeper.Sweep(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would be removed")
	cmd.Flags().Duration("grace", 0, "skip files modified within this window (default 1h)")
	return cmd
}
