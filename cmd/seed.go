package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolbox_back/catalog"
)

func newSeedCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample categories and preset tools",
		Long:  "Insert the sample categories and preset tools. Running it again inserts only what is missing.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), v, needs{})
			if err != nil {
				return err
			}
			defer a.close()

			result, err := catalog.Seed(cmd.Context(), a.store, time.Now(), nil)
			if err != nil {
				return err
			}
			a.log.Info("seed finished", "categories", result.Categories, "tools", result.Tools)
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d categories and %d tools\n", result.Categories, result.Tools)
			return nil
		},
	}
}
