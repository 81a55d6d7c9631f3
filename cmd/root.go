// Package cmd holds the toolbox command line: serve runs the server, seed inserts sample data
// and sweep removes orphaned files.
//
// Settings come from flags, then the environment (including .env), then defaults.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolbox_back/config"
)

// persistentFlags maps every flag shared by all subcommands to its config key.
var persistentFlags = map[string]string{
	"database-driver": "database.driver",
	"database-dsn":    "database.dsn",
	"upload-dir":      "upload.dir",
	"log-mode":        "log_mode",
}

// Execute runs the toolbox CLI.
func Execute() error {
	config.LoadEnvFile()
	return NewRootCommand().Execute()
}

// NewRootCommand builds a fresh command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:   "toolbox",
		Short: "Tool directory with uploadable HTML components",
		Long: `toolbox serves a directory of preset tools and uploaded HTML components.

Commands:
  toolbox serve             Start the HTTP server
  toolbox seed              Insert the sample categories and tools
  toolbox sweep --dry-run   Report component files no record points at`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.BindFlags(v, cmd.Flags(), persistentFlags)
		},
	}

	flags := root.PersistentFlags()
	flags.String("database-driver", "", "database driver: sqlite, mysql or postgres (inferred from the DSN when empty)")
	flags.String("database-dsn", "", "database DSN (default tools.db)")
	flags.String("upload-dir", "", "directory for component files when MinIO is not configured (default uploads)")
	flags.String("log-mode", "", "log mode: dev or prod")

	root.AddCommand(newServeCommand(v), newSeedCommand(v), newSweepCommand(v))
	return root
}

func bindLocal(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	return config.BindFlags(v, cmd.Flags(), keys)
}
