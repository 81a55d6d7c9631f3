package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"toolbox_back/server"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindLocal(v, cmd, map[string]string{"port": "port", "gin-mode": "gin_mode"}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, v, needs{blobs: true, redis: true})
			if err != nil {
				return err
			}
			defer a.close()

			engine := server.New(server.Deps{
				Config: a.cfg,
				Log:    a.log,
				Store:  a.store,
				Blobs:  a.blobs,
				Redis:  a.redis,
				Now:    time.Now,
			})
			return server.Run(ctx, engine, ":"+a.cfg.Port, a.log)
		},
	}
	cmd.Flags().StringP("port", "p", "", "port to listen on (default 8080)")
	cmd.Flags().String("gin-mode", "", "gin mode: debug, release or test")
	return cmd
}
