package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trading-journal/internal/api"
)

// addServeCommand adds the HTTP server command.
func addServeCommand(rootCmd *cobra.Command, app *App) {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over HTTP",
		Long: `Serve the JSON API. Requests authenticate with HTTP basic auth using
an account's email and password. Prometheus metrics are exposed on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			cfg := api.Config{
				Addr:            app.Config.Server.Addr,
				ReadTimeout:     app.Config.Server.ReadTimeout,
				WriteTimeout:    app.Config.Server.WriteTimeout,
				ShutdownTimeout: app.Config.Server.ShutdownTimeout,
			}
			if addr != "" {
				cfg.Addr = addr
			}

			server := api.NewServer(svc.Services, app.Logger)
			return server.ListenAndServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	rootCmd.AddCommand(cmd)
}
