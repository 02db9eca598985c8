/*
PURPOSE:
  `serve` command. Runs the HTTP service until SIGINT or SIGTERM.

RELATED FILES:
  - internal/server/server.go
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/load-estimator/internal/server"
)

var addrOverride string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve estimates over HTTP",
	Long: `Starts an HTTP server with:

  GET  /health            liveness check
  POST /api/v1/estimate   {"material","weight","distanceKm"} -> estimate JSON

Requests are rate limited per client IP (server.rate_limit per server.rate_window).
SIGINT or SIGTERM shuts the server down gracefully.`,
	Example: `  load-estimator serve --addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addrOverride != "" {
			cfg.Server.Addr = addrOverride
		}

		s, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		return server.New(cfg.Server, s.estimator).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addrOverride, "addr", "", "listen address (default :8080)")
}
