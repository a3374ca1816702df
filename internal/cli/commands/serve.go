package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/sqltype/internal/cli/config"
	"github.com/leapstack-labs/sqltype/internal/server"
	"github.com/leapstack-labs/sqltype/internal/service"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve type inference over HTTP",
		Long: `Start an HTTP server exposing /v1/analyze, /v1/analyze/batch,
/v1/normalize and /v1/schema. With --watch the schema is reloaded when its
files change; a failed reload keeps the previous schema.`,
		Example: `  sqltype serve --addr :8080 --schema db/ --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := cc.LoadService(ctx)
			if err != nil {
				return err
			}

			cfg := server.Config{
				Addr:              cc.Cfg.Server.Addr,
				ReadHeaderTimeout: cc.Cfg.Server.ReadHeaderTimeout,
				Service:           svc,
				Logger:            cc.Logger,
			}
			if cc.Cfg.Server.Watch {
				cfg.WatchPaths = cc.SchemaWatchPaths()
				cfg.Reload = func(ctx context.Context) (*service.Service, error) {
					return cc.LoadService(ctx)
				}
			}

			cc.Renderer.Println(cc.Renderer.Muted("listening on " + cfg.Addr))
			return server.New(cfg).Serve(ctx)
		},
	}

	// Bound to server.addr and server.watch by the config loader.
	cmd.Flags().String("addr", config.DefaultAddr, "Listen address")
	cmd.Flags().Bool("watch", false, "Reload the schema when its files change")

	return cmd
}
