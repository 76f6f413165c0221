package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/copify/cmd/copify/opts"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/engine"
	"github.com/walteh/copify/pkg/transport"
	"gitlab.com/tozd/go/errors"
)

// NewServeCmd creates the serve command
func NewServeCmd(o *opts.RootOpts) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run jobs for remote clients",
		Long: `Serve exposes the engine over HTTP. Clients start jobs with
POST /invoke/{command}, list projects with GET /items and follow progress on
the WebSocket at GET /events/{event}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			local := boundary.NewLocal()
			defer local.Close()

			engineOpts := []engine.Option{}
			if o.Workers > 0 {
				engineOpts = append(engineOpts, engine.WithWorkers(o.Workers))
			}
			engine.Register(local, engineOpts...)

			o.Logger.Header("serving on " + addr)

			srv := transport.NewServer(local, *zerolog.Ctx(ctx))
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return errors.Errorf("serving: %w", err)
			}
			o.Logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7373", "address to listen on")
	return cmd
}
