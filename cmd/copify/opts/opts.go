package opts

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/config"
	"github.com/walteh/copify/pkg/engine"
	"github.com/walteh/copify/pkg/log"
	"github.com/walteh/copify/pkg/remote"
	"github.com/walteh/copify/pkg/transport"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	// Flags
	ConfigFile string
	Debug      bool
	Server     string
	Workers    int
	Plain      bool

	// Loaded once flags are parsed; Config is nil without --config
	Config *config.File
	Logger *log.Logger
	Out    io.Writer

	// Releases answers `version --check`; nil uses the registered github provider
	Releases remote.Provider
}

// Interactive reports whether console output goes to a terminal
func (o *RootOpts) Interactive() bool {
	f, ok := o.Out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ServerURL returns the remote server jobs run on, empty for in-process
func (o *RootOpts) ServerURL() string {
	if o.Server != "" {
		return o.Server
	}
	if o.Config != nil {
		return o.Config.Server
	}
	return ""
}

// 🔌 Boundary returns the execution boundary for this invocation and a func
// that releases it. onLost, if set, is called when a remote event stream
// fails.
func (o *RootOpts) Boundary(ctx context.Context, onLost func(error)) (boundary.Boundary, func(), error) {
	if url := o.ServerURL(); url != "" {
		clientOpts := []transport.ClientOption{transport.WithLogger(*zerolog.Ctx(ctx))}
		if onLost != nil {
			clientOpts = append(clientOpts, transport.WithDisconnectHandler(func(_ string, err error) {
				onLost(err)
			}))
		}
		client, err := transport.NewClient(url, clientOpts...)
		if err != nil {
			return nil, nil, errors.Errorf("connecting to %s: %w", url, err)
		}
		return client, func() {}, nil
	}

	local := boundary.NewLocal()
	engineOpts := []engine.Option{}
	if o.Workers > 0 {
		engineOpts = append(engineOpts, engine.WithWorkers(o.Workers))
	}
	engine.Register(local, engineOpts...)

	return local, func() { _ = local.Close() }, nil
}

// ReleaseProvider returns the provider used to look up published releases
func (o *RootOpts) ReleaseProvider() (remote.Provider, error) {
	if o.Releases != nil {
		return o.Releases, nil
	}
	return remote.GetProvider("github")
}
