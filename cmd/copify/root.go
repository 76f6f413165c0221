package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/copify/cmd/copify/commands"
	"github.com/walteh/copify/cmd/copify/opts"
	"github.com/walteh/copify/pkg/config"
	"github.com/walteh/copify/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// newRootCmd creates the copify command tree. Console output goes to out,
// structured logs to logOut.
func newRootCmd(o *opts.RootOpts, out, logOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "copify",
		Short: "Collect the samples of Ableton Live projects into their folders",
		Long: `copify makes Ableton Live projects self-contained: every sample a project
references is copied (or moved) into the project's Samples/Imported folder and
the project file is rewritten to point at it. The mover job first relocates
project folders into a target.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, o, out, logOut)
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewRunCmd(o),
		commands.NewListCmd(o),
		commands.NewServeCmd(o),
		commands.NewVersionCmd(o),
	)
	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "", "job config file (.yaml, .json or .hcl)")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&o.Server, "server", "s", "", "run jobs on a copify server instead of in-process")
	cmd.PersistentFlags().IntVarP(&o.Workers, "workers", "w", 0, "parallel folder copies during a mover run")
	cmd.PersistentFlags().BoolVar(&o.Plain, "plain", false, "print a plain run log instead of the live view")
}

// setup configures logging and loads the config once flags are parsed
func setup(cmd *cobra.Command, o *opts.RootOpts, out, logOut io.Writer) error {
	level := zerolog.InfoLevel
	if o.Debug {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(logOut).Level(level).With().Timestamp().Logger()
	ctx := zlog.WithContext(cmd.Context())

	o.Out = out
	o.Logger = log.New(out, zlog)
	ctx = log.NewContext(ctx, o.Logger)

	if o.ConfigFile != "" {
		cfg, err := config.Load(ctx, o.ConfigFile)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		o.Config = cfg
		zlog.Debug().Str("config", cfg.String()).Msg("using config")
	}

	cmd.SetContext(ctx)
	return nil
}
