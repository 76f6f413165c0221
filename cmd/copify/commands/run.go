// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/copify/cmd/copify/opts"
	"github.com/walteh/copify/pkg/coordinator"
	"github.com/walteh/copify/pkg/job"
	"github.com/walteh/copify/pkg/log"
	"github.com/walteh/copify/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// settingsFlags holds the job settings given on the command line. Only flags
// the user set override the config file.
type settingsFlags struct {
	folder           string
	target           string
	serumNoises      bool
	moveProjectFiles bool
	moveSamples      bool
	createBackup     bool
	exclude          []string
}

func (f *settingsFlags) addCommon(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.folder, "folder", "f", "", "folder containing Ableton Live projects")
	cmd.Flags().BoolVar(&f.serumNoises, "serum-noises", false, "leave Serum noise samples where they are")
	cmd.Flags().BoolVar(&f.moveSamples, "move-samples", false, "move samples instead of copying them")
	cmd.Flags().BoolVar(&f.createBackup, "create-backup", false, "write a .als.bak copy before changing a project")
	cmd.Flags().StringSliceVarP(&f.exclude, "exclude", "e", nil, "skip projects whose path matches (glob or substring)")
}

func (f *settingsFlags) addMover(cmd *cobra.Command) {
	f.addCommon(cmd)
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "folder the projects are relocated into")
	cmd.Flags().BoolVar(&f.moveProjectFiles, "move-project-files", false, "move project folders instead of copying them")
}

// applyCommon overrides the settings both job kinds share
func (f *settingsFlags) applyCommon(cmd *cobra.Command, folder *string, serumNoises, moveSamples, createBackup *bool, exclude *[]string) {
	fl := cmd.Flags()
	if fl.Changed("folder") {
		*folder = f.folder
	}
	if fl.Changed("serum-noises") {
		*serumNoises = f.serumNoises
	}
	if fl.Changed("move-samples") {
		*moveSamples = f.moveSamples
	}
	if fl.Changed("create-backup") {
		*createBackup = f.createBackup
	}
	if fl.Changed("exclude") {
		*exclude = f.exclude
	}
}

func (f *settingsFlags) applyCopify(cmd *cobra.Command, s *job.CopifySettings) {
	f.applyCommon(cmd, &s.Folder, &s.SerumNoises, &s.MoveSamples, &s.CreateBackup, &s.ExcludeFiles)
}

func (f *settingsFlags) applyMover(cmd *cobra.Command, s *job.MoverSettings) {
	f.applyCommon(cmd, &s.Folder, &s.SerumNoises, &s.MoveSamples, &s.CreateBackup, &s.ExcludeFiles)

	fl := cmd.Flags()
	if fl.Changed("target") {
		s.Target = f.target
	}
	if fl.Changed("move-project-files") {
		s.MoveProjectFiles = f.moveProjectFiles
	}
}

// NewRunCmd creates the run command and its per-job subcommands
func NewRunCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the job described by the config file",
		Long: `Run starts a copify or mover job and follows its progress until the
last project is processed.

Without a subcommand the job kind and settings come from --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.Config == nil {
				return errors.Errorf("no job given: use 'run copify', 'run mover' or pass --config")
			}
			switch o.Config.Kind {
			case job.Mover.Command:
				return runJob(cmd.Context(), o, job.Mover, *o.Config.Mover, moverRun(*o.Config.Mover))
			default:
				return runJob(cmd.Context(), o, job.Copify, *o.Config.Copify, copifyRun(*o.Config.Copify))
			}
		},
	}

	cmd.AddCommand(newRunCopifyCmd(o), newRunMoverCmd(o))
	return cmd
}

func newRunCopifyCmd(o *opts.RootOpts) *cobra.Command {
	flags := &settingsFlags{}
	cmd := &cobra.Command{
		Use:   "copify",
		Short: "Copy every referenced sample into its project folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var settings job.CopifySettings
			if o.Config != nil && o.Config.Copify != nil {
				settings = *o.Config.Copify
			}
			flags.applyCopify(cmd, &settings)
			if err := settings.Validate(); err != nil {
				return errors.Errorf("copify: %w", err)
			}
			return runJob(cmd.Context(), o, job.Copify, settings, copifyRun(settings))
		},
	}
	flags.addCommon(cmd)
	return cmd
}

func newRunMoverCmd(o *opts.RootOpts) *cobra.Command {
	flags := &settingsFlags{}
	cmd := &cobra.Command{
		Use:   "mover",
		Short: "Relocate project folders into a target, then copify them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var settings job.MoverSettings
			if o.Config != nil && o.Config.Mover != nil {
				settings = *o.Config.Mover
			}
			flags.applyMover(cmd, &settings)
			if err := settings.Validate(); err != nil {
				return errors.Errorf("mover: %w", err)
			}
			return runJob(cmd.Context(), o, job.Mover, settings, moverRun(settings))
		},
	}
	flags.addMover(cmd)
	return cmd
}

func copifyRun(s job.CopifySettings) log.Run {
	return log.Run{Title: job.Copify.Title(), Folder: s.Folder}
}

func moverRun(s job.MoverSettings) log.Run {
	return log.Run{Title: job.Mover.Title(), Folder: s.Folder, Target: s.Target}
}

// 🚀 runJob starts one run of kind and blocks until it completes or fails to start
func runJob[C any](ctx context.Context, o *opts.RootOpts, kind job.Kind, settings C, run log.Run) error {
	logger := zerolog.Ctx(ctx)

	lost := make(chan error, 1)
	b, release, err := o.Boundary(ctx, func(err error) {
		select {
		case lost <- err:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer release()

	finished := make(chan struct{})
	var once sync.Once

	coordOpts := []coordinator.Option{coordinator.WithLogger(*logger)}
	if o.Plain {
		rl := &runLog{ctx: ctx, logger: o.Logger, run: run}
		coordOpts = append(coordOpts, coordinator.WithObserver(rl.observe))
	} else {
		r := status.New(kind, o.Out, status.WithLogger(*logger), status.WithProgressBar(o.Interactive()))
		coordOpts = append(coordOpts, coordinator.WithObserver(r.Observer()))
	}
	coordOpts = append(coordOpts, coordinator.WithObserver(func(s coordinator.RunState) {
		if s.Started && (s.Failed() || !s.Running()) {
			once.Do(func() { close(finished) })
		}
	}))

	c := coordinator.New[C](kind, b, coordOpts...)

	return coordinator.Session(ctx, c, func(ctx context.Context) error {
		c.Start(ctx, settings)

		select {
		case <-finished:
		case err := <-lost:
			return errors.Errorf("lost progress events of %s: %w", kind.Command, err)
		case <-ctx.Done():
			return errors.Errorf("waiting for %s: %w", kind.Command, ctx.Err())
		}
		c.Wait()

		state := c.State()
		if state.Failed() {
			return errors.Errorf("%s could not start: %s", kind.Command, state.ConfigurationError)
		}

		summary := state.Summary()
		logger.Info().
			Str("run_id", state.RunID).
			Int("succeeded", summary.Succeeded).
			Int("skipped", summary.Skipped).
			Int("failed", summary.Failed).
			Msg("run complete")
		return nil
	})
}
