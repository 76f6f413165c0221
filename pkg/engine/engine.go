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

// Package engine runs copify and mover jobs against Ableton Live projects on
// the local file system and reports per-project progress.
package engine

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/boundary"
	"github.com/walteh/copify/pkg/job"
	"github.com/walteh/copify/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

// DefaultWorkers bounds concurrent project relocation in a mover run.
const DefaultWorkers = 4

// Option configures an Engine
type Option func(*Engine)

// WithWorkers sets how many project folders a mover run relocates at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// 🏭 Engine executes jobs and publishes their progress through an Emitter
type Engine struct {
	emitter boundary.Emitter
	workers int
}

// New creates an engine that publishes on emitter
func New(emitter boundary.Emitter, opts ...Option) *Engine {
	e := &Engine{
		emitter: emitter,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// 🔌 Register installs the copify, mover and listing commands on local.
func Register(local *boundary.Local, opts ...Option) *Engine {
	e := New(local, opts...)

	local.Handle(job.Copify.Command, func(ctx context.Context, payload json.RawMessage) error {
		var inv job.Invocation[job.CopifySettings]
		if err := json.Unmarshal(payload, &inv); err != nil {
			return errors.Errorf("decoding %s settings: %w", job.Copify.Command, err)
		}
		return e.Copify(ctx, inv)
	})

	local.Handle(job.Mover.Command, func(ctx context.Context, payload json.RawMessage) error {
		var inv job.Invocation[job.MoverSettings]
		if err := json.Unmarshal(payload, &inv); err != nil {
			return errors.Errorf("decoding %s settings: %w", job.Mover.Command, err)
		}
		return e.Mover(ctx, inv)
	})

	local.HandleList(e.ListProjects)

	return e
}

// ListProjects backs the get_als_files command.
func (e *Engine) ListProjects(ctx context.Context, folder string) ([]string, error) {
	return FindProjects(ctx, folder)
}

// 📦 Copify collects the samples of every project under the configured folder.
func (e *Engine) Copify(ctx context.Context, inv job.Invocation[job.CopifySettings]) error {
	settings := inv.Settings
	if err := settings.Validate(); err != nil {
		return err
	}

	projects, err := FindProjects(ctx, settings.Folder)
	if err != nil {
		return err
	}

	return e.run(ctx, job.Copify, inv.RunID, projects, settings)
}

// 🚚 Mover relocates every project folder into the target, then collects the
// samples of the relocated projects.
func (e *Engine) Mover(ctx context.Context, inv job.Invocation[job.MoverSettings]) error {
	settings := inv.Settings
	if err := settings.Validate(); err != nil {
		return err
	}

	projects, err := FindProjects(ctx, settings.Folder)
	if err != nil {
		return err
	}

	relocated, err := Relocate(ctx, projects, settings.Target, settings.MoveProjectFiles, e.workers)
	if err != nil {
		return errors.Errorf("relocating projects: %w", err)
	}

	return e.run(ctx, job.Mover, inv.RunID, relocated, settings.CopifyFor())
}

// run processes projects in order, emitting one notification per project.
// Per-project failures are reported and never stop the run.
func (e *Engine) run(ctx context.Context, kind job.Kind, runID string, projects []string, settings job.CopifySettings) error {
	logger := zerolog.Ctx(ctx).With().Str("command", kind.Command).Str("run_id", runID).Logger()
	logger.Info().Int("projects", len(projects)).Msg("starting")

	for i, project := range projects {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("run interrupted: %w", err)
		}

		percent := progress.Percent(i, len(projects))

		var n progress.Notification
		switch {
		case !ShouldRun(project, settings.ExcludeFiles):
			n = progress.Skipped(project, percent)
		default:
			if err := ProcessProject(ctx, project, settings); err != nil {
				logger.Warn().Err(err).Str("project", project).Msg("project failed")
				n = progress.Failed(project, percent, err.Error())
			} else {
				n = progress.Succeeded(project, percent)
			}
		}

		e.emitter.Emit(kind.Event, n.WithRunID(runID))
	}

	logger.Info().Msg("finished")
	return nil
}

// 🎛️ ProcessProject collects the samples of a single project. Projects inside
// a Backup folder are left alone.
func ProcessProject(ctx context.Context, project string, settings job.CopifySettings) error {
	if IsBackupFolder(project) {
		return nil
	}

	if settings.CreateBackup {
		backup, err := CreateBackup(project)
		if err != nil {
			return err
		}
		zerolog.Ctx(ctx).Debug().Str("backup", backup).Msg("created backup")
	}

	doc, err := ReadProject(project)
	if err != nil {
		return err
	}

	if _, err := RewriteSampleRefs(ctx, doc, filepath.Dir(project), settings); err != nil {
		return err
	}

	return WriteProject(project, doc)
}
