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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/job"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*File, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	name := strings.ToLower(filename)
	for _, p := range parsers {
		if p.CanParse(name) {
			return p
		}
	}
	return nil
}

// 📚 File is a job settings file
type File struct {
	// Kind names the job to run: "copify" or "mover". It may be left out when
	// exactly one settings section is present.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Server is the base URL of a remote copify server. Empty runs jobs
	// in-process.
	Server string `json:"server,omitempty" yaml:"server,omitempty"`

	Copify *job.CopifySettings `json:"copify,omitempty" yaml:"copify,omitempty"`
	Mover  *job.MoverSettings  `json:"mover,omitempty" yaml:"mover,omitempty"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*File, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	file, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Str("kind", file.Kind).Msg("loaded configuration")
	return file, nil
}

// 🔍 Validate resolves the job kind and validates its settings
func (f *File) Validate() error {
	if f.Kind == "" {
		switch {
		case f.Copify != nil && f.Mover == nil:
			f.Kind = job.Copify.Command
		case f.Mover != nil && f.Copify == nil:
			f.Kind = job.Mover.Command
		default:
			return errors.Errorf("kind is required when the file does not hold exactly one job")
		}
	}

	switch f.Kind {
	case job.Copify.Command:
		if f.Copify == nil {
			return errors.Errorf("copify settings are required for kind %q", f.Kind)
		}
		if err := f.Copify.Validate(); err != nil {
			return errors.Errorf("copify: %w", err)
		}
	case job.Mover.Command:
		if f.Mover == nil {
			return errors.Errorf("mover settings are required for kind %q", f.Kind)
		}
		if err := f.Mover.Validate(); err != nil {
			return errors.Errorf("mover: %w", err)
		}
	default:
		return errors.Errorf("unknown kind %q", f.Kind)
	}

	return nil
}

// JobKind returns the job kind the file selects.
func (f *File) JobKind() (job.Kind, bool) {
	return job.KindByCommand(f.Kind)
}

// 📝 String returns a string representation of the config
func (f *File) String() string {
	switch f.Kind {
	case job.Copify.Command:
		if f.Copify != nil {
			return fmt.Sprintf("copify %s", f.Copify.Folder)
		}
	case job.Mover.Command:
		if f.Mover != nil {
			return fmt.Sprintf("mover %s -> %s", f.Mover.Folder, f.Mover.Target)
		}
	}
	return f.Kind
}

func hasExt(filename string, exts ...string) bool {
	ext := filepath.Ext(filename)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
