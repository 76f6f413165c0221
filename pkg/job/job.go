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

package job

import (
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ListItemsCommand enumerates candidate projects under a directory.
const ListItemsCommand = "get_als_files"

// 🏷️ Kind identifies a job kind by its invocation command and progress event
type Kind struct {
	Command string
	Event   string
}

// Title returns a display name for the kind, e.g. "Copify".
func (k Kind) Title() string {
	if k.Command == "" {
		return ""
	}
	return strings.ToUpper(k.Command[:1]) + k.Command[1:]
}

var (
	// 📦 Copify copies every sample a project references into the project folder
	Copify = Kind{Command: "copify", Event: "copify-progress"}

	// 🚚 Mover relocates project folders into a target, then runs copify on them
	Mover = Kind{Command: "mover", Event: "mover-progress"}
)

// KindByCommand looks up a known kind by command name.
func KindByCommand(command string) (Kind, bool) {
	switch command {
	case Copify.Command:
		return Copify, true
	case Mover.Command:
		return Mover, true
	default:
		return Kind{}, false
	}
}

// 📨 Invocation is the payload sent to the execution boundary to begin a run.
// Settings are forwarded untouched.
type Invocation[C any] struct {
	RunID    string `json:"run_id,omitempty"`
	Settings C      `json:"settings"`
}

// 🔧 CopifySettings configures a copify run
type CopifySettings struct {
	Folder       string   `json:"folder" yaml:"folder"`
	SerumNoises  bool     `json:"serum_noises" yaml:"serum_noises"`
	MoveSamples  bool     `json:"move_samples" yaml:"move_samples"`
	CreateBackup bool     `json:"create_backup" yaml:"create_backup"`
	ExcludeFiles []string `json:"exclude_files" yaml:"exclude_files"`
}

// 🔍 Validate checks the settings the way the form layer does
func (s *CopifySettings) Validate() error {
	if strings.TrimSpace(s.Folder) == "" {
		return errors.Errorf("folder is required: you need to choose a folder")
	}
	s.Folder = filepath.Clean(s.Folder)
	if s.ExcludeFiles == nil {
		s.ExcludeFiles = []string{}
	}
	return nil
}

// 🔧 MoverSettings configures a mover run
type MoverSettings struct {
	Folder           string   `json:"folder" yaml:"folder"`
	Target           string   `json:"target" yaml:"target"`
	SerumNoises      bool     `json:"serum_noises" yaml:"serum_noises"`
	MoveProjectFiles bool     `json:"move_project_files" yaml:"move_project_files"`
	MoveSamples      bool     `json:"move_samples" yaml:"move_samples"`
	CreateBackup     bool     `json:"create_backup" yaml:"create_backup"`
	ExcludeFiles     []string `json:"exclude_files" yaml:"exclude_files"`
}

// 🔍 Validate checks the settings the way the form layer does
func (s *MoverSettings) Validate() error {
	if strings.TrimSpace(s.Folder) == "" {
		return errors.Errorf("folder is required: you need to choose a folder")
	}
	if strings.TrimSpace(s.Target) == "" {
		return errors.Errorf("target is required: you need to choose a target folder")
	}
	s.Folder = filepath.Clean(s.Folder)
	s.Target = filepath.Clean(s.Target)
	if s.ExcludeFiles == nil {
		s.ExcludeFiles = []string{}
	}
	return nil
}

// CopifyFor derives the copify pass a mover run performs on relocated projects.
func (s MoverSettings) CopifyFor() CopifySettings {
	return CopifySettings{
		Folder:       s.Target,
		SerumNoises:  s.SerumNoises,
		MoveSamples:  s.MoveSamples,
		CreateBackup: s.CreateBackup,
		ExcludeFiles: s.ExcludeFiles,
	}
}
