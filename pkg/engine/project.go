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

package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// ProjectExtension is the extension of an Ableton Live set
	ProjectExtension = ".als"

	// BackupExtension replaces ProjectExtension on backup copies
	BackupExtension = ".als.bak"

	// BackupFolder is the folder Live keeps its own autosaves in
	BackupFolder = "Backup"
)

var (
	ErrNoProjects    = errors.Base("No Ableton Live project files found")
	ErrInvalidBackup = errors.Base("Input file is not valid to backup")
)

// 🔍 FindProjects returns every project file under folder, skipping those Live
// keeps in its Backup folders.
func FindProjects(ctx context.Context, folder string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		logger.Debug().Str("folder", folder).Msg("not a directory")
		return nil, errors.WithStack(ErrNoProjects)
	}

	matches, err := doublestar.Glob(os.DirFS(folder), "**/*"+ProjectExtension, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Errorf("searching %s: %w", folder, err)
	}

	projects := make([]string, 0, len(matches))
	for _, match := range matches {
		path := filepath.Join(folder, filepath.FromSlash(match))
		if IsBackupFolder(path) {
			logger.Debug().Str("project", path).Msg("ignoring backup project")
			continue
		}
		projects = append(projects, path)
	}

	if len(projects) == 0 {
		return nil, errors.WithStack(ErrNoProjects)
	}

	logger.Debug().Str("folder", folder).Int("count", len(projects)).Msg("found projects")
	return projects, nil
}

// IsBackupFolder reports whether path sits directly inside a Backup folder.
func IsBackupFolder(path string) bool {
	return filepath.Base(filepath.Dir(path)) == BackupFolder
}

// 🚦 ShouldRun reports whether no exclusion matches path. An exclusion
// matches as a doublestar pattern or as a plain substring.
func ShouldRun(path string, excludes []string) bool {
	slashed := filepath.ToSlash(path)
	for _, exclude := range excludes {
		if exclude == "" {
			continue
		}
		if strings.Contains(path, exclude) || strings.Contains(slashed, exclude) {
			return false
		}
		if matched, err := doublestar.Match(exclude, slashed); err == nil && matched {
			return false
		}
	}
	return true
}

// BackupPath returns where the backup of project is written.
func BackupPath(project string) string {
	return strings.TrimSuffix(project, ProjectExtension) + BackupExtension
}

// 💾 CreateBackup copies project next to itself with BackupExtension.
func CreateBackup(project string) (string, error) {
	if strings.Contains(project, BackupExtension) {
		return "", errors.WithStack(ErrInvalidBackup)
	}

	backup := BackupPath(project)
	if err := copyFile(project, backup); err != nil {
		return "", errors.Errorf("creating backup: %w", err)
	}
	return backup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Errorf("reading %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Errorf("copying %s to %s: %w", src, dst, err)
	}

	if err := out.Close(); err != nil {
		return errors.Errorf("closing %s: %w", dst, err)
	}
	return nil
}
