package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🚚 Relocate copies (or moves, when move is set) the folder of every project
// into target and returns the projects' new paths in input order. A folder
// holding several projects is relocated once. Folders sharing a base name get
// distinct targets: "Song", "Song (2)", ...
func Relocate(ctx context.Context, projects []string, target string, move bool, workers int) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, errors.Errorf("creating target %s: %w", target, err)
	}

	relocated := make([]string, len(projects))
	folders := make(map[string]string)
	used := make(map[string]bool)
	var order []string

	for i, project := range projects {
		src := filepath.Dir(project)
		dst, ok := folders[src]
		if !ok {
			base := filepath.Base(src)
			name := base
			for n := 2; used[name]; n++ {
				name = fmt.Sprintf("%s (%d)", base, n)
			}
			used[name] = true
			if name != base {
				logger.Info().Str("from", src).Str("name", name).Msg("renaming project folder with a taken name")
			}
			dst = filepath.Join(target, name)
			folders[src] = dst
			order = append(order, src)
		}
		relocated[i] = filepath.Join(dst, filepath.Base(project))
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for _, src := range order {
		src := src
		dst := folders[src]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Debug().Str("from", src).Str("to", dst).Bool("move", move).Msg("relocating project folder")
			if move {
				return moveDir(src, dst)
			}
			return copyDir(src, dst)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return relocated, nil
}

func moveDir(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// rename fails across devices
	if err := copyDir(src, dst); err != nil {
		return err
	}
	if err := os.RemoveAll(src); err != nil {
		return errors.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

func copyDir(src, dst string) error {
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		return copyFile(path, out)
	})
	if err != nil {
		return errors.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}
