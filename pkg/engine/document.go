package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/job"
	"gitlab.com/tozd/go/errors"
)

const (
	// ImportedSamples is where referenced samples are collected, relative to
	// the project folder
	ImportedSamples = "Samples/Imported/"

	serumNoises = "Serum Presets/Noises"
)

// 📖 ReadProject decodes a gzipped project file.
func ReadProject(path string) (*etree.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening project: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Errorf("decompressing project: %w", err)
	}
	defer zr.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(zr); err != nil {
		return nil, errors.Errorf("parsing project xml: %w", err)
	}
	return doc, nil
}

// 💾 WriteProject gzips doc into path. The file is replaced atomically.
func WriteProject(path string, doc *etree.Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".copify-*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if _, err := doc.WriteTo(zw); err != nil {
		tmp.Close()
		return errors.Errorf("writing project xml: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return errors.Errorf("compressing project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Errorf("replacing project: %w", err)
	}
	return nil
}

// 🔗 RewriteSampleRefs points every sample reference in doc at a copy inside
// projectDir, copying the samples as it goes. It returns the number of
// samples collected.
func RewriteSampleRefs(ctx context.Context, doc *etree.Document, projectDir string, settings job.CopifySettings) (int, error) {
	logger := zerolog.Ctx(ctx)
	collected := 0

	for _, ref := range doc.FindElements("//SampleRef") {
		for _, el := range ref.FindElements(".//Path") {
			value, ok := sampleValue(el, settings)
			if !ok {
				continue
			}
			dest, err := collectSample(value, projectDir, settings.MoveSamples)
			if err != nil {
				return collected, err
			}
			logger.Debug().Str("sample", value).Str("dest", dest).Msg("collected sample")
			el.CreateAttr("Value", dest)
			collected++
		}

		for _, el := range ref.FindElements(".//RelativePath") {
			value, ok := sampleValue(el, settings)
			if !ok {
				continue
			}
			el.CreateAttr("Value", ImportedSamples+lastSegment(value))
		}
	}

	return collected, nil
}

func sampleValue(el *etree.Element, settings job.CopifySettings) (string, bool) {
	attr := el.SelectAttr("Value")
	if attr == nil {
		return "", false
	}
	if settings.SerumNoises && strings.Contains(attr.Value, serumNoises) {
		return "", false
	}
	return attr.Value, true
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// collectSample copies (or moves) sample into the project's imported
// samples folder and returns its new absolute path.
func collectSample(sample, projectDir string, move bool) (string, error) {
	name := filepath.Base(sample)
	if name == "." || name == string(filepath.Separator) {
		return "", errors.Errorf("invalid sample path: no filename: %q", sample)
	}

	destDir := filepath.Join(projectDir, filepath.FromSlash(ImportedSamples))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Errorf("creating destination folder: %w", err)
	}

	dest := filepath.Join(destDir, name)
	if filepath.Clean(sample) == dest {
		return dest, nil
	}

	// an earlier reference in the same project already moved it
	if _, err := os.Stat(sample); os.IsNotExist(err) {
		if _, err := os.Stat(dest); err == nil {
			return dest, nil
		}
	}

	if move {
		if err := os.Rename(sample, dest); err == nil {
			return dest, nil
		}
	}

	if err := copyFile(sample, dest); err != nil {
		return "", errors.Errorf("collecting sample %s: %w", sample, err)
	}

	if move {
		if err := os.Remove(sample); err != nil {
			return "", errors.Errorf("removing moved sample %s: %w", sample, err)
		}
	}

	return dest, nil
}
