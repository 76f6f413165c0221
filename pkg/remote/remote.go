// Package remote checks published releases of copify.
package remote

import (
	"context"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrNoRelease = errors.Base("no release published")
)

var registry = map[string]Provider{}

// RegisterProvider makes a provider available by name
func RegisterProvider(name string, provider Provider) {
	registry[name] = provider
}

// GetProvider returns the provider registered under name
func GetProvider(name string) (Provider, error) {
	provider, ok := registry[name]
	if !ok {
		options := []string{}
		for k := range registry {
			options = append(options, k)
		}
		sort.Strings(options)
		return nil, errors.Errorf("provider %s not found, options: %s", name, strings.Join(options, ", "))
	}
	return provider, nil
}

// Provider is the interface for asking a release host about a repository
type Provider interface {
	// Name returns the name of the provider (e.g. "github")
	Name() string
	// LatestRelease returns the newest published release of owner/repo
	LatestRelease(ctx context.Context, owner, repo string) (Release, error)
}

// 📦 Release is one published version
type Release struct {
	Tag string
	URL string
}

// 🔍 Update is the result of comparing the running build with the latest release
type Update struct {
	Current   string
	Latest    string
	URL       string
	Available bool
}

// CheckUpdate asks p for the latest release of owner/repo and compares it
// with current. Development builds ("dev", "(devel)" or anything that is not
// semver) always report an update when a release exists.
func CheckUpdate(ctx context.Context, p Provider, owner, repo, current string) (Update, error) {
	logger := zerolog.Ctx(ctx)

	release, err := p.LatestRelease(ctx, owner, repo)
	if err != nil {
		return Update{}, errors.Errorf("getting latest release of %s/%s: %w", owner, repo, err)
	}

	latest, err := semver.NewVersion(release.Tag)
	if err != nil {
		return Update{}, errors.Errorf("parsing release tag %q: %w", release.Tag, err)
	}

	update := Update{
		Current: current,
		Latest:  latest.Original(),
		URL:     release.URL,
	}

	running, err := semver.NewVersion(current)
	if err != nil {
		logger.Debug().Str("current", current).Err(err).Msg("running build has no semver version")
		update.Available = true
		return update, nil
	}

	update.Available = latest.GreaterThan(running)
	return update, nil
}
