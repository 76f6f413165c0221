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

package github

import (
	"context"
	"net/http"
	"os"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// GitHubClient defines the GitHub API operations we need
type GitHubClient interface {
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error)
}

// Provider implements remote.Provider for GitHub releases
type Provider struct {
	client GitHubClient
}

func init() {
	remote.RegisterProvider("github", NewProvider())
}

// NewProvider creates a GitHub provider, authenticated when GITHUB_TOKEN is set
func NewProvider() *Provider {
	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return NewProviderWithClient(client.Repositories)
}

// NewProviderWithClient creates a provider over an existing client
func NewProviderWithClient(client GitHubClient) *Provider {
	return &Provider{client: client}
}

// Name returns the name of the provider
func (p *Provider) Name() string {
	return "github"
}

// LatestRelease returns the newest non-draft, non-prerelease release
func (p *Provider) LatestRelease(ctx context.Context, owner, repo string) (remote.Release, error) {
	zerolog.Ctx(ctx).Debug().Str("owner", owner).Str("repo", repo).Msg("getting latest release")

	release, resp, err := p.client.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return remote.Release{}, errors.WithStack(remote.ErrNoRelease)
		}
		return remote.Release{}, errors.Errorf("getting latest release from GitHub: %w", err)
	}

	if release.GetTagName() == "" {
		return remote.Release{}, errors.WithStack(remote.ErrNoRelease)
	}

	return remote.Release{
		Tag: release.GetTagName(),
		URL: release.GetHTMLURL(),
	}, nil
}
