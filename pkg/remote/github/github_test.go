package github

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-github/v60/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/copify/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockGitHubClient is a mock implementation of GitHubClient
type MockGitHubClient struct {
	mock.Mock
}

func (m *MockGitHubClient) GetLatestRelease(ctx context.Context, owner, repo string) (*github.RepositoryRelease, *github.Response, error) {
	args := m.Called(ctx, owner, repo)
	release, _ := args.Get(0).(*github.RepositoryRelease)
	resp, _ := args.Get(1).(*github.Response)
	return release, resp, args.Error(2)
}

func TestLatestRelease(t *testing.T) {
	t.Run("returns_tag_and_url", func(t *testing.T) {
		client := &MockGitHubClient{}
		client.On("GetLatestRelease", mock.Anything, "walteh", "copify").Return(&github.RepositoryRelease{
			TagName: github.String("v1.0.0"),
			HTMLURL: github.String("https://github.com/walteh/copify/releases/tag/v1.0.0"),
		}, &github.Response{}, nil)

		p := NewProviderWithClient(client)
		release, err := p.LatestRelease(context.Background(), "walteh", "copify")
		require.NoError(t, err, "getting latest release should not error")
		assert.Equal(t, remote.Release{
			Tag: "v1.0.0",
			URL: "https://github.com/walteh/copify/releases/tag/v1.0.0",
		}, release)
		client.AssertExpectations(t)
	})

	t.Run("not_found_means_no_release", func(t *testing.T) {
		client := &MockGitHubClient{}
		client.On("GetLatestRelease", mock.Anything, "walteh", "copify").Return(nil,
			&github.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
			errors.New("404 Not Found"))

		_, err := NewProviderWithClient(client).LatestRelease(context.Background(), "walteh", "copify")
		require.Error(t, err)
		assert.True(t, errors.Is(err, remote.ErrNoRelease), "404 should map to ErrNoRelease")
	})

	t.Run("api_error", func(t *testing.T) {
		client := &MockGitHubClient{}
		client.On("GetLatestRelease", mock.Anything, "walteh", "copify").Return(nil, nil, errors.New("rate limited"))

		_, err := NewProviderWithClient(client).LatestRelease(context.Background(), "walteh", "copify")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("registered_by_name", func(t *testing.T) {
		p, err := remote.GetProvider("github")
		require.NoError(t, err)
		assert.Equal(t, "github", p.Name())
	})
}
