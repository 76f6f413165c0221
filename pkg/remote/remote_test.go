package remote

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockProvider is a mock implementation of Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) LatestRelease(ctx context.Context, owner, repo string) (Release, error) {
	args := m.Called(ctx, owner, repo)
	return args.Get(0).(Release), args.Error(1)
}

func TestCheckUpdate(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		release     Release
		releaseErr  error
		want        Update
		errContains string
	}{
		{
			name:    "newer_release",
			current: "v1.2.0",
			release: Release{Tag: "v1.3.0", URL: "https://github.com/walteh/copify/releases/v1.3.0"},
			want: Update{
				Current:   "v1.2.0",
				Latest:    "v1.3.0",
				URL:       "https://github.com/walteh/copify/releases/v1.3.0",
				Available: true,
			},
		},
		{
			name:    "up_to_date",
			current: "v1.3.0",
			release: Release{Tag: "v1.3.0"},
			want:    Update{Current: "v1.3.0", Latest: "v1.3.0"},
		},
		{
			name:    "ahead_of_release",
			current: "1.4.0-rc.1",
			release: Release{Tag: "v1.3.0"},
			want:    Update{Current: "1.4.0-rc.1", Latest: "v1.3.0"},
		},
		{
			name:    "dev_build",
			current: "(devel)",
			release: Release{Tag: "v0.1.0"},
			want:    Update{Current: "(devel)", Latest: "v0.1.0", Available: true},
		},
		{
			name:        "bad_tag",
			current:     "v1.0.0",
			release:     Release{Tag: "nightly"},
			errContains: `parsing release tag "nightly"`,
		},
		{
			name:        "provider_error",
			current:     "v1.0.0",
			releaseErr:  ErrNoRelease,
			errContains: "getting latest release of walteh/copify",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

			p := &MockProvider{}
			p.On("LatestRelease", mock.Anything, "walteh", "copify").Return(tt.release, tt.releaseErr)

			got, err := CheckUpdate(ctx, p, "walteh", "copify", tt.current)
			p.AssertExpectations(t)

			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				if tt.releaseErr != nil {
					assert.True(t, errors.Is(err, tt.releaseErr), "provider error should be wrapped")
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetProvider(t *testing.T) {
	p := &MockProvider{}
	RegisterProvider("mock", p)
	t.Cleanup(func() { delete(registry, "mock") })

	got, err := GetProvider("mock")
	require.NoError(t, err)
	assert.Same(t, p, got)

	_, err = GetProvider("gitlab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider gitlab not found")
	assert.Contains(t, err.Error(), "mock")
}
