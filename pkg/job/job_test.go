package job_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/copify/pkg/job"
)

func TestKinds(t *testing.T) {
	assert.Equal(t, "copify-progress", job.Copify.Event)
	assert.Equal(t, "mover-progress", job.Mover.Event)
	assert.Equal(t, "Copify", job.Copify.Title())
	assert.Equal(t, "Mover", job.Mover.Title())

	k, ok := job.KindByCommand("mover")
	require.True(t, ok)
	assert.Equal(t, job.Mover, k)

	_, ok = job.KindByCommand("nope")
	assert.False(t, ok)
}

func TestCopifySettingsValidate(t *testing.T) {
	tests := []struct {
		name        string
		settings    job.CopifySettings
		expectedErr string
	}{
		{name: "valid", settings: job.CopifySettings{Folder: "/proj/"}},
		{name: "missing_folder", settings: job.CopifySettings{}, expectedErr: "folder is required"},
		{name: "blank_folder", settings: job.CopifySettings{Folder: "  "}, expectedErr: "folder is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "/proj", tt.settings.Folder)
			assert.NotNil(t, tt.settings.ExcludeFiles, "exclusions default to an empty list")
		})
	}
}

func TestMoverSettingsValidate(t *testing.T) {
	s := job.MoverSettings{Folder: "/src"}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target is required")

	s.Target = "/dst/"
	require.NoError(t, s.Validate())
	assert.Equal(t, "/dst", s.Target)
}

func TestMoverCopifyFor(t *testing.T) {
	s := job.MoverSettings{
		Folder:       "/src",
		Target:       "/dst",
		SerumNoises:  true,
		CreateBackup: true,
		ExcludeFiles: []string{"old"},
	}

	c := s.CopifyFor()
	assert.Equal(t, "/dst", c.Folder)
	assert.True(t, c.SerumNoises)
	assert.True(t, c.CreateBackup)
	assert.Equal(t, []string{"old"}, c.ExcludeFiles)
}

func TestInvocationWireFormat(t *testing.T) {
	inv := job.Invocation[job.CopifySettings]{
		RunID:    "copify-1",
		Settings: job.CopifySettings{Folder: "/proj", ExcludeFiles: []string{}},
	}

	data, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"run_id": "copify-1",
		"settings": {
			"folder": "/proj",
			"serum_noises": false,
			"move_samples": false,
			"create_backup": false,
			"exclude_files": []
		}
	}`, string(data))
}
