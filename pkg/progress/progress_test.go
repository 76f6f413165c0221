package progress_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/copify/pkg/progress"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		n    progress.Notification
		want progress.Outcome
	}{
		{name: "succeeded", n: progress.Succeeded("a.als", 10), want: progress.OutcomeSucceeded},
		{name: "failed", n: progress.Failed("a.als", 10, "disk full"), want: progress.OutcomeFailed},
		{name: "skipped", n: progress.Skipped("a.als", 10), want: progress.OutcomeSkipped},
		{
			name: "error_wins_over_skip",
			n:    progress.Notification{Identifier: "a.als", IsError: true, IsSkipped: true},
			want: progress.OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Outcome())
		})
	}
}

func TestConstructors(t *testing.T) {
	skipped := progress.Skipped("/p/a.als", 50)
	assert.True(t, skipped.IsSkipped)
	assert.False(t, skipped.IsError)
	assert.Equal(t, progress.SkippedMessage, skipped.ErrorMessage)

	failed := progress.Failed("/p/b.als", 100, "disk full")
	assert.True(t, failed.IsError)
	assert.Equal(t, "disk full", failed.ErrorMessage)
	assert.True(t, failed.Done())

	ok := progress.Succeeded("/p/c.als", 99)
	assert.Empty(t, ok.ErrorMessage)
	assert.False(t, ok.Done())
}

func TestPercent(t *testing.T) {
	tests := []struct {
		i, total int
		want     int
	}{
		{0, 1, 100},
		{0, 3, 33},
		{1, 3, 66},
		{2, 3, 100},
		{0, 0, 100},
		{6, 7, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, progress.Percent(tt.i, tt.total), "Percent(%d, %d)", tt.i, tt.total)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "song.als", progress.FileName("/Users/me/Music/song.als"))
	assert.Equal(t, "song.als", progress.FileName(`C:\Music\Project\song.als`))
	assert.Equal(t, "song.als", progress.FileName("song.als"))
	assert.Equal(t, "", progress.FileName("/trailing/"))
}

func TestNotificationWireFormat(t *testing.T) {
	data := []byte(`{"progress":50,"file_name":"/p/a.als","is_error":true,"is_skipped":false,"error_msg":"boom"}`)

	var n progress.Notification
	require.NoError(t, json.Unmarshal(data, &n))

	assert.Equal(t, "/p/a.als", n.Identifier)
	assert.Equal(t, 50, n.Percent)
	assert.True(t, n.IsError)
	assert.Equal(t, "boom", n.ErrorMessage)
	assert.Empty(t, n.RunID, "untagged payloads decode with an empty run id")

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "run_id")
}

func TestSummarize(t *testing.T) {
	history := []progress.Notification{
		progress.Succeeded("a.als", 25),
		progress.Skipped("b.als", 50),
		progress.Failed("c.als", 75, "disk full"),
		progress.Succeeded("d.als", 100),
	}

	s := progress.Summarize(history)
	assert.Equal(t, progress.Summary{Total: 4, Succeeded: 2, Skipped: 1, Failed: 1, Percent: 100, Done: true}, s)

	assert.Equal(t, progress.Summary{}, progress.Summarize(nil))
}
