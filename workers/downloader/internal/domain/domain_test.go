package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{3661, "1h 1m 1s"},
		{3600, "1h 0m 0s"},
		{65, "1m 5s"},
		{60, "1m 0s"},
		{5, "5s"},
		{0, "0s"},
		{-10, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.seconds))
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0.0 B"},
		{1023, "1023.0 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFileSize(tt.bytes))
		})
	}
}

func TestJobStatus_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{"starting", Starting(), `{"status":"starting"}`},
		{"downloading", Downloading(" 42.0%", "1.2MiB/s", "00:10"),
			`{"status":"downloading","percentage":" 42.0%","speed":"1.2MiB/s","eta":"00:10"}`},
		{"completed", Completed(), `{"status":"completed"}`},
		{"error", Failed("boom"), `{"status":"error","message":"boom"}`},
		{"not found", NotFound(), `{"status":"not_found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.status)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestJobStatus_States(t *testing.T) {
	assert.True(t, Starting().IsActive())
	assert.True(t, Downloading("", "", "").IsActive())
	assert.False(t, Completed().IsActive())

	assert.True(t, Completed().IsTerminal())
	assert.True(t, Failed("x").IsTerminal())
	assert.False(t, Starting().IsTerminal())
	assert.False(t, NotFound().IsTerminal())
	assert.False(t, NotFound().IsActive())
}

func TestDomainError(t *testing.T) {
	cause := errors.New("video unavailable")

	t.Run("matches sentinel by code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", NewResolutionError(cause))

		assert.True(t, errors.Is(err, ErrResolutionFailed))
		assert.True(t, errors.Is(err, cause))
		assert.False(t, errors.Is(err, ErrInvalidURL))
	})

	t.Run("error string", func(t *testing.T) {
		assert.Equal(t, "INVALID_URL: please enter a valid video link", ErrInvalidURL.Error())
		assert.Equal(t, "FETCH_FAILED: download failed - video unavailable", NewFetchError(cause).Error())
	})

	t.Run("describe", func(t *testing.T) {
		assert.Equal(t, "please enter a valid video link", Describe(ErrInvalidURL))
		assert.Equal(t, "failed to resolve video: video unavailable", Describe(NewResolutionError(cause)))
		assert.Equal(t, "plain", Describe(errors.New("plain")))
	})

	t.Run("retryable", func(t *testing.T) {
		assert.True(t, IsRetryable(NewFetchError(cause)))
		assert.True(t, IsRetryable(cause))
		assert.False(t, IsRetryable(fmt.Errorf("wrap: %w", ErrDuplicateRecord)))
		assert.False(t, IsRetryable(NewCorruptStoreError(cause)))
	})
}

func TestMediaKey(t *testing.T) {
	assert.Equal(t, "downloads/abc123.mp4", MediaKey("downloads", "abc123", ".mp4"))
}

func TestClampDuration(t *testing.T) {
	assert.Equal(t, int64(0), ClampDuration(-1))
	assert.Equal(t, int64(212), ClampDuration(212.7))
}

func TestIsSafeID(t *testing.T) {
	tests := []struct {
		id   string
		safe bool
	}{
		{"abc123", true},
		{"dQw4w9WgXcQ", true},
		{"a-b_c", true},
		{"", false},
		{".", false},
		{"..", false},
		{"zzz/../other", false},
		{"../videos", false},
		{`a\b`, false},
		{"a..b", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.safe, IsSafeID(tt.id))
		})
	}
}
