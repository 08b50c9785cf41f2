package ytdlp

import (
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"

	"vidcatalog/workers/downloader/internal/extractor"
)

func TestProgressEvent(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)

	t.Run("full update", func(t *testing.T) {
		update := ytdlp.ProgressUpdate{
			Status:          ytdlp.ProgressStatusDownloading,
			TotalBytes:      40 * 1024 * 1024,
			DownloadedBytes: 20 * 1024 * 1024,
			Started:         now.Add(-10 * time.Second),
		}

		event := progressEvent(update, now)

		assert.Equal(t, extractor.ProgressEvent{
			Status:     extractor.StatusDownloading,
			Percentage: "50.0%",
			Speed:      "2.0MiB/s",
			ETA:        "00:10",
		}, event)
	})

	t.Run("unknown total", func(t *testing.T) {
		update := ytdlp.ProgressUpdate{
			DownloadedBytes: 2048,
			Started:         now.Add(-2 * time.Second),
		}

		event := progressEvent(update, now)

		assert.Equal(t, "N/A", event.Percentage)
		assert.Equal(t, "1.0KiB/s", event.Speed)
		assert.Equal(t, "N/A", event.ETA)
	})

	t.Run("not started", func(t *testing.T) {
		event := progressEvent(ytdlp.ProgressUpdate{TotalBytes: 100}, now)

		assert.Equal(t, "0.0%", event.Percentage)
		assert.Equal(t, "N/A", event.Speed)
	})
}

func TestFormatETA(t *testing.T) {
	assert.Equal(t, "00:00", formatETA(0))
	assert.Equal(t, "01:05", formatETA(65*time.Second))
	assert.Equal(t, "01:01:01", formatETA(3661*time.Second))
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "512B/s", formatSpeed(512))
	assert.Equal(t, "1.5KiB/s", formatSpeed(1536))
	assert.Equal(t, "3.0MiB/s", formatSpeed(3*1024*1024))
}

func TestToMetadata(t *testing.T) {
	title := "A video"
	uploader := "someone"
	duration := 212.6
	negative := -1.0

	meta := toMetadata(&ytdlp.ExtractedInfo{
		ID:       "abc123",
		Title:    &title,
		Uploader: &uploader,
		Duration: &duration,
	})

	assert.Equal(t, extractor.Metadata{
		ID:       "abc123",
		Title:    "A video",
		Uploader: "someone",
		Duration: 212,
	}, meta)

	meta = toMetadata(&ytdlp.ExtractedInfo{ID: "x", Duration: &negative})
	assert.Equal(t, int64(0), meta.Duration)
	assert.Empty(t, meta.Description)
}
