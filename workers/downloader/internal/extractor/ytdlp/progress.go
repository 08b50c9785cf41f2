package ytdlp

import (
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"vidcatalog/workers/downloader/internal/extractor"
)

// progressEvent renders a yt-dlp progress update as display strings
func progressEvent(update ytdlp.ProgressUpdate, now time.Time) extractor.ProgressEvent {
	event := extractor.ProgressEvent{
		Status:     extractor.StatusDownloading,
		Percentage: "N/A",
		Speed:      "N/A",
		ETA:        "N/A",
	}

	if update.TotalBytes > 0 {
		percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		event.Percentage = fmt.Sprintf("%.1f%%", percent)
	}

	if update.Started.IsZero() || update.DownloadedBytes <= 0 {
		return event
	}

	elapsed := now.Sub(update.Started).Seconds()
	if elapsed <= 0 {
		return event
	}

	bytesPerSecond := float64(update.DownloadedBytes) / elapsed
	event.Speed = formatSpeed(bytesPerSecond)

	if remaining := update.TotalBytes - update.DownloadedBytes; update.TotalBytes > 0 && remaining >= 0 {
		event.ETA = formatETA(time.Duration(float64(remaining) / bytesPerSecond * float64(time.Second)))
	}

	return event
}

func formatSpeed(bytesPerSecond float64) string {
	const unit = 1024.0
	switch {
	case bytesPerSecond >= unit*unit:
		return fmt.Sprintf("%.1fMiB/s", bytesPerSecond/unit/unit)
	case bytesPerSecond >= unit:
		return fmt.Sprintf("%.1fKiB/s", bytesPerSecond/unit)
	default:
		return fmt.Sprintf("%.0fB/s", bytesPerSecond)
	}
}

// formatETA renders mm:ss, or hh:mm:ss from one hour up
func formatETA(d time.Duration) string {
	total := int64(d.Round(time.Second).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
