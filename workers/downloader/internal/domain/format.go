package domain

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatDuration renders seconds as "1h 1m 1s", "1m 5s" or "5s"
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatFileSize renders a byte count with one decimal in the largest unit
// below 1024, e.g. "1.5 KB"
func FormatFileSize(bytes int64) string {
	size := float64(bytes)
	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}
