// Package domain holds the catalog's records, the transient job status and
// the error taxonomy of the downloader.
package domain

import (
	"path"
	"strings"
)

// VideoRecord is the durable metadata of one completed download.
// Field names match the catalog file format.
type VideoRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    int64  `json:"duration"`
	Uploader    string `json:"uploader"`
	Description string `json:"description"`
	Filepath    string `json:"filepath"`
	Filesize    int64  `json:"filesize"`
	Thumbnail   string `json:"thumbnail"`
}

// MediaKey is the storage key of a video's media file, e.g. downloads/abc123.mp4
func MediaKey(mediaDir, id, ext string) string {
	return path.Join(mediaDir, id+ext)
}

// IsSafeID reports whether id can name a file inside the media directory.
// Ids with separators or dot segments would address other files.
func IsSafeID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}

// ClampDuration converts an extractor duration to whole seconds.
// Unknown or negative durations become 0.
func ClampDuration(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(seconds)
}
