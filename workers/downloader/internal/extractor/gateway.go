// Package extractor defines the boundary to the external tool that resolves
// video metadata and downloads media.
package extractor

import "context"

// StatusDownloading tags progress events emitted while bytes are arriving
const StatusDownloading = "downloading"

// Metadata describes a video as reported by the extractor
type Metadata struct {
	ID          string
	Title       string
	Duration    int64
	Uploader    string
	Description string
	Thumbnail   string
}

// ProgressEvent is one progress notification. Percentage, Speed and ETA
// are display strings, already formatted by the gateway.
type ProgressEvent struct {
	Status     string
	Percentage string
	Speed      string
	ETA        string
}

// ProgressFunc receives progress events during a fetch. It is called from
// the fetching goroutine and must not block for long.
type ProgressFunc func(ProgressEvent)

// FetchRequest describes one media download
type FetchRequest struct {
	URL        string
	OutputPath string
	OnProgress ProgressFunc
}

// Gateway resolves and downloads videos
type Gateway interface {
	// Resolve returns the metadata of url without downloading it
	Resolve(ctx context.Context, url string) (Metadata, error)

	// Fetch downloads url to OutputPath and returns the final metadata
	Fetch(ctx context.Context, req FetchRequest) (Metadata, error)
}
