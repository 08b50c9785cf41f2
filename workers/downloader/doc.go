/*
Package downloader is a single-host web service that downloads videos with
yt-dlp, reports per-job progress, and keeps a JSON catalog of completed
downloads for browsing and deletion.

The downloader worker is responsible for:
  - Validating submitted links against an allow-list of video hosts
  - Resolving the video id synchronously so clients can poll right away
  - Running the download in the background with retries and backoff
  - Recording completed downloads in the catalog file
  - Serving the catalog page, the media files, health and metrics

Architecture

	├── cmd/                    # Application entry point
	├── internal/
	│   ├── domain/            # VideoRecord, JobStatus, error codes, formatting
	│   ├── usecase/           # URL validation
	│   ├── registry/          # In-memory job status registry
	│   ├── catalog/           # JSON catalog store
	│   ├── extractor/         # Extractor gateway port
	│   │   └── ytdlp/         # go-ytdlp adapter
	│   ├── service/           # Download orchestrator
	│   └── adapters/
	│       └── http/          # Routes, template, static media
	└── mocks/                 # testify mocks for the ports

Job lifecycle

A job is keyed by the extractor-assigned video id:

	starting -> downloading (zero or more) -> completed | error

Statuses live in memory only and are lost on restart. The catalog is the
durable record: one entry per completed job, appended once the media file
is on disk.

HTTP API

	GET    /                 catalog page
	GET    /api/videos       catalog as JSON
	POST   /download?url=    submit a link
	GET    /progress/{id}    job status
	DELETE /video/{id}       delete a video and its file
	GET    /downloads/...    downloaded media
	GET    /health           catalog readability and job counts
	GET    /metrics          Prometheus metrics

Submitting a link answers {"status":"success","video_id":"abc123"} or
{"status":"error","message":"..."}; both with HTTP 200.

Configuration

All settings come from the environment and optional .env files, see
shared/config. The catalog lives at $DATA_DIR/$CATALOG_FILE and media files
at $DATA_DIR/$MEDIA_DIR/<id>$MEDIA_EXT. Setting ARCHIVE_PROVIDER to s3 or fs
mirrors completed media to a second storage.
*/
package downloader
