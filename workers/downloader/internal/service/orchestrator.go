// Package service orchestrates download jobs: it validates and resolves a
// submitted URL, runs the download in the background under a retry policy,
// and records the outcome in the job registry and the catalog.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"vidcatalog/shared/observability"
	obstypes "vidcatalog/shared/observability/types"
	"vidcatalog/shared/retry"
	"vidcatalog/shared/storage/types"
	"vidcatalog/workers/downloader/internal/domain"
	"vidcatalog/workers/downloader/internal/extractor"
)

// URLValidator checks that a URL may be downloaded
type URLValidator interface {
	Validate(url string) error
}

// JobRegistry holds the status of every job
type JobRegistry interface {
	Set(id string, status domain.JobStatus)
	Get(id string) domain.JobStatus
	Claim(id string) bool
	CountByState() map[domain.JobState]int
}

// Catalog persists completed downloads
type Catalog interface {
	List(ctx context.Context) ([]domain.VideoRecord, error)
	Get(ctx context.Context, id string) (domain.VideoRecord, bool, error)
	Append(ctx context.Context, rec domain.VideoRecord) error
	Remove(ctx context.Context, id string) error
}

// SubmitResult is returned for an accepted submission
type SubmitResult struct {
	JobID string
}

// Options tune the orchestrator
type Options struct {
	MediaDir       string
	MediaExt       string
	ResolveTimeout time.Duration
	Retry          retry.Policy
}

// Dependencies are the collaborators of the orchestrator. Archive is
// optional.
type Dependencies struct {
	Validator URLValidator
	Gateway   extractor.Gateway
	Registry  JobRegistry
	Catalog   Catalog
	Media     types.LocalObjectStorage
	Archive   types.ObjectStorage
	Logger    observability.Logger
	Metrics   observability.Metrics
}

// Orchestrator runs download jobs
type Orchestrator struct {
	validator URLValidator
	gateway   extractor.Gateway
	registry  JobRegistry
	catalog   Catalog
	media     types.LocalObjectStorage
	archive   types.ObjectStorage
	logger    observability.Logger
	metrics   observability.Metrics
	opts      Options
	wg        sync.WaitGroup
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(deps Dependencies, opts Options) *Orchestrator {
	return &Orchestrator{
		validator: deps.Validator,
		gateway:   deps.Gateway,
		registry:  deps.Registry,
		catalog:   deps.Catalog,
		media:     deps.Media,
		archive:   deps.Archive,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		opts:      opts,
	}
}

// Submit validates url, resolves its video id and schedules the download.
// It returns as soon as the job is registered. A video already in the
// catalog is reported as completed, and a video with an active job is not
// downloaded twice.
func (o *Orchestrator) Submit(ctx context.Context, url string) (SubmitResult, error) {
	start := time.Now()
	defer func() {
		o.metrics.RecordDuration("submit", time.Since(start).Seconds())
	}()

	if err := o.validator.Validate(url); err != nil {
		o.metrics.RecordError("submit", domain.CodeInvalidURL)
		o.logger.Warn(ctx, "Rejected submission", observability.Fields{
			"url": url,
		})
		return SubmitResult{}, err
	}

	meta, err := o.resolve(ctx, url)
	if err != nil {
		o.metrics.RecordError("submit", domain.CodeResolutionFailed)
		o.logger.Error(ctx, "Failed to resolve video", err, observability.Fields{
			"url": url,
		})
		return SubmitResult{}, err
	}

	id := meta.ID
	logger := o.logger.WithFields(observability.Fields{"video_id": id})

	_, found, err := o.catalog.Get(ctx, id)
	if err != nil {
		o.metrics.RecordError("submit", errorCode(err))
		logger.Error(ctx, "Failed to read catalog", err, nil)
		return SubmitResult{}, err
	}
	if found {
		o.registry.Set(id, domain.Completed())
		o.metrics.RecordSuccess("submit_cached")
		logger.Info(ctx, "Video already in catalog", nil)
		return SubmitResult{JobID: id}, nil
	}

	if !o.registry.Claim(id) {
		o.metrics.RecordSuccess("submit_deduplicated")
		logger.Info(ctx, "Download already in progress", nil)
		return SubmitResult{JobID: id}, nil
	}

	// The job outlives the request but keeps its values for logging
	jobCtx := obstypes.WithJobID(context.WithoutCancel(ctx), id)

	o.wg.Add(1)
	go o.run(jobCtx, url, meta)

	o.metrics.RecordSuccess("submit")
	logger.Info(ctx, "Download scheduled", observability.Fields{
		"url":   url,
		"title": meta.Title,
	})

	return SubmitResult{JobID: id}, nil
}

// QueryStatus returns the status of a job; unknown ids are not_found
func (o *Orchestrator) QueryStatus(id string) domain.JobStatus {
	return o.registry.Get(id)
}

// DeleteRecord removes a video from the catalog and deletes its media,
// including the archived copy. Deleting an unknown id succeeds. The job
// registry is left untouched.
func (o *Orchestrator) DeleteRecord(ctx context.Context, id string) error {
	if !domain.IsSafeID(id) {
		o.logger.Warn(ctx, "Ignored delete of malformed id", observability.Fields{"video_id": id})
		return nil
	}

	if err := o.catalog.Remove(ctx, id); err != nil {
		o.metrics.RecordError("delete", errorCode(err))
		o.logger.Error(ctx, "Failed to delete video", err, observability.Fields{"video_id": id})
		return err
	}

	if o.archive != nil {
		key := domain.MediaKey(o.opts.MediaDir, id, o.opts.MediaExt)
		if err := o.archive.Delete(ctx, "", key); err != nil {
			o.metrics.RecordError("archive_delete", "delete")
			o.logger.Warn(ctx, "Failed to delete archived media", observability.Fields{
				"video_id": id,
				"key":      key,
				"error":    err.Error(),
			})
		}
	}

	o.metrics.RecordSuccess("delete")
	o.logger.Info(ctx, "Video deleted", observability.Fields{"video_id": id})
	return nil
}

// ListCatalog returns every completed download
func (o *Orchestrator) ListCatalog(ctx context.Context) ([]domain.VideoRecord, error) {
	return o.catalog.List(ctx)
}

// Jobs returns how many tracked jobs are in each state
func (o *Orchestrator) Jobs() map[domain.JobState]int {
	return o.registry.CountByState()
}

// Health reports whether the catalog can be read
func (o *Orchestrator) Health(ctx context.Context) error {
	if _, err := o.catalog.List(ctx); err != nil {
		return fmt.Errorf("catalog unavailable: %w", err)
	}
	return nil
}

// Wait blocks until every background job has finished
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Drain waits for background jobs until ctx is done. When ctx expires first
// the goroutine waiting on the jobs keeps running until they finish, which
// only matters if the process does not exit afterwards.
func (o *Orchestrator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) resolve(ctx context.Context, url string) (extractor.Metadata, error) {
	if o.opts.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ResolveTimeout)
		defer cancel()
	}

	meta, err := o.gateway.Resolve(ctx, url)
	if err != nil {
		return extractor.Metadata{}, domain.NewResolutionError(err)
	}
	if meta.ID == "" {
		return extractor.Metadata{}, domain.NewResolutionError(errors.New("extractor returned no video id"))
	}
	if !domain.IsSafeID(meta.ID) {
		return extractor.Metadata{}, domain.NewResolutionError(fmt.Errorf("extractor returned unusable video id %q", meta.ID))
	}
	return meta, nil
}

// run executes one job to its terminal status
func (o *Orchestrator) run(ctx context.Context, url string, resolved extractor.Metadata) {
	defer o.wg.Done()

	id := resolved.ID
	start := time.Now()
	o.metrics.StartOperation("download")
	defer func() {
		o.metrics.EndOperation("download")
		o.metrics.RecordDuration("download", time.Since(start).Seconds())
	}()

	policy := o.opts.Retry
	policy.ShouldRetry = domain.IsRetryable
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		o.metrics.RecordError("download_attempt", errorCode(err))
		o.logger.Warn(ctx, "Download attempt failed, retrying", observability.Fields{
			"attempt":  attempt + 1,
			"retry_in": wait.String(),
			"error":    err.Error(),
		})
	}

	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		return o.fetchAndSave(ctx, url, resolved)
	})
	if err != nil {
		cause := err
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			cause = exhausted.Err
		}

		o.registry.Set(id, domain.Failed(domain.Describe(cause)))
		o.metrics.RecordError("download", errorCode(cause))
		o.logger.Error(ctx, "Download failed", err, observability.Fields{
			"url":             url,
			"duration_ms":     time.Since(start).Milliseconds(),
			"max_attempts":    policy.MaxAttempts,
			"error_retryable": domain.IsRetryable(cause),
		})
		return
	}

	o.registry.Set(id, domain.Completed())
	o.metrics.RecordSuccess("download")
	o.logger.Info(ctx, "Download completed", observability.Fields{
		"url":         url,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// fetchAndSave is one attempt: download, measure, archive, record
func (o *Orchestrator) fetchAndSave(ctx context.Context, url string, resolved extractor.Metadata) error {
	id := resolved.ID
	key := domain.MediaKey(o.opts.MediaDir, id, o.opts.MediaExt)

	outputPath, err := o.media.Path("", key)
	if err != nil {
		return domain.NewIOError("invalid media path", err)
	}

	final, err := o.gateway.Fetch(ctx, extractor.FetchRequest{
		URL:        url,
		OutputPath: outputPath,
		OnProgress: func(event extractor.ProgressEvent) {
			if event.Status != extractor.StatusDownloading {
				return
			}
			o.registry.Set(id, domain.Downloading(event.Percentage, event.Speed, event.ETA))
		},
	})
	if err != nil {
		return domain.NewFetchError(err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return domain.NewIOError("failed to measure media file", err)
	}
	size := info.Size()
	o.metrics.RecordFileSize("video", size)

	rec := buildRecord(resolved, final, key, size)

	if o.archive != nil {
		o.mirror(ctx, outputPath, key, size)
	}

	if err := o.catalog.Append(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicateRecord) {
			o.logger.Warn(ctx, "Video was added to the catalog by another job", nil)
			return nil
		}
		return err
	}

	return nil
}

// mirror copies the media file to the archive. Failures are logged only:
// the local copy is authoritative.
func (o *Orchestrator) mirror(ctx context.Context, path, key string, size int64) {
	f, err := os.Open(path)
	if err != nil {
		o.metrics.RecordError("archive_put", "open")
		o.logger.Warn(ctx, "Failed to open media for archiving", observability.Fields{"error": err.Error()})
		return
	}
	defer f.Close()

	err = o.archive.Put(ctx, "", key, f, types.ObjectMetadata{
		ContentType:   "video/mp4",
		ContentLength: size,
	})
	if err != nil {
		o.metrics.RecordError("archive_put", "put")
		o.logger.Warn(ctx, "Failed to archive media", observability.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	o.metrics.RecordSuccess("archive_put")
}

// buildRecord prefers the metadata of the completed download and falls
// back to what was resolved at submission
func buildRecord(resolved, final extractor.Metadata, key string, size int64) domain.VideoRecord {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}

	duration := final.Duration
	if duration == 0 {
		duration = resolved.Duration
	}

	return domain.VideoRecord{
		ID:          resolved.ID,
		Title:       pick(final.Title, resolved.Title),
		Duration:    duration,
		Uploader:    pick(final.Uploader, resolved.Uploader),
		Description: pick(final.Description, resolved.Description),
		Filepath:    key,
		Filesize:    size,
		Thumbnail:   pick(final.Thumbnail, resolved.Thumbnail),
	}
}

func errorCode(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "unknown"
}
