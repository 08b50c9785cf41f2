// Package ytdlp implements extractor.Gateway with the yt-dlp binary through
// github.com/lrstanley/go-ytdlp.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"vidcatalog/shared/config"
	"vidcatalog/shared/observability"
	"vidcatalog/workers/downloader/internal/domain"
	"vidcatalog/workers/downloader/internal/extractor"
)

// ErrNoMetadata is returned when yt-dlp succeeds without printing any info
var ErrNoMetadata = errors.New("yt-dlp returned no video metadata")

// Gateway runs yt-dlp for metadata resolution and downloads
type Gateway struct {
	binary           string
	format           string
	progressInterval time.Duration
	logger           observability.Logger
	metrics          observability.Metrics
}

// New creates a gateway from the extractor configuration
func New(cfg config.ExtractorConfig, logger observability.Logger, metrics observability.Metrics) *Gateway {
	format := cfg.Format
	if format == "" {
		format = "best"
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	return &Gateway{
		binary:           cfg.Binary,
		format:           format,
		progressInterval: interval,
		logger:           logger,
		metrics:          metrics,
	}
}

// Install downloads a yt-dlp binary into the user cache when none is
// available. Only needed when YTDLP_AUTO_INSTALL is set.
func Install(ctx context.Context, logger observability.Logger) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}

	logger.Info(ctx, "yt-dlp available", observability.Fields{
		"executable": resolved.Executable,
		"version":    resolved.Version,
	})
	return nil
}

// Resolve runs yt-dlp with --skip-download and reads the printed info
func (g *Gateway) Resolve(ctx context.Context, url string) (extractor.Metadata, error) {
	start := time.Now()
	defer func() {
		g.metrics.RecordDuration("resolve", time.Since(start).Seconds())
	}()

	cmd := g.command().
		SkipDownload().
		NoPlaylist().
		PrintJSON()

	result, err := cmd.Run(ctx, url)
	if err != nil {
		g.metrics.RecordError("resolve", "run")
		return extractor.Metadata{}, fmt.Errorf("yt-dlp resolve: %w", err)
	}

	meta, err := firstMetadata(result)
	if err != nil {
		g.metrics.RecordError("resolve", "parse")
		return extractor.Metadata{}, err
	}

	g.metrics.RecordSuccess("resolve")
	g.logger.Debug(ctx, "Video resolved", observability.Fields{
		"url":      url,
		"video_id": meta.ID,
		"title":    meta.Title,
	})

	return meta, nil
}

// Fetch downloads req.URL to req.OutputPath, reporting progress
func (g *Gateway) Fetch(ctx context.Context, req extractor.FetchRequest) (extractor.Metadata, error) {
	start := time.Now()
	g.metrics.StartOperation("fetch")
	defer func() {
		g.metrics.EndOperation("fetch")
		g.metrics.RecordDuration("fetch", time.Since(start).Seconds())
	}()

	cmd := g.command().
		Format(g.format).
		NoPlaylist().
		ForceOverwrites().
		Output(req.OutputPath).
		PrintJSON()

	if req.OnProgress != nil {
		cmd.ProgressFunc(g.progressInterval, func(update ytdlp.ProgressUpdate) {
			if update.Status != ytdlp.ProgressStatusDownloading {
				return
			}
			req.OnProgress(progressEvent(update, time.Now()))
		})
	}

	result, err := cmd.Run(ctx, req.URL)
	if err != nil {
		g.metrics.RecordError("fetch", "run")
		return extractor.Metadata{}, fmt.Errorf("yt-dlp download: %w", err)
	}

	meta, err := firstMetadata(result)
	if err != nil {
		g.metrics.RecordError("fetch", "parse")
		return extractor.Metadata{}, err
	}

	g.metrics.RecordSuccess("fetch")
	return meta, nil
}

func (g *Gateway) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if g.binary != "" {
		cmd.SetExecutable(g.binary)
	}
	return cmd
}

func firstMetadata(result *ytdlp.Result) (extractor.Metadata, error) {
	infos, err := result.GetExtractedInfo()
	if err != nil {
		return extractor.Metadata{}, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil || infos[0].ID == "" {
		return extractor.Metadata{}, ErrNoMetadata
	}
	return toMetadata(infos[0]), nil
}

func toMetadata(info *ytdlp.ExtractedInfo) extractor.Metadata {
	meta := extractor.Metadata{
		ID:          info.ID,
		Title:       deref(info.Title),
		Uploader:    deref(info.Uploader),
		Description: deref(info.Description),
		Thumbnail:   deref(info.Thumbnail),
	}
	if info.Duration != nil {
		meta.Duration = domain.ClampDuration(*info.Duration)
	}
	return meta
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
