// Package catalog persists the records of completed downloads as a single
// JSON document and owns the media files they point to.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"vidcatalog/shared/observability"
	"vidcatalog/shared/storage/types"
	"vidcatalog/workers/downloader/internal/domain"
)

// Options locate the catalog document and media files in storage
type Options struct {
	// CatalogKey is the key of the JSON document, e.g. videos.json
	CatalogKey string
	// MediaDir and MediaExt derive a record's media key when it has none
	MediaDir string
	MediaExt string
}

// Store is the catalog of completed downloads.
// Every read-modify-write runs under one mutex, and the storage adapter
// replaces the document atomically, so concurrent completions cannot lose
// updates.
type Store struct {
	storage types.ObjectStorage
	opts    Options
	logger  observability.Logger
	metrics observability.Metrics
	mu      sync.Mutex
}

// NewStore creates a catalog on top of storage
func NewStore(storage types.ObjectStorage, opts Options, logger observability.Logger, metrics observability.Metrics) *Store {
	return &Store{
		storage: storage,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// List returns every record in completion order. A missing document is an
// empty catalog; an undecodable one fails with CORRUPT_STORE.
func (s *Store) List(ctx context.Context) ([]domain.VideoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := s.read(ctx)
	if err != nil {
		s.metrics.RecordError("catalog_list", errorCode(err))
		return nil, err
	}

	s.metrics.RecordSuccess("catalog_list")
	return records, nil
}

// Get looks up a record by id
func (s *Store) Get(ctx context.Context, id string) (domain.VideoRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := s.read(ctx)
	if err != nil {
		return domain.VideoRecord{}, false, err
	}

	for _, rec := range records {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return domain.VideoRecord{}, false, nil
}

// Append adds a record at the end of the catalog. Ids are unique: a second
// record with the same id fails with DUPLICATE_RECORD.
func (s *Store) Append(ctx context.Context, rec domain.VideoRecord) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration("catalog_append", time.Since(start).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := s.read(ctx)
	if err != nil {
		s.metrics.RecordError("catalog_append", errorCode(err))
		return err
	}

	for _, existing := range records {
		if existing.ID == rec.ID {
			s.metrics.RecordError("catalog_append", domain.CodeDuplicateRecord)
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, rec.ID)
		}
	}

	if err := s.write(ctx, append(records, rec)); err != nil {
		s.metrics.RecordError("catalog_append", errorCode(err))
		return err
	}

	s.metrics.RecordSuccess("catalog_append")
	s.logger.Info(ctx, "Record added to catalog", observability.Fields{
		"video_id": rec.ID,
		"title":    rec.Title,
		"filesize": rec.Filesize,
		"records":  len(records) + 1,
	})

	return nil
}

// Remove drops the record of id and then deletes its media file. Unknown
// ids, malformed ids and missing files are not errors. Nothing is written
// when no document exists. The document is rewritten before the media is
// deleted, so a failed write never leaves a record without its file.
func (s *Store) Remove(ctx context.Context, id string) error {
	if !domain.IsSafeID(id) {
		s.logger.Warn(ctx, "Ignored removal of malformed id", observability.Fields{"video_id": id})
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, exists, err := s.read(ctx)
	if err != nil {
		s.metrics.RecordError("catalog_remove", errorCode(err))
		return err
	}

	mediaKey := domain.MediaKey(s.opts.MediaDir, id, s.opts.MediaExt)
	kept := make([]domain.VideoRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == id {
			if rec.Filepath != "" {
				mediaKey = rec.Filepath
			}
			continue
		}
		kept = append(kept, rec)
	}

	if exists && len(kept) != len(records) {
		if err := s.write(ctx, kept); err != nil {
			s.metrics.RecordError("catalog_remove", errorCode(err))
			return err
		}
		s.logger.Info(ctx, "Record removed from catalog", observability.Fields{
			"video_id": id,
			"records":  len(kept),
		})
	}

	if err := s.storage.Delete(ctx, "", mediaKey); err != nil {
		s.metrics.RecordError("catalog_remove", domain.CodeIO)
		s.logger.Error(ctx, "Failed to delete media file", err, observability.Fields{
			"video_id": id,
			"key":      mediaKey,
		})
		return domain.NewIOError("failed to delete media file", err)
	}

	s.metrics.RecordSuccess("catalog_remove")
	return nil
}

// read decodes the document and reports whether it exists
func (s *Store) read(ctx context.Context) ([]domain.VideoRecord, bool, error) {
	rc, err := s.storage.Get(ctx, "", s.opts.CatalogKey)
	if err != nil {
		if errors.Is(err, types.ErrObjectNotFound) {
			return []domain.VideoRecord{}, false, nil
		}
		return nil, false, domain.NewIOError("failed to open catalog", err)
	}
	defer rc.Close()

	var records []domain.VideoRecord
	if err := json.NewDecoder(rc).Decode(&records); err != nil {
		s.logger.Error(ctx, "Catalog document is corrupt", err, observability.Fields{
			"key": s.opts.CatalogKey,
		})
		return nil, true, domain.NewCorruptStoreError(err)
	}

	if records == nil {
		records = []domain.VideoRecord{}
	}
	return records, true, nil
}

// write replaces the document with records
func (s *Store) write(ctx context.Context, records []domain.VideoRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return domain.NewIOError("failed to encode catalog", err)
	}

	size := int64(buf.Len())
	err := s.storage.Put(ctx, "", s.opts.CatalogKey, &buf, types.ObjectMetadata{
		ContentType:   "application/json",
		ContentLength: size,
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to write catalog", err, observability.Fields{
			"key": s.opts.CatalogKey,
		})
		return domain.NewIOError("failed to write catalog", err)
	}

	return nil
}

func errorCode(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "unknown"
}
