// Package fs implements types.ObjectStorage on the local filesystem.
// Buckets are subdirectories of the base path and keys are slash separated
// paths below them. Writes are atomic: content goes to a temporary file in
// the target directory which is then renamed over the destination.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vidcatalog/shared/observability"
	"vidcatalog/shared/storage/types"
)

// tempPrefix marks in-flight writes; List skips them
const tempPrefix = ".tmp-"

// Storage implements ObjectStorage using the local filesystem
type Storage struct {
	basePath string
	logger   observability.Logger
	metrics  observability.Metrics
}

// NewStorage creates a filesystem-backed object storage rooted at basePath,
// creating the directory if needed.
func NewStorage(basePath string, logger observability.Logger, metrics observability.Metrics) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &Storage{
		basePath: abs,
		logger:   logger.WithFields(observability.Fields{"storage": "filesystem"}),
		metrics:  metrics,
	}, nil
}

// BasePath returns the absolute root directory
func (s *Storage) BasePath() string {
	return s.basePath
}

// Path returns the file backing bucket/key. Keys that would escape the
// base path are rejected with ErrInvalidKey.
func (s *Storage) Path(bucket, key string) (string, error) {
	if key == "" || strings.HasSuffix(key, "/") {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidKey, key)
	}

	rel := path.Clean(path.Join(bucket, key))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidKey, key)
	}

	return filepath.Join(s.basePath, filepath.FromSlash(rel)), nil
}

// Put stores an object atomically
func (s *Storage) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDuration("put", time.Since(start).Seconds())
	}()

	objectPath, err := s.Path(bucket, key)
	if err != nil {
		s.metrics.RecordError("put", "invalid_key")
		return err
	}

	dir := filepath.Dir(objectPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.metrics.RecordError("put", "mkdir")
		s.logger.Error(ctx, "failed to create directory", err, observability.Fields{"path": dir})
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(objectPath)+"-*")
	if err != nil {
		s.metrics.RecordError("put", "create")
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	written, err := io.Copy(tmp, reader)
	if err != nil {
		cleanup()
		s.metrics.RecordError("put", "write")
		s.logger.Error(ctx, "failed to write object", err, observability.Fields{"bucket": bucket, "key": key})
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		s.metrics.RecordError("put", "sync")
		return fmt.Errorf("failed to sync data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		s.metrics.RecordError("put", "close")
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, objectPath); err != nil {
		_ = os.Remove(tmpName)
		s.metrics.RecordError("put", "rename")
		s.logger.Error(ctx, "failed to commit object", err, observability.Fields{"path": objectPath})
		return fmt.Errorf("failed to commit object: %w", err)
	}

	s.metrics.RecordSuccess("put")
	s.logger.Debug(ctx, "object stored", observability.Fields{
		"bucket":       bucket,
		"key":          key,
		"bytes":        written,
		"content_type": metadata.ContentType,
	})

	return nil
}

// Get retrieves an object
func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	objectPath, err := s.Path(bucket, key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(objectPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.ErrObjectNotFound
		}
		s.metrics.RecordError("get", "open")
		s.logger.Error(ctx, "failed to open object", err, observability.Fields{"path": objectPath})
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	s.metrics.RecordSuccess("get")
	return file, nil
}

// GetWithMetadata retrieves an object with metadata derived from the file
func (s *Storage) GetWithMetadata(ctx context.Context, bucket, key string) (io.ReadCloser, *types.ObjectMetadata, error) {
	reader, err := s.Get(ctx, bucket, key)
	if err != nil {
		return nil, nil, err
	}

	file := reader.(*os.File)
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return file, &types.ObjectMetadata{
		ContentType:   contentType(key),
		ContentLength: stat.Size(),
		LastModified:  stat.ModTime(),
	}, nil
}

// Delete removes an object; a missing object is not an error
func (s *Storage) Delete(ctx context.Context, bucket, key string) error {
	objectPath, err := s.Path(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(objectPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.metrics.RecordError("delete", "remove")
		s.logger.Error(ctx, "failed to delete object", err, observability.Fields{"path": objectPath})
		return fmt.Errorf("failed to delete object: %w", err)
	}

	s.metrics.RecordSuccess("delete")
	s.logger.Debug(ctx, "object deleted", observability.Fields{"bucket": bucket, "key": key})
	return nil
}

// Exists checks if an object exists
func (s *Storage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	objectPath, err := s.Path(bucket, key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(objectPath)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}

// List returns objects in a bucket whose key starts with prefix
func (s *Storage) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	root := filepath.Join(s.basePath, filepath.FromSlash(bucket))

	var objects []types.ObjectInfo
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, types.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return objects, nil
}

// mediaTypes covers extensions missing from Go's builtin mime table
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".m4a":  "audio/mp4",
}

func contentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
