package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	obmocks "vidcatalog/shared/observability/mocks"
	"vidcatalog/shared/storage/adapters/fs"
	stmocks "vidcatalog/shared/storage/mocks"
	"vidcatalog/shared/storage/types"
	"vidcatalog/workers/downloader/internal/domain"
)

var testOptions = Options{
	CatalogKey: "videos.json",
	MediaDir:   "downloads",
	MediaExt:   ".mp4",
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	storage, err := fs.NewStorage(dir, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
	require.NoError(t, err)

	return NewStore(storage, testOptions, obmocks.NewNopLogger(), obmocks.NewNopMetrics()), dir
}

func record(id string) domain.VideoRecord {
	return domain.VideoRecord{
		ID:       id,
		Title:    "Video " + id,
		Duration: 61,
		Uploader: "uploader",
		Filepath: "downloads/" + id + ".mp4",
		Filesize: 1536,
	}
}

func writeMedia(t *testing.T, dir, id string) string {
	t.Helper()
	p := filepath.Join(dir, "downloads", id+".mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("media"), 0o644))
	return p
}

func TestStore_ListMissingDocument(t *testing.T) {
	store, _ := newTestStore(t)

	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestStore_ListCorruptDocument(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "videos.json"), []byte("{not json"), 0o644))

	_, err := store.List(context.Background())
	assert.True(t, errors.Is(err, domain.ErrCorruptStore))

	err = store.Append(context.Background(), record("a"))
	assert.True(t, errors.Is(err, domain.ErrCorruptStore))

	err = store.Remove(context.Background(), "a")
	assert.True(t, errors.Is(err, domain.ErrCorruptStore))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestStore(t)

	require.NoError(t, store.Append(ctx, record("a")))
	require.NoError(t, store.Append(ctx, record("b")))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)

	rec, found, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record("b"), rec)

	media := writeMedia(t, dir, "a")
	require.NoError(t, store.Remove(ctx, "a"))

	records, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].ID)
	assert.NoFileExists(t, media)

	_, found, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_AppendRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Append(ctx, record("a")))
	err := store.Append(ctx, record("a"))
	assert.True(t, errors.Is(err, domain.ErrDuplicateRecord))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestStore(t)

	require.NoError(t, store.Append(ctx, record("a")))
	writeMedia(t, dir, "a")

	require.NoError(t, store.Remove(ctx, "a"))
	require.NoError(t, store.Remove(ctx, "a"))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_RemoveWithoutDocument(t *testing.T) {
	store, dir := newTestStore(t)
	media := writeMedia(t, dir, "orphan")

	require.NoError(t, store.Remove(context.Background(), "orphan"))

	assert.NoFileExists(t, media)
	assert.NoFileExists(t, filepath.Join(dir, "videos.json"))
}

func TestStore_RemoveIgnoresEscapingID(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestStore(t)

	require.NoError(t, store.Append(ctx, record("other")))
	media := writeMedia(t, dir, "other")

	for _, id := range []string{"zzz/../other", "../downloads/other", `zzz\..\other`, ".."} {
		require.NoError(t, store.Remove(ctx, id))
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "other", records[0].ID)
	assert.FileExists(t, media)
}

// failingPut is filesystem storage whose writes fail once armed
type failingPut struct {
	*fs.Storage
	fail bool
}

func (f *failingPut) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Storage.Put(ctx, bucket, key, reader, metadata)
}

func TestStore_DocumentFormat(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestStore(t)

	rec := record("a")
	rec.Title = "中文标题 <Live> & more"
	require.NoError(t, store.Append(ctx, rec))

	data, err := os.ReadFile(filepath.Join(dir, "videos.json"))
	require.NoError(t, err)

	assert.Contains(t, string(data), "中文标题 <Live> & more")
	assert.Contains(t, string(data), "\n  {")
	assert.Contains(t, string(data), `"filepath": "downloads/a.mp4"`)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, record(fmt.Sprintf("v%d", i))))
		}(i)
	}
	wg.Wait()

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestStore_IOErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("open failure", func(t *testing.T) {
		storage := new(stmocks.MockObjectStorage)
		storage.On("Get", mock.Anything, "", "videos.json").Return(nil, errors.New("permission denied"))

		store := NewStore(storage, testOptions, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
		_, err := store.List(ctx)

		assert.True(t, errors.Is(err, domain.ErrIO))
		assert.False(t, errors.Is(err, domain.ErrCorruptStore))
	})

	t.Run("media delete failure", func(t *testing.T) {
		storage := new(stmocks.MockObjectStorage)
		storage.On("Get", mock.Anything, "", "videos.json").Return(nil, types.ErrObjectNotFound)
		storage.On("Delete", mock.Anything, "", "downloads/a.mp4").Return(errors.New("read-only filesystem"))

		store := NewStore(storage, testOptions, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
		err := store.Remove(ctx, "a")

		assert.True(t, errors.Is(err, domain.ErrIO))
		storage.AssertExpectations(t)
	})

	t.Run("write failure", func(t *testing.T) {
		storage := new(stmocks.MockObjectStorage)
		storage.On("Get", mock.Anything, "", "videos.json").Return(nil, types.ErrObjectNotFound)
		storage.On("Put", mock.Anything, "", "videos.json", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		store := NewStore(storage, testOptions, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
		err := store.Append(ctx, record("a"))

		assert.True(t, errors.Is(err, domain.ErrIO))
	})

	t.Run("write failure keeps media of remaining record", func(t *testing.T) {
		dir := t.TempDir()
		local, err := fs.NewStorage(dir, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
		require.NoError(t, err)
		storage := &failingPut{Storage: local}

		store := NewStore(storage, testOptions, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
		require.NoError(t, store.Append(ctx, record("a")))
		media := writeMedia(t, dir, "a")

		storage.fail = true
		err = store.Remove(ctx, "a")

		assert.True(t, errors.Is(err, domain.ErrIO))
		records, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.FileExists(t, media)
	})

	t.Run("media delete failure after rewrite", func(t *testing.T) {
		storage := new(stmocks.MockObjectStorage)
		doc := `[{"id":"a","filepath":"downloads/a.mp4"}]`
		storage.On("Get", mock.Anything, "", "videos.json").Return(io.NopCloser(strings.NewReader(doc)), nil)
		storage.On("Put", mock.Anything, "", "videos.json", mock.Anything, mock.Anything).Return(nil).Once()
		storage.On("Delete", mock.Anything, "", "downloads/a.mp4").Return(errors.New("read-only filesystem"))

		store := NewStore(storage, testOptions, obmocks.NewNopLogger(), obmocks.NewNopMetrics())
		err := store.Remove(ctx, "a")

		assert.True(t, errors.Is(err, domain.ErrIO))
		storage.AssertExpectations(t)
	})
}
