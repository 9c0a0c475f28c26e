package catalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/db/models"
	"github.com/mwantia/photocat/pkg/db/store"
	"github.com/mwantia/photocat/pkg/log"
	"github.com/mwantia/photocat/pkg/refcode"
	"github.com/mwantia/photocat/pkg/scan"
)

func md5Hex(data string) string {
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

type fixture struct {
	store   *store.SQLiteStore
	fs      billy.Filesystem
	service *Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })

	fs := memfs.New()
	logger := log.NewLoggerServiceWithWriter("test", config.LogServerConfig{Level: "DEBUG", NoColor: true}, io.Discard)
	service := NewService(s, refcode.New(refcode.Config{Prefix: "REF"}), fs, scan.NewHasher(fs, 16), logger, opts)

	return &fixture{store: s, fs: fs, service: service}
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(f.fs, path, []byte(content), 0o644))
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.write(t, "/a/cat.jpg", "cat-bytes")
	f.write(t, "/b/cat_copy.jpg", "cat-bytes")
	f.write(t, "/a/dog.jpg", "dog-bytes")

	first, err := f.service.Import(ctx, "/a/cat.jpg")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "REF-000001", first.Image.ReferenceCode)
	assert.Equal(t, md5Hex("cat-bytes"), first.Image.ContentHash)
	assert.Equal(t, "cat.jpg", first.Image.Metadata["original_name"])
	assert.EqualValues(t, len("cat-bytes"), first.Image.Metadata["size_bytes"])

	// Same bytes under another path become a location, not a second image
	copied, err := f.service.Import(ctx, "/b/cat_copy.jpg")
	require.NoError(t, err)
	assert.False(t, copied.Created)
	assert.Equal(t, first.Image.ID, copied.Image.ID)
	assert.Equal(t, []string{"/a/cat.jpg", "/b/cat_copy.jpg"}, copied.Image.Paths())

	dog, err := f.service.Import(ctx, "/a/dog.jpg")
	require.NoError(t, err)
	assert.True(t, dog.Created)
	assert.Equal(t, "REF-000002", dog.Image.ReferenceCode)
	assert.NotEqual(t, first.Image.ContentHash, dog.Image.ContentHash)

	listing, err := f.store.ListAllWithTags(ctx)
	require.NoError(t, err)
	assert.Len(t, listing, 2)
}

func TestService_Import_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.service.Import(ctx, "/missing.jpg")
	assert.Error(t, err)

	require.NoError(t, f.fs.MkdirAll("/dir", 0o755))
	_, err = f.service.Import(ctx, "/dir")
	assert.True(t, errors.Is(err, store.ErrValidation))
}

func TestService_RestoreAllocator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.store.AddImage(ctx, "/old.jpg", "H-old", "REF-000041", nil)
	require.NoError(t, err)
	require.NoError(t, f.service.RestoreAllocator(ctx))

	f.write(t, "/new.jpg", "new")
	result, err := f.service.Import(ctx, "/new.jpg")
	require.NoError(t, err)
	assert.Equal(t, "REF-000042", result.Image.ReferenceCode)
}

func TestService_CopyOnImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{ProjectDir: "/project", CopyOnImport: true})

	f.write(t, "/camera/IMG_0001.JPG", "sunset")

	result, err := f.service.Import(ctx, "/camera/IMG_0001.JPG")
	require.NoError(t, err)
	require.NotNil(t, result.Image.ProjectPath)
	assert.Equal(t, "REF-000001.jpg", *result.Image.ProjectPath)

	require.Len(t, result.Image.Locations, 2)
	assert.Equal(t, "/camera/IMG_0001.JPG", result.Image.Locations[0].FilePath)
	assert.False(t, result.Image.Locations[0].IsInProjectFolder)
	assert.Equal(t, "/project/REF-000001.jpg", result.Image.Locations[1].FilePath)
	assert.True(t, result.Image.Locations[1].IsInProjectFolder)

	data, err := util.ReadFile(f.fs, "/project/REF-000001.jpg")
	require.NoError(t, err)
	assert.Equal(t, "sunset", string(data))
}

func TestService_CopyToProject_RequiresProjectDir(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.write(t, "/a.jpg", "a")
	result, err := f.service.Import(ctx, "/a.jpg")
	require.NoError(t, err)

	_, err = f.service.CopyToProject(ctx, result.Image.ID)
	assert.True(t, errors.Is(err, store.ErrValidation))
}

func TestService_InProject(t *testing.T) {
	f := newFixture(t, Options{ProjectDir: "/project/"})

	assert.True(t, f.service.InProject("/project/a.jpg"))
	assert.True(t, f.service.InProject("/project/sub/../b.jpg"))
	assert.False(t, f.service.InProject("/project"))
	assert.False(t, f.service.InProject("/projects/a.jpg"))
	assert.False(t, f.service.InProject("/elsewhere/a.jpg"))
}

func TestService_UpdateMetadataAndTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.write(t, "/a.jpg", "a")
	result, err := f.service.Import(ctx, "/a.jpg")
	require.NoError(t, err)
	id := result.Image.ID

	require.NoError(t, f.service.UpdateMetadata(ctx, id, models.Metadata{"title": "Harbour"}, true))
	image, err := f.store.GetImage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Harbour", image.Metadata["title"])
	assert.Equal(t, "a.jpg", image.Metadata["original_name"])

	require.NoError(t, f.service.UpdateMetadata(ctx, id, models.Metadata{"title": "Only"}, false))
	image, err = f.store.GetImage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.Metadata{"title": "Only"}, image.Metadata)

	require.NoError(t, f.service.TagImage(ctx, id, "sunset", "beach", "sunset"))
	names, err := f.store.GetTags(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "sunset"}, names)
}

func TestService_Rescan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	f.write(t, "/library/cat.jpg", "cat")
	_, err := f.service.Import(ctx, "/library/cat.jpg")
	require.NoError(t, err)

	f.write(t, "/drive/backup/cat.jpg", "cat")
	f.write(t, "/drive/new/bird.png", "bird")
	f.write(t, "/drive/new/bird_copy.png", "bird")
	f.write(t, "/drive/notes.txt", "ignored")

	t.Run("known only", func(t *testing.T) {
		report, err := f.service.Rescan(ctx, "/drive", false)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Scanned)
		assert.Equal(t, 1, report.Added)
		assert.Equal(t, 2, report.Ignored)
		assert.Equal(t, 0, report.Imported)
	})

	t.Run("import new", func(t *testing.T) {
		report, err := f.service.Rescan(ctx, "/drive", true)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Scanned)
		assert.Equal(t, 2, report.Added)
		assert.Equal(t, 1, report.Imported)
		assert.Equal(t, 0, report.Failed)
	})

	cat, err := f.store.GetImageByHash(ctx, md5Hex("cat"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/library/cat.jpg", "/drive/backup/cat.jpg"}, cat.Paths())

	bird, err := f.store.GetImageByHash(ctx, md5Hex("bird"))
	require.NoError(t, err)
	require.NotNil(t, bird)
	assert.ElementsMatch(t, []string{"/drive/new/bird.png", "/drive/new/bird_copy.png"}, bird.Paths())
}
