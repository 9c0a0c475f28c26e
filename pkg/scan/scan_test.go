package scan

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Hex(data string) string {
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

func TestHasher_HashFile(t *testing.T) {
	fs := memfs.New()
	content := strings.Repeat("photo-bytes-", 10_000)
	require.NoError(t, util.WriteFile(fs, "/a/cat.jpg", []byte(content), 0o644))

	for _, chunk := range []int{0, 1, 7, 4096, 1 << 20} {
		hash, err := NewHasher(fs, chunk).HashFile("/a/cat.jpg")
		require.NoError(t, err)
		assert.Equal(t, md5Hex(content), hash, "chunk size %d", chunk)
	}
}

func TestHasher_DifferentContentDiffers(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/a.jpg", []byte("first"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/b.jpg", []byte("second"), 0o644))

	h := NewHasher(fs, 0)
	a, err := h.HashFile("/a.jpg")
	require.NoError(t, err)
	b, err := h.HashFile("/b.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHasher_MissingFile(t *testing.T) {
	_, err := NewHasher(memfs.New(), 0).HashFile("/missing.jpg")
	assert.Error(t, err)
}

func TestIsPhotoFile(t *testing.T) {
	assert.True(t, IsPhotoFile("IMG_0001.JPG"))
	assert.True(t, IsPhotoFile("/x/y/raw.nef"))
	assert.False(t, IsPhotoFile("notes.txt"))
	assert.False(t, IsPhotoFile("noext"))
}

func TestScanner_Start(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/drive/one.jpg", []byte("one"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/drive/sub/two.png", []byte("two"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/drive/readme.txt", []byte("text"), 0o644))
	require.NoError(t, util.WriteFile(fs, "/drive/.Trashes/old.jpg", []byte("old"), 0o644))

	known := map[string]uint{md5Hex("one"): 42}
	scanner := NewScanner(fs, NewHasher(fs, 2))

	var results []Result
	for result := range scanner.Start(context.Background(), "/drive", known) {
		require.NoError(t, result.Err)
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	require.Len(t, results, 2)

	assert.Equal(t, "/drive/one.jpg", results[0].Path)
	assert.True(t, results[0].Known())
	assert.Equal(t, uint(42), results[0].ImageID)

	assert.Equal(t, "/drive/sub/two.png", results[1].Path)
	assert.False(t, results[1].Known())
	assert.Equal(t, md5Hex("two"), results[1].Hash)
}

func TestScanner_Start_Cancelled(t *testing.T) {
	fs := memfs.New()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, util.WriteFile(fs, "/drive/"+name+".jpg", []byte(name), 0o644))
	}

	ctx, cancel := context.WithCancel(context.Background())
	results := NewScanner(fs, NewHasher(fs, 0)).Start(ctx, "/drive", nil)

	first, ok := <-results
	require.True(t, ok)
	require.NoError(t, first.Err)
	cancel()

	remaining := 0
	for range results {
		remaining++
	}
	assert.LessOrEqual(t, remaining, 1)
}

func TestScanner_Start_MissingRoot(t *testing.T) {
	fs := memfs.New()

	var errs []error
	for result := range NewScanner(fs, NewHasher(fs, 0)).Start(context.Background(), "/nowhere", nil) {
		errs = append(errs, result.Err)
	}

	require.NotEmpty(t, errs)
	assert.Error(t, errs[0])
}
