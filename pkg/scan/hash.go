package scan

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
)

const DefaultChunkSize = 32 * 1024

// Hasher computes content hashes by streaming files in fixed-size chunks
type Hasher struct {
	fs        billy.Filesystem
	chunkSize int
}

func NewHasher(fs billy.Filesystem, chunkSize int) *Hasher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Hasher{
		fs:        fs,
		chunkSize: chunkSize,
	}
}

// HashFile returns the hex-encoded MD5 digest of the file at path
func (h *Hasher) HashFile(path string) (string, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return h.Hash(f)
}

// Hash returns the hex-encoded MD5 digest of everything read from r
func (h *Hasher) Hash(r io.Reader) (string, error) {
	digest := md5.New()
	buf := make([]byte, h.chunkSize)
	if _, err := io.CopyBuffer(digest, onlyReader{r}, buf); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// onlyReader hides WriterTo/ReaderFrom so io.CopyBuffer honours the chunk size
type onlyReader struct {
	io.Reader
}
