package hashing

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/extraction-cache/internal/core/domain/apperr"
)

// DefaultChunkSize is the read buffer used when none is configured.
const DefaultChunkSize = 8192

// SHA256Hasher streams files through a SHA-256 digester in fixed-size chunks,
// so memory use does not depend on file size.
type SHA256Hasher struct {
	chunkSize int
	logger    *logrus.Logger
}

// NewSHA256Hasher creates a hasher. chunkSize <= 0 selects DefaultChunkSize.
func NewSHA256Hasher(chunkSize int, logger *logrus.Logger) *SHA256Hasher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &SHA256Hasher{chunkSize: chunkSize, logger: logger}
}

// Fingerprint returns the hex-encoded SHA-256 of the file at path.
// On error no digest is returned.
func (h *SHA256Hasher) Fingerprint(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperr.FromIO("open file", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", apperr.FromIO("stat file", path, err)
	}
	if info.IsDir() {
		return "", apperr.IO("read file", fmt.Errorf("%s is a directory", path))
	}

	digester := digest.Canonical.Digester()
	hash := digester.Hash()
	buf := make([]byte, h.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", apperr.IO("read file", err)
		}
		n, err := f.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", apperr.FromIO("read file", path, err)
		}
	}

	fp := digester.Digest().Encoded()
	if h.logger != nil {
		h.logger.WithFields(logrus.Fields{"path": path, "fingerprint": fp, "size": info.Size()}).Debug("file fingerprinted")
	}
	return fp, nil
}
