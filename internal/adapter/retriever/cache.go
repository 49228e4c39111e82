package retriever

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

// Retriever downloads a dataset.
type Retriever interface {
	Retrieve(ctx context.Context, url string, compressed bool) (domain.RawDataset, error)
}

// CachedRetriever wraps a Retriever with an on-disk cache keyed by URL.
// A cached file is reused until it is deleted.
type CachedRetriever struct {
	inner  Retriever
	dir    string
	logger *slog.Logger
}

// NewCachedRetriever creates a cache decorator storing payloads under dir.
func NewCachedRetriever(inner Retriever, dir string, logger *slog.Logger) *CachedRetriever {
	return &CachedRetriever{inner: inner, dir: dir, logger: logger}
}

func (c *CachedRetriever) Retrieve(ctx context.Context, url string, compressed bool) (domain.RawDataset, error) {
	path := c.pathFor(url)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		c.logger.Info("dataset cache hit, skipping download", "url", url, "path", path)
		return domain.RawDataset{Data: data, Compressed: compressed}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return domain.RawDataset{}, fmt.Errorf("read cache %s: %w", path, err)
	}

	raw, err := c.inner.Retrieve(ctx, url, compressed)
	if err != nil {
		return raw, err
	}
	// A failed cache write only costs a re-download next time.
	if err := c.store(path, raw.Data); err != nil {
		c.logger.Warn("dataset cache write failed", "path", path, "error", err)
	}
	return raw, nil
}

// pathFor stores decompressed payloads, so the compressed flag is not part of the key.
func (c *CachedRetriever) pathFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8])+".csv")
}

func (c *CachedRetriever) store(path string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck // already failing
		os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return err
	}
	return os.Rename(tmp.Name(), path)
}
