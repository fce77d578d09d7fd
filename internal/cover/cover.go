// Package cover keeps resized book covers on disk so notifications and
// desktop controllers can reference them by path.
package cover

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // covers are usually JPEG
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/nfnt/resize"
)

const (
	cacheDirName = "shelf/covers"
	maxAge       = 30 * 24 * time.Hour
	// Size is the edge, in pixels, covers are fitted into.
	Size = 256
)

// ErrNoCover is returned when the server has no image for an item.
var ErrNoCover = errors.New("no cover")

// Fetcher downloads the original cover image of a library item.
type Fetcher interface {
	Cover(ctx context.Context, itemID string) ([]byte, error)
}

// Cache stores resized covers as PNG files keyed by item id.
type Cache struct {
	dir   string
	fetch Fetcher

	mu  sync.Mutex
	now func() time.Time
}

// New creates a cache under baseDir, or the XDG cache home when empty.
func New(baseDir string, fetch Fetcher) (*Cache, error) {
	if baseDir == "" {
		baseDir = xdg.CacheHome
	}
	dir := filepath.Join(baseDir, cacheDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover cache: %w", err)
	}
	return &Cache{dir: dir, fetch: fetch, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) pathFor(itemID string) string {
	sum := sha256.Sum256([]byte(itemID))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+".png")
}

// Path returns the cached cover for itemID, downloading and resizing it
// first when missing or stale.
func (c *Cache) Path(ctx context.Context, itemID string) (string, error) {
	if itemID == "" {
		return "", ErrNoCover
	}
	path := c.pathFor(itemID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if info, err := os.Stat(path); err == nil && c.now().Sub(info.ModTime()) < maxAge {
		return path, nil
	}

	data, err := c.fetch.Cover(ctx, itemID)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrNoCover
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode cover: %w", err)
	}
	thumb := resize.Thumbnail(Size, Size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return "", fmt.Errorf("encode cover: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write cover: %w", err)
	}
	return path, nil
}

// Prune removes covers older than the cache lifetime and returns how many
// were deleted.
func (c *Cache) Prune() int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	cutoff := c.now().Add(-maxAge)

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(c.dir, entry.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}
