package thumbnail

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DiskCache maps a (video, requester) pair to a rendered PNG. Entries never expire.
type DiskCache struct {
	dir string
}

func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{dir: dir}
}

func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) Path(videoID, requesterID string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.png", videoID, requesterID))
}

func (c *DiskCache) Lookup(videoID, requesterID string) (string, bool) {
	path := c.Path(videoID, requesterID)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Store writes img and returns its path. Concurrent stores for the same key
// are not coordinated; the last rename wins.
func (c *DiskCache) Store(videoID, requesterID string, img image.Image) (string, error) {
	const op = "thumbnail.Store"

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", stageErr(CacheWriteFailed, op, err)
	}

	f, err := os.CreateTemp(c.dir, ".render-*.png")
	if err != nil {
		return "", stageErr(CacheWriteFailed, op, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return "", stageErr(CacheWriteFailed, op, err)
	}
	if err := f.Close(); err != nil {
		return "", stageErr(CacheWriteFailed, op, err)
	}

	path := c.Path(videoID, requesterID)
	if err := os.Rename(tmp, path); err != nil {
		return "", stageErr(CacheWriteFailed, op, err)
	}
	return path, nil
}
