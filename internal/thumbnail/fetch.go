package thumbnail

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

// ArtworkFetcher downloads cover art through a transient file in the cache dir.
type ArtworkFetcher struct {
	client *http.Client
	dir    string
}

func NewArtworkFetcher(client *http.Client, dir string) *ArtworkFetcher {
	return &ArtworkFetcher{client: client, dir: dir}
}

// TempPath is where the artwork for videoID lives while it is being decoded.
func (f *ArtworkFetcher) TempPath(videoID string) string {
	return filepath.Join(f.dir, "t_"+videoID+".img")
}

func (f *ArtworkFetcher) Fetch(ctx context.Context, videoID, url string) (image.Image, error) {
	const op = "thumbnail.Fetch"

	data, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return nil, stageErr(CacheWriteFailed, op, err)
	}
	tmp := f.TempPath(videoID)
	defer os.Remove(tmp)

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return nil, stageErr(CacheWriteFailed, op, err)
	}

	img, err := imaging.Open(tmp)
	if err != nil {
		return nil, stageErr(DecodeFailed, op, err)
	}
	return img, nil
}

func (f *ArtworkFetcher) download(ctx context.Context, url string) ([]byte, error) {
	const op = "thumbnail.download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, stageErr(DownloadFailed, op, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, stageErr(DownloadFailed, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, stageErr(DownloadFailed, op, fmt.Errorf("artwork http status %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, stageErr(DownloadFailed, op, err)
	}
	return data, nil
}
