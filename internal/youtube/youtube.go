package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ytdl "github.com/kkdai/youtube/v2"
	"golang.org/x/text/unicode/norm"

	"musicthumb/internal/models"
)

var (
	ErrNoVideoID   = errors.New("empty video id")
	ErrNoVideo     = errors.New("video not found")
	ErrNoThumbnail = errors.New("video has no thumbnail")
)

// Client looks up video metadata without downloading any stream.
type Client struct {
	yt *ytdl.Client
}

func NewClient(httpClient *http.Client) *Client {
	return &Client{yt: &ytdl.Client{HTTPClient: httpClient}}
}

func (c *Client) Lookup(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	const op = "youtube.Lookup"

	if strings.TrimSpace(videoID) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoVideoID)
	}

	v, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	meta, err := toMetadata(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return meta, nil
}

func toMetadata(v *ytdl.Video) (*models.VideoMetadata, error) {
	if v == nil {
		return nil, ErrNoVideo
	}

	thumb := bestThumbnail(v.Thumbnails)
	if thumb == "" {
		return nil, ErrNoThumbnail
	}

	return &models.VideoMetadata{
		Title:        norm.NFC.String(v.Title),
		ThumbnailURL: thumb,
		Uploader:     v.Author,
		ViewCount:    int64(v.Views),
		Duration:     FormatDuration(v.Duration),
	}, nil
}

// bestThumbnail picks the widest thumbnail; on equal width the later one wins.
func bestThumbnail(thumbs []ytdl.Thumbnail) string {
	var (
		url   string
		width uint
	)
	for _, t := range thumbs {
		if t.URL == "" {
			continue
		}
		if url == "" || t.Width >= width {
			url, width = t.URL, t.Width
		}
	}
	return url
}

// FormatDuration renders d as m:ss or h:mm:ss. Zero yields "".
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	if total <= 0 {
		return ""
	}
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
