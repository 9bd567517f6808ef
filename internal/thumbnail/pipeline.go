package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"musicthumb/internal/models"
)

var ErrEmptyMetadata = errors.New("metadata missing or without thumbnail url")

// MetadataLookup resolves a video id to its metadata.
type MetadataLookup interface {
	Lookup(ctx context.Context, videoID string) (*models.VideoMetadata, error)
}

// ArtworkSource downloads and decodes cover art.
type ArtworkSource interface {
	Fetch(ctx context.Context, videoID, url string) (image.Image, error)
}

type Deps struct {
	Lookup      MetadataLookup
	Artwork     ArtworkSource
	Cache       *DiskCache
	Avatars     *AvatarCache
	Compositor  *Compositor
	FallbackURL string
	Log         *logrus.Entry
}

type Pipeline struct {
	lookup      MetadataLookup
	artwork     ArtworkSource
	cache       *DiskCache
	avatars     *AvatarCache
	compositor  *Compositor
	fallbackURL string
	log         *logrus.Entry
}

func NewPipeline(d Deps) *Pipeline {
	return &Pipeline{
		lookup:      d.Lookup,
		artwork:     d.Artwork,
		cache:       d.Cache,
		avatars:     d.Avatars,
		compositor:  d.Compositor,
		fallbackURL: d.FallbackURL,
		log:         d.Log,
	}
}

func (p *Pipeline) FallbackURL() string { return p.fallbackURL }

// Get returns the path of the rendered card for req, or the fallback URL.
// The returned string is always usable. A non-nil error accompanies the
// fallback only when the cache directory cannot be written.
func (p *Pipeline) Get(ctx context.Context, req models.ThumbnailRequest) (string, error) {
	if path, ok := p.cache.Lookup(req.VideoID, req.RequesterID); ok {
		return path, nil
	}

	path, err := p.render(ctx, req)
	if err == nil {
		return path, nil
	}

	entry := p.log.WithFields(logrus.Fields{
		"video_id":     req.VideoID,
		"requester_id": req.RequesterID,
		"kind":         KindOf(err).String(),
	}).WithError(err)

	switch KindOf(err) {
	case LookupUnavailable, DownloadFailed, DecodeFailed, RenderFailed:
		entry.Warn("thumbnail fallback")
		return p.fallbackURL, nil
	case CacheWriteFailed:
		entry.Error("thumbnail cache is not writable")
		return p.fallbackURL, err
	default:
		entry.Error("unclassified thumbnail failure")
		return p.fallbackURL, nil
	}
}

func (p *Pipeline) render(ctx context.Context, req models.ThumbnailRequest) (path string, err error) {
	const op = "thumbnail.render"

	defer func() {
		if r := recover(); r != nil {
			path = ""
			err = stageErr(RenderFailed, op, fmt.Errorf("panic: %v", r))
		}
	}()

	meta, err := p.lookup.Lookup(ctx, req.VideoID)
	if err != nil {
		return "", stageErr(LookupUnavailable, op, err)
	}
	if meta == nil || meta.ThumbnailURL == "" {
		return "", stageErr(LookupUnavailable, op, ErrEmptyMetadata)
	}
	m := meta.WithDefaults()

	art, err := p.artwork.Fetch(ctx, req.VideoID, m.ThumbnailURL)
	if err != nil {
		return "", asStage(DownloadFailed, op, err)
	}

	var avatar image.Image
	if p.avatars != nil {
		avatar = p.avatars.Get(ctx)
	}

	img, err := p.compositor.Render(art, m, avatar)
	if err != nil {
		return "", asStage(RenderFailed, op, err)
	}

	return p.cache.Store(req.VideoID, req.RequesterID, img)
}
