package thumbnail

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

const avatarFetchTimeout = 15 * time.Second

var ErrNoAvatar = errors.New("avatar source returned no image")

// AvatarSource fetches the raw profile picture that is overlaid on every card.
type AvatarSource interface {
	FetchAvatar(ctx context.Context) (image.Image, error)
}

type AvatarState int

const (
	AvatarUnfetched AvatarState = iota
	AvatarFetched
	AvatarFailed
)

// AvatarCache fetches the avatar at most once per lifetime. A failed fetch
// is remembered and never retried.
type AvatarCache struct {
	source AvatarSource
	log    *logrus.Entry

	once  sync.Once
	mu    sync.RWMutex
	state AvatarState
	img   image.Image
}

func NewAvatarCache(source AvatarSource, log *logrus.Entry) *AvatarCache {
	return &AvatarCache{source: source, log: log}
}

// Get returns the circular avatar, or nil if it is unavailable.
func (c *AvatarCache) Get(ctx context.Context) image.Image {
	c.once.Do(func() { c.fetch(ctx) })

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img
}

func (c *AvatarCache) State() AvatarState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *AvatarCache) fetch(ctx context.Context) {
	if c.source == nil {
		c.set(AvatarFailed, nil)
		return
	}

	// The result outlives the caller that happened to trigger the fetch.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), avatarFetchTimeout)
	defer cancel()

	raw, err := c.source.FetchAvatar(fctx)
	if err == nil && raw == nil {
		err = ErrNoAvatar
	}
	if err != nil {
		c.log.WithError(err).Warn("avatar unavailable, rendering without it")
		c.set(AvatarFailed, nil)
		return
	}

	c.set(AvatarFetched, PrepareAvatar(raw))
	c.log.Info("avatar cached")
}

func (c *AvatarCache) set(state AvatarState, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.img = img
}

// PrepareAvatar scales img to AvatarSize and clips it to a circle.
func PrepareAvatar(img image.Image) image.Image {
	resized := imaging.Resize(img, AvatarSize, AvatarSize, imaging.Lanczos)
	return clipCircle(resized, AvatarSize)
}
