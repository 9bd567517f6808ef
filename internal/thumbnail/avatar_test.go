package thumbnail

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	img   image.Image
	err   error
}

func (s *countingSource) FetchAvatar(context.Context) (image.Image, error) {
	s.calls.Add(1)
	return s.img, s.err
}

func TestAvatarCache_FetchesOnce(t *testing.T) {
	src := &countingSource{img: solid(240, 240, color.NRGBA{R: 255, A: 255})}
	c := NewAvatarCache(src, testLog())
	require.Equal(t, AvatarUnfetched, c.State())

	results := make([]image.Image, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get(context.Background())
		}(i)
	}
	wg.Wait()

	for _, img := range results {
		require.NotNil(t, img)
		require.Equal(t, image.Rect(0, 0, AvatarSize, AvatarSize), img.Bounds())
	}

	require.EqualValues(t, 1, src.calls.Load())
	require.Equal(t, AvatarFetched, c.State())
}

func TestAvatarCache_FailureIsNotRetried(t *testing.T) {
	src := &countingSource{err: errors.New("no network")}
	c := NewAvatarCache(src, testLog())

	for i := 0; i < 5; i++ {
		require.Nil(t, c.Get(context.Background()))
	}
	require.EqualValues(t, 1, src.calls.Load())
	require.Equal(t, AvatarFailed, c.State())
}

func TestAvatarCache_EmptyResultFails(t *testing.T) {
	src := &countingSource{}
	c := NewAvatarCache(src, testLog())

	require.Nil(t, c.Get(context.Background()))
	require.Equal(t, AvatarFailed, c.State())
}

func TestAvatarCache_NilSource(t *testing.T) {
	c := NewAvatarCache(nil, testLog())
	require.Nil(t, c.Get(context.Background()))
	require.Equal(t, AvatarFailed, c.State())
}

func TestPrepareAvatar_Circular(t *testing.T) {
	img := PrepareAvatar(solid(50, 50, color.NRGBA{G: 255, A: 255}))
	_, _, _, a := img.At(0, 0).RGBA()
	require.Zero(t, a)
	_, _, _, a = img.At(AvatarSize/2, AvatarSize/2).RGBA()
	require.EqualValues(t, 0xffff, a)
}
