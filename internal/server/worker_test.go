package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"musicthumb/internal/models"
)

type scriptedReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func jobMessage(t *testing.T, videoID, requesterID string) kafka.Message {
	payload, err := json.Marshal(models.RenderJob{
		ID:      uuid.New(),
		Request: models.ThumbnailRequest{VideoID: videoID, RequesterID: requesterID},
	})
	require.NoError(t, err)
	return kafka.Message{Value: payload}
}

func TestProcessRenderJob(t *testing.T) {
	thumbs := &fakeThumbs{result: "/cache/abc_7.png"}

	got, err := ProcessRenderJob(context.Background(), jobMessage(t, "abc", "7"), thumbs)
	require.NoError(t, err)
	require.Equal(t, "/cache/abc_7.png", got)

	_, err = ProcessRenderJob(context.Background(), kafka.Message{Value: []byte("{")}, thumbs)
	require.Error(t, err)

	_, err = ProcessRenderJob(context.Background(), jobMessage(t, "../x", "7"), thumbs)
	require.Error(t, err)

	require.Len(t, thumbs.reqs, 1)
}

func TestProcessRenderJob_PropagatesCacheError(t *testing.T) {
	thumbs := &fakeThumbs{result: fallbackURL, err: errors.New("read-only file system")}

	got, err := ProcessRenderJob(context.Background(), jobMessage(t, "abc", "7"), thumbs)
	require.Error(t, err)
	require.Equal(t, fallbackURL, got)
}

func TestRunWorker_DrainsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &scriptedReader{
		msgs: []kafka.Message{
			jobMessage(t, "a", "1"),
			{Value: []byte("garbage")},
			jobMessage(t, "b", "2"),
		},
		cancel: cancel,
	}
	thumbs := &fakeThumbs{result: "/cache/x.png"}

	RunWorker(ctx, reader, thumbs, testLog())

	require.Equal(t, []models.ThumbnailRequest{
		{VideoID: "a", RequesterID: "1"},
		{VideoID: "b", RequesterID: "2"},
	}, thumbs.reqs)
}
