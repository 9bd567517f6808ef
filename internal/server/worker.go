package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"musicthumb/internal/models"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// RunWorker renders queued jobs until ctx is cancelled.
func RunWorker(ctx context.Context, reader MessageReader, thumbs Thumbnailer, log *logrus.Entry) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("error reading message")
			continue
		}

		result, err := ProcessRenderJob(ctx, msg, thumbs)
		if err != nil {
			log.WithError(err).WithField("offset", msg.Offset).Error("error processing render job")
			continue
		}
		log.WithField("result", result).Debug("render job done")
	}
}

func ProcessRenderJob(ctx context.Context, msg kafka.Message, thumbs Thumbnailer) (string, error) {
	const op = "server.ProcessRenderJob"

	var job models.RenderJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := validateRequest(job.Request); err != nil {
		return "", fmt.Errorf("%s: job %s: %w", op, job.ID, err)
	}

	result, err := thumbs.Get(ctx, job.Request)
	if err != nil {
		return result, fmt.Errorf("%s: job %s: %w", op, job.ID, err)
	}
	return result, nil
}
