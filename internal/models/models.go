// internal/models/models.go
package models

import "github.com/google/uuid"

// ThumbnailRequest identifies one render. Both fields are used verbatim in the cache key.
type ThumbnailRequest struct {
	VideoID     string `json:"video_id" binding:"required"`
	RequesterID string `json:"requester_id" binding:"required"`
}

type VideoMetadata struct {
	Title        string
	ThumbnailURL string
	Uploader     string
	ViewCount    int64
	Duration     string
}

const (
	UnknownTitle    = "Unknown Song"
	UnknownUploader = "Unknown"
	UnknownDuration = "0:00"
)

// WithDefaults fills the optional fields the lookup may leave empty.
func (m VideoMetadata) WithDefaults() VideoMetadata {
	if m.Title == "" {
		m.Title = UnknownTitle
	}
	if m.Uploader == "" {
		m.Uploader = UnknownUploader
	}
	if m.ViewCount < 0 {
		m.ViewCount = 0
	}
	if m.Duration == "" {
		m.Duration = UnknownDuration
	}
	return m
}

// RenderJob is the Kafka payload for asynchronous cache warm-up.
type RenderJob struct {
	ID      uuid.UUID        `json:"id"`
	Request ThumbnailRequest `json:"request"`
}

// SudoerKey is the fixed logical name of the persisted sudoer document.
const SudoerKey = "sudo"

type SudoerDocument struct {
	Name    string  `db:"name" bson:"sudo"`
	UserIDs []int64 `db:"user_ids" bson:"sudoers"`
}
