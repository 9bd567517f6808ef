package telegram

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNoProfilePhoto = errors.New("bot has no profile photo")

// AvatarSource downloads the bot's own current profile photo.
type AvatarSource struct {
	bot    *tgbotapi.BotAPI
	client *http.Client
}

func NewAvatarSource(token string, client *http.Client) (*AvatarSource, error) {
	const op = "telegram.NewAvatarSource"

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AvatarSource{bot: bot, client: client}, nil
}

func (s *AvatarSource) BotName() string { return s.bot.Self.UserName }

func (s *AvatarSource) FetchAvatar(ctx context.Context) (image.Image, error) {
	const op = "telegram.FetchAvatar"

	cfg := tgbotapi.NewUserProfilePhotos(s.bot.Self.ID)
	cfg.Limit = 1
	photos, err := s.bot.GetUserProfilePhotos(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoProfilePhoto)
	}

	// Sizes are ordered smallest first.
	sizes := photos.Photos[0]
	url, err := s.bot.GetFileDirectURL(sizes[len(sizes)-1].FileID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: photo http status %s", op, resp.Status)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}
