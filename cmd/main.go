package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"musicthumb/internal/models"
	"musicthumb/internal/server"
	"musicthumb/internal/storage"
	"musicthumb/internal/sudoers"
	"musicthumb/internal/telegram"
	"musicthumb/internal/thumbnail"
	"musicthumb/internal/youtube"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := models.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	timeout, _ := cfg.Timeout()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The bot cannot run without its authorization store.
	logrus.Info("Connecting to the sudoer database...")
	db, err := storage.Open(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to init storage: %v", err)
	}
	defer db.Close()

	reg := sudoers.New(cfg.OwnerID, db, logrus.WithField("component", "sudoers"))
	if err := reg.Load(ctx); err != nil {
		logrus.Fatalf("failed to load sudoers: %v", err)
	}

	httpClient := &http.Client{Timeout: timeout}

	var avatarSource thumbnail.AvatarSource
	if cfg.TelegramToken != "" {
		src, err := telegram.NewAvatarSource(cfg.TelegramToken, httpClient)
		if err != nil {
			logrus.WithError(err).Warn("telegram unavailable, cards will have no avatar")
		} else {
			logrus.Infof("Authorized on account %s", src.BotName())
			avatarSource = src
		}
	}

	pipeline := thumbnail.NewPipeline(thumbnail.Deps{
		Lookup:      youtube.NewClient(httpClient),
		Artwork:     thumbnail.NewArtworkFetcher(httpClient, cfg.CacheDir),
		Cache:       thumbnail.NewDiskCache(cfg.CacheDir),
		Avatars:     thumbnail.NewAvatarCache(avatarSource, logrus.WithField("component", "avatar")),
		Compositor:  thumbnail.NewCompositor(thumbnail.NewFonts(cfg.FontsDir, logrus.WithField("component", "fonts")), cfg.WatermarkText),
		FallbackURL: cfg.DefaultThumbnailURL,
		Log:         logrus.WithField("component", "thumbnail"),
	})

	// Kafka producer
	producer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBroker),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.Hash{},
	}

	// Render worker in background
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.KafkaBroker},
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroup,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		server.RunWorker(ctx, consumer, pipeline, logrus.WithField("component", "worker"))
	}()

	srv := server.NewServer(cfg, pipeline, reg, producer, logrus.WithField("component", "http"))

	go func() {
		if err := srv.Start(); err != nil {
			logrus.Fatalf("failed to start server: %v", err)
		}
	}()
	logrus.Infof("Listening on %s", cfg.ServerAddr)

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	srv.Stop()
	<-workerDone
	consumer.Close()
	producer.Close()
}
