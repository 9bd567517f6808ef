package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"musicthumb/internal/models"
	"musicthumb/internal/sudoers"
)

// Thumbnailer resolves a request to a local file path or the fallback URL.
type Thumbnailer interface {
	Get(ctx context.Context, req models.ThumbnailRequest) (string, error)
}

// JobPublisher is satisfied by *kafka.Writer.
type JobPublisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var errInvalidID = errors.New("ids may only contain letters, digits, '-' and '_'")

type Server struct {
	cfg      *models.Config
	router   *gin.Engine
	srv      *http.Server
	thumbs   Thumbnailer
	sudoers  *sudoers.Registry
	producer JobPublisher
	log      *logrus.Entry
}

func NewServer(cfg *models.Config, thumbs Thumbnailer, reg *sudoers.Registry, producer JobPublisher, log *logrus.Entry) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Static("/files", cfg.CacheDir)

	s := &Server{
		cfg:      cfg,
		router:   r,
		srv:      &http.Server{Addr: cfg.ServerAddr, Handler: r},
		thumbs:   thumbs,
		sudoers:  reg,
		producer: producer,
		log:      log,
	}

	r.GET("/thumbnail/:video_id", s.handleGetThumbnail)
	r.POST("/thumbnail", s.handleEnqueue)
	r.GET("/sudoers", s.handleListSudoers)
	r.GET("/sudoers/:id", s.handleIsSudoer)

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.WithError(err).Warn("http shutdown")
	}
}

func (s *Server) handleGetThumbnail(c *gin.Context) {
	const op = "server.handleGetThumbnail"

	req := models.ThumbnailRequest{
		VideoID:     c.Param("video_id"),
		RequesterID: c.Query("user"),
	}
	if err := validateRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	result, err := s.thumbs.Get(c.Request.Context(), req)
	if err != nil {
		s.log.WithError(err).WithField("video_id", req.VideoID).Error("thumbnail served from fallback")
	}

	if result == s.cfg.DefaultThumbnailURL {
		c.Redirect(http.StatusFound, result)
		return
	}
	c.File(result)
}

func (s *Server) handleEnqueue(c *gin.Context) {
	const op = "server.handleEnqueue"

	var req models.ThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}
	if err := validateRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	job := models.RenderJob{ID: uuid.New(), Request: req}
	payload, err := json.Marshal(job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	err = s.producer.WriteMessages(c.Request.Context(), kafka.Message{
		Key:   []byte(job.ID.String()),
		Value: payload,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": job.ID.String()})
}

func (s *Server) handleListSudoers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sudoers": s.sudoers.List()})
}

func (s *Server) handleIsSudoer(c *gin.Context) {
	const op = "server.handleIsSudoer"

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", op, err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sudoer": s.sudoers.IsSudoer(id)})
}

// validateRequest keeps ids safe to embed in cache file names.
func validateRequest(req models.ThumbnailRequest) error {
	if !idPattern.MatchString(req.VideoID) || !idPattern.MatchString(req.RequesterID) {
		return errInvalidID
	}
	return nil
}
