// Package api exposes the trained model over a small REST surface: train,
// generate, complete, suggest and a pair of introspection endpoints.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/inkhorn/inkhorn/internal/engine"
	"github.com/inkhorn/inkhorn/internal/logger"
	"github.com/inkhorn/inkhorn/internal/textproc"
	"github.com/inkhorn/inkhorn/internal/trainer"
	"github.com/inkhorn/inkhorn/pkg/slm"
)

// Server wires the HTTP handlers to the model store.
type Server struct {
	store *ModelStore
	log   logger.Logger
	clock func() time.Time

	// trainDefaults seed each run; requests override individual fields.
	trainDefaults trainer.Config

	// persistPath, when set, receives a saved copy of each newly trained
	// model.
	persistPath string
}

// ServerOption adjusts server construction.
type ServerOption func(*Server)

// WithPersistPath makes the server save every newly trained model to path.
func WithPersistPath(path string) ServerOption {
	return func(s *Server) { s.persistPath = path }
}

// WithTrainDefaults sets the base training configuration.
func WithTrainDefaults(cfg trainer.Config) ServerOption {
	return func(s *Server) { s.trainDefaults = cfg }
}

func NewServer(store *ModelStore, log logger.Logger, opts ...ServerOption) *Server {
	if store == nil {
		store = NewModelStore()
	}
	if log == nil {
		log = logger.Default()
	}
	s := &Server{
		store:         store,
		log:           log,
		clock:         time.Now,
		trainDefaults: trainer.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/train", s.handleTrain)
	e.POST("/v1/generate", s.handleGenerate)
	e.POST("/v1/complete", s.handleComplete)
	e.POST("/v1/suggest", s.handleSuggest)
	e.GET("/v1/style", s.handleStyle)
	e.GET("/v1/model", s.handleModel)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleTrain(c *echo.Context) error {
	req, err := decodeJSON[TrainRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Documents) == 0 {
		return writeBadRequest(c, "documents is required and must not be empty")
	}

	cfg := s.trainDefaults
	applyTrainOverrides(&cfg, req)

	sources := make([]textproc.Source, 0, len(req.Documents))
	for i, doc := range req.Documents {
		name := doc.Name
		if name == "" {
			name = fmt.Sprintf("document-%d", i)
		}
		sources = append(sources, textproc.BytesSource(name, []byte(doc.Text)))
	}

	model, stats, err := trainer.Train(c.Request().Context(), sources, cfg, s.log)
	if err != nil {
		if vErr := validationMessage(err); vErr != "" {
			return writeBadRequest(c, vErr)
		}
		return writeServerError(c, err.Error())
	}

	s.store.Swap(model, stats)
	if s.persistPath != "" && !model.Empty() {
		if err := slm.Save(model, s.persistPath); err != nil {
			s.log.Error("persisting trained model failed", "path", s.persistPath, "error", err)
		}
	}

	return c.JSON(http.StatusOK, TrainResponse{
		Stats:       stats,
		EmptyCorpus: stats.EmptyCorpus(),
		Created:     s.clock().Unix(),
	})
}

func (s *Server) handleGenerate(c *echo.Context) error {
	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	opts, err := samplingOptions(req.Temperature, req.MaxTokens, req.RandomSeed)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	text := engine.Generate(s.store.Current(), req.Seed, opts)
	return c.JSON(http.StatusOK, TextResponse{
		ID:      "gen-" + uuid.NewString(),
		Text:    text,
		Created: s.clock().Unix(),
	})
}

func (s *Server) handleComplete(c *echo.Context) error {
	req, err := decodeJSON[CompleteRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Text == "" {
		return writeBadRequest(c, "text is required")
	}
	opts, err := samplingOptions(req.Temperature, req.MaxTokens, req.RandomSeed)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	text := engine.Complete(s.store.Current(), req.Text, opts)
	return c.JSON(http.StatusOK, TextResponse{
		ID:      "cmpl-" + uuid.NewString(),
		Text:    text,
		Created: s.clock().Unix(),
	})
}

func (s *Server) handleSuggest(c *echo.Context) error {
	req, err := decodeJSON[SuggestRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	n := 5
	if req.N != nil {
		if *req.N < 1 {
			return writeBadRequest(c, "n must be positive")
		}
		n = *req.N
	}

	suggestions := engine.SuggestNext(s.store.Current(), req.Context, n)
	if suggestions == nil {
		suggestions = []engine.Suggestion{}
	}
	return c.JSON(http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

func (s *Server) handleStyle(c *echo.Context) error {
	topN := 10
	if raw := c.QueryParam("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return writeBadRequest(c, "top must be a positive integer")
		}
		topN = n
	}
	return c.JSON(http.StatusOK, engine.DescribeStyle(s.store.Current(), topN))
}

func (s *Server) handleModel(c *echo.Context) error {
	model, _, trainedAt := s.store.Snapshot()
	return c.JSON(http.StatusOK, ModelResponse{
		Trained:        !model.Empty(),
		Meta:           model.Meta,
		VocabularySize: model.Vocab.Size(),
		TrainedAt:      trainedAt,
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func applyTrainOverrides(cfg *trainer.Config, req TrainRequest) {
	if req.Order != nil {
		cfg.Order = *req.Order
	}
	if req.MinWordCount != nil {
		cfg.MinWordCount = *req.MinWordCount
	}
	if req.MinSentenceChars != nil {
		cfg.MinSentenceChars = *req.MinSentenceChars
	}
	if req.MaxSentenceChars != nil {
		cfg.MaxSentenceChars = *req.MaxSentenceChars
	}
	if req.MinAlphaRatio != nil {
		cfg.MinAlphaRatio = *req.MinAlphaRatio
	}
}

func samplingOptions(temperature *float64, maxTokens *int, randomSeed *int64) (engine.Options, error) {
	opts := engine.Options{Temperature: 0.8}
	if temperature != nil {
		if *temperature < 0 {
			return opts, newInvalidRequest("temperature must not be negative")
		}
		opts.Temperature = *temperature
	}
	if maxTokens != nil {
		if *maxTokens < 1 {
			return opts, newInvalidRequest("max_tokens must be positive")
		}
		opts.MaxTokens = *maxTokens
	}
	if randomSeed != nil {
		opts.Seed = *randomSeed
	} else {
		opts.Seed = time.Now().UnixNano()
	}
	return opts, nil
}

func validationMessage(err error) string {
	if errors.Is(err, trainer.ErrInvalidConfig) {
		return err.Error()
	}
	return ""
}
