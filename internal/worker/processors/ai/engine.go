package ai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
	"marketbridge/internal/services/anthropic"
)

// ErrInvalidResponse is returned when the model reply cannot be parsed into
// the requested JSON contract.
var ErrInvalidResponse = errors.New("invalid AI response")

// Completer is the slice of the Anthropic client the engine depends on.
type Completer interface {
	Complete(ctx context.Context, system string, blocks ...anthropic.ContentBlock) (string, error)
}

// Engine runs every generative step of the pipeline: translation, image
// classification, size-chart extraction and marketing copy.
type Engine struct {
	client       Completer
	httpClient   *http.Client
	logger       *logger.Logger
	markup       float64
	skuSample    int
	maxDim       int
	maxJPEGBytes int
}

func New(cfg *config.Config, client Completer, logger *logger.Logger) *Engine {
	return &Engine{
		client: client,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       logger,
		markup:       cfg.PriceMarkup,
		skuSample:    cfg.TranslationSKUSample,
		maxDim:       cfg.SizeChartMaxDim,
		maxJPEGBytes: cfg.SizeChartMaxBytes,
	}
}
