package worker

import (
	"context"
	"time"

	"marketbridge/internal/brands"
	"marketbridge/internal/config"
	"marketbridge/internal/connectors/marketplace"
	"marketbridge/internal/currency"
	"marketbridge/internal/logger"
	"marketbridge/internal/services/anthropic"
	"marketbridge/internal/services/bgremoval"
	"marketbridge/internal/services/shopify"
	"marketbridge/internal/worker/processors/ai"
	"marketbridge/internal/worker/processors/assembly"
	"marketbridge/internal/worker/processors/export"
	"marketbridge/internal/worker/processors/imaging"
)

// Services holds the external clients a pipeline is built from.
type Services struct {
	Marketplace *marketplace.Connector
	Anthropic   *anthropic.Client
	BgRemoval   *bgremoval.Client
	Shopify     *shopify.Client
	Currency    *currency.Converter
	Brands      *brands.Registry
}

func NewServices(cfg *config.Config, logger *logger.Logger) (*Services, error) {
	registry, err := brands.Load(cfg.BrandProfilesPath)
	if err != nil {
		return nil, err
	}
	return &Services{
		Marketplace: marketplace.New(cfg, logger),
		Anthropic:   anthropic.NewClient(cfg, logger),
		BgRemoval:   bgremoval.NewClient(cfg, logger),
		Shopify:     shopify.NewClient(cfg, logger),
		Currency:    currency.New(cfg, logger),
		Brands:      registry,
	}, nil
}

// Pipeline wires the services into a pipeline. history may be nil.
func (s *Services) Pipeline(cfg *config.Config, logger *logger.Logger, history History) *Pipeline {
	engine := ai.New(cfg, s.Anthropic, logger)

	var remover imaging.BackgroundRemover
	if cfg.BackgroundRemovalURL != "" {
		remover = s.BgRemoval
	} else {
		logger.Warn("BG_REMOVAL_URL not set, images marked for cleanup are kept as is")
	}

	deps := Dependencies{
		Source:     s.Marketplace,
		Rates:      s.Currency,
		Translator: engine,
		Images:     imaging.NewProcessor(engine, remover, logger),
		Brands:     s.Brands,
		Assembler:  assembly.New(logger),
		Publisher:  export.New(cfg, s.Shopify, logger),
		History:    history,
	}
	return NewPipeline(deps, cfg.SizeChartMaxImages, logger)
}

type ProbeResult struct {
	Service string        `json:"service"`
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Probe checks connectivity to every external service, one at a time.
func (s *Services) Probe(ctx context.Context) []ProbeResult {
	checks := []struct {
		name string
		ping func(context.Context) error
	}{
		{"marketplace", s.Marketplace.Ping},
		{"anthropic", s.Anthropic.Ping},
		{"background removal", s.BgRemoval.Ping},
		{"shopify", s.Shopify.Ping},
		{"exchange rate", s.Currency.Ping},
	}

	results := make([]ProbeResult, 0, len(checks))
	for _, c := range checks {
		start := time.Now()
		pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := c.ping(pctx)
		cancel()

		r := ProbeResult{Service: c.name, OK: err == nil, Latency: time.Since(start)}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}
