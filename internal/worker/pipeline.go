package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"marketbridge/internal/brands"
	"marketbridge/internal/logger"
	"marketbridge/internal/metrics"
	"marketbridge/internal/models"
	"marketbridge/internal/worker/processors/ai"
	"marketbridge/internal/worker/processors/assembly"
	"marketbridge/internal/worker/processors/export"
	"marketbridge/internal/worker/processors/imaging"
)

type ListingSource interface {
	FetchListing(ctx context.Context, itemID string) (*models.Listing, error)
}

type RateSource interface {
	Rate(ctx context.Context) float64
}

// Translator covers the generative steps of a run.
type Translator interface {
	TranslateListing(ctx context.Context, listing *models.Listing, rate float64) (*ai.TranslatedProduct, error)
	ExtractSizeChart(ctx context.Context, urls []string, maxImages int) (*ai.SizeChartResult, error)
	GenerateCopy(ctx context.Context, tp *ai.TranslatedProduct, brand brands.Profile) *ai.Copy
}

type ImageProcessor interface {
	Process(ctx context.Context, inputs []imaging.ImageInput) []models.ProcessedImage
}

type BrandLookup interface {
	Lookup(brand string) (brands.Profile, bool)
}

type ProductPublisher interface {
	Publish(ctx context.Context, product *models.FinalProduct) (*export.PublishResult, error)
}

// History persists pipeline results. Optional.
type History interface {
	SaveImport(ctx context.Context, record *models.ImportRecord) error
}

type Dependencies struct {
	Source     ListingSource
	Rates      RateSource
	Translator Translator
	Images     ImageProcessor
	Brands     BrandLookup
	Assembler  *assembly.Assembler
	Publisher  ProductPublisher
	History    History
}

// Pipeline imports one marketplace item into the store.
type Pipeline struct {
	deps               Dependencies
	sizeChartMaxImages int
	logger             *logger.Logger
}

func NewPipeline(deps Dependencies, sizeChartMaxImages int, logger *logger.Logger) *Pipeline {
	if deps.Assembler == nil {
		deps.Assembler = assembly.New(logger)
	}
	return &Pipeline{
		deps:               deps,
		sizeChartMaxImages: sizeChartMaxImages,
		logger:             logger,
	}
}

// Run imports itemID using the listing's shop name as brand.
func (p *Pipeline) Run(ctx context.Context, itemID string) models.PipelineResult {
	return p.RunForBrand(ctx, "", itemID)
}

// RunForBrand imports itemID under the given brand profile. It never
// panics and never returns an error: every failure is folded into the
// result.
func (p *Pipeline) RunForBrand(ctx context.Context, brand, itemID string) (res models.PipelineResult) {
	start := time.Now()
	log := p.logger.With("item_id", itemID)
	res.ItemID = itemID

	defer func() {
		if r := recover(); r != nil {
			log.Error("Pipeline panic: %v\n%s", r, debug.Stack())
			res.Success = false
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.Duration = time.Since(start).Seconds()
		res.FinishedAt = time.Now().UTC()
		p.record(ctx, brand, res, log)
	}()

	published, err := p.run(ctx, &brand, itemID, log)
	if err != nil {
		log.Error("Import failed: %v", err)
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.ProductID = published.ProductID
	res.ProductURL = published.URL
	res.ImagesUploaded = published.ImagesUploaded
	res.ImagesFailed = published.ImagesFailed
	log.Info("Imported as %s", published.URL)
	return res
}

// run resolves an empty brand to the listing's shop name in place.
func (p *Pipeline) run(ctx context.Context, brand *string, itemID string, log *logger.Logger) (*export.PublishResult, error) {
	listing, err := p.deps.Source.FetchListing(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	if *brand == "" {
		*brand = listing.ShopName
	}
	log.Info("Fetched %q: %d SKUs, %d images, %d description images",
		listing.Title, len(listing.SKUs), len(listing.Images), len(listing.DescriptionImages))

	var (
		translated *ai.TranslatedProduct
		sizeChart  *ai.SizeChartResult
		profile    brands.Profile
		images     []models.ProcessedImage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guarded(log, func() error {
		rate := p.deps.Rates.Rate(gctx)
		tp, err := p.deps.Translator.TranslateListing(gctx, listing, rate)
		if err != nil {
			return fmt.Errorf("translate: %w", err)
		}
		translated = tp
		return nil
	}))
	g.Go(guarded(log, func() error {
		sc, err := p.deps.Translator.ExtractSizeChart(gctx, listing.DescriptionImages, p.sizeChartMaxImages)
		if err != nil {
			log.Warn("Size chart extraction failed, publishing without: %v", err)
			return nil
		}
		sizeChart = sc
		return nil
	}))
	g.Go(guarded(log, func() error {
		var found bool
		profile, found = p.deps.Brands.Lookup(*brand)
		if !found {
			log.Info("No brand profile for %q, using generic voice", *brand)
		}
		return nil
	}))
	g.Go(guarded(log, func() error {
		images = p.deps.Images.Process(gctx, imaging.BuildInputs(listing.Images, variantImages(listing)))
		return nil
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images = imaging.RetagColors(images, translated.ColorMap)
	text := p.deps.Translator.GenerateCopy(ctx, translated, profile)

	product, err := p.deps.Assembler.Assemble(translated, text, images, assembly.Metadata{
		SizeChart: sizeChart,
		Brand:     profile,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	published, err := p.deps.Publisher.Publish(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	return published, nil
}

// guarded converts a panic in a fan-out goroutine into an error.
func guarded(log *logger.Logger, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Pipeline panic: %v\n%s", r, debug.Stack())
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}
}

func variantImages(listing *models.Listing) []imaging.VariantImage {
	var out []imaging.VariantImage
	for _, sku := range listing.SKUs {
		if sku.Image == "" {
			continue
		}
		out = append(out, imaging.VariantImage{URL: sku.Image, Color: sku.Color()})
	}
	return out
}

func (p *Pipeline) record(ctx context.Context, brand string, res models.PipelineResult, log *logger.Logger) {
	status := strings.ToLower(string(models.ImportStatusFailed))
	if res.Success {
		status = strings.ToLower(string(models.ImportStatusSucceeded))
	}
	metrics.ItemsProcessed.WithLabelValues(status).Inc()
	metrics.ItemDuration.Observe(res.Duration)

	if p.deps.History == nil {
		return
	}
	// The run context may already be cancelled; history is still worth keeping.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.deps.History.SaveImport(saveCtx, models.NewImportRecord(brand, res)); err != nil {
		log.Warn("Failed to record import history: %v", err)
	}
}
