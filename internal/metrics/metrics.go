package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbridge_items_processed_total",
		Help: "Items run through the import pipeline, by outcome.",
	}, []string{"status"})

	ItemDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketbridge_item_duration_seconds",
		Help:    "Wall-clock time of one pipeline run.",
		Buckets: []float64{5, 15, 30, 60, 120, 240, 480},
	})

	ImageVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbridge_image_verdicts_total",
		Help: "Image classification outcomes.",
	}, []string{"verdict"})

	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketbridge_image_uploads_total",
		Help: "Image uploads to the commerce backend, by outcome.",
	}, []string{"status"})

	ImageUploadAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketbridge_image_upload_attempts_total",
		Help: "Individual image upload HTTP attempts, retries included.",
	})

	ExchangeRateFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketbridge_fx_fallbacks_total",
		Help: "Times the hardcoded exchange rate was used.",
	})
)
