package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers       string
	KafkaRequestTopic  string
	KafkaResultTopic   string
	KafkaConsumerGroup string

	// API Configuration
	APIPort string
	APIHost string

	// Marketplace source
	MarketplaceBaseURL   string
	MarketplaceAppKey    string
	MarketplaceAppSecret string
	MarketplaceMethod    string

	// Anthropic
	AnthropicAPIKey    string
	AnthropicBaseURL   string
	AnthropicModel     string
	AnthropicMaxTokens int

	// Background removal
	BackgroundRemovalURL    string
	BackgroundRemovalAPIKey string

	// Shopify
	ShopifyShopDomain  string
	ShopifyAccessToken string
	ShopifyAPIVersion  string
	ShopifyLocationID  int64

	// Currency
	FXEndpoint       string
	FXBaseCurrency   string
	FXTargetCurrency string
	FXFallbackRate   float64
	FXCacheTTL       time.Duration
	PriceMarkup      float64

	// Pipeline
	UploadBatchSize      int
	UploadMaxAttempts    int
	UploadRetryDelay     time.Duration
	SizeChartMaxImages   int
	SizeChartMaxDim      int
	SizeChartMaxBytes    int
	TranslationSKUSample int
	BatchPause           time.Duration
	ResultsDir           string
	CandidateSheet       string
	BrandProfilesPath    string

	// Environment
	Env      string
	LogLevel string
}

// Load reads .env (if present), an optional config.yaml and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:             v.GetString("DATABASE_URL"),
		KafkaBrokers:            v.GetString("KAFKA_BROKERS"),
		KafkaRequestTopic:       v.GetString("KAFKA_REQUEST_TOPIC"),
		KafkaResultTopic:        v.GetString("KAFKA_RESULT_TOPIC"),
		KafkaConsumerGroup:      v.GetString("KAFKA_CONSUMER_GROUP"),
		APIPort:                 v.GetString("API_PORT"),
		APIHost:                 v.GetString("API_HOST"),
		MarketplaceBaseURL:      v.GetString("MARKETPLACE_BASE_URL"),
		MarketplaceAppKey:       v.GetString("MARKETPLACE_APP_KEY"),
		MarketplaceAppSecret:    v.GetString("MARKETPLACE_APP_SECRET"),
		MarketplaceMethod:       v.GetString("MARKETPLACE_METHOD"),
		AnthropicAPIKey:         v.GetString("ANTHROPIC_API_KEY"),
		AnthropicBaseURL:        v.GetString("ANTHROPIC_BASE_URL"),
		AnthropicModel:          v.GetString("ANTHROPIC_MODEL"),
		AnthropicMaxTokens:      v.GetInt("ANTHROPIC_MAX_TOKENS"),
		BackgroundRemovalURL:    v.GetString("BG_REMOVAL_URL"),
		BackgroundRemovalAPIKey: v.GetString("BG_REMOVAL_API_KEY"),
		ShopifyShopDomain:       v.GetString("SHOPIFY_SHOP_DOMAIN"),
		ShopifyAccessToken:      v.GetString("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion:       v.GetString("SHOPIFY_API_VERSION"),
		ShopifyLocationID:       v.GetInt64("SHOPIFY_LOCATION_ID"),
		FXEndpoint:              v.GetString("FX_ENDPOINT"),
		FXBaseCurrency:          v.GetString("FX_BASE_CURRENCY"),
		FXTargetCurrency:        v.GetString("FX_TARGET_CURRENCY"),
		FXFallbackRate:          v.GetFloat64("FX_FALLBACK_RATE"),
		FXCacheTTL:              v.GetDuration("FX_CACHE_TTL"),
		PriceMarkup:             v.GetFloat64("PRICE_MARKUP"),
		UploadBatchSize:         v.GetInt("UPLOAD_BATCH_SIZE"),
		UploadMaxAttempts:       v.GetInt("UPLOAD_MAX_ATTEMPTS"),
		UploadRetryDelay:        v.GetDuration("UPLOAD_RETRY_DELAY"),
		SizeChartMaxImages:      v.GetInt("SIZE_CHART_MAX_IMAGES"),
		SizeChartMaxDim:         v.GetInt("SIZE_CHART_MAX_DIM"),
		SizeChartMaxBytes:       v.GetInt("SIZE_CHART_MAX_BYTES"),
		TranslationSKUSample:    v.GetInt("TRANSLATION_SKU_SAMPLE"),
		BatchPause:              v.GetDuration("BATCH_PAUSE"),
		ResultsDir:              v.GetString("RESULTS_DIR"),
		CandidateSheet:          v.GetString("CANDIDATE_SHEET"),
		BrandProfilesPath:       v.GetString("BRAND_PROFILES_PATH"),
		Env:                     v.GetString("ENV"),
		LogLevel:                v.GetString("LOG_LEVEL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "sqlite://marketbridge.db")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_REQUEST_TOPIC", "import-requests")
	v.SetDefault("KAFKA_RESULT_TOPIC", "import-results")
	v.SetDefault("KAFKA_CONSUMER_GROUP", "marketbridge-worker")
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("MARKETPLACE_BASE_URL", "https://api.marketplace-gateway.com/router/rest")
	v.SetDefault("MARKETPLACE_METHOD", "item.detail.get")
	v.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com")
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")
	v.SetDefault("ANTHROPIC_MAX_TOKENS", 4096)
	v.SetDefault("SHOPIFY_API_VERSION", "2024-10")
	v.SetDefault("FX_ENDPOINT", "https://open.er-api.com/v6/latest")
	v.SetDefault("FX_BASE_CURRENCY", "CNY")
	v.SetDefault("FX_TARGET_CURRENCY", "USD")
	v.SetDefault("FX_FALLBACK_RATE", 0.14)
	v.SetDefault("FX_CACHE_TTL", time.Hour)
	v.SetDefault("PRICE_MARKUP", 2.0)
	v.SetDefault("UPLOAD_BATCH_SIZE", 3)
	v.SetDefault("UPLOAD_MAX_ATTEMPTS", 3)
	v.SetDefault("UPLOAD_RETRY_DELAY", 2*time.Second)
	v.SetDefault("SIZE_CHART_MAX_IMAGES", 10)
	v.SetDefault("SIZE_CHART_MAX_DIM", 1568)
	v.SetDefault("SIZE_CHART_MAX_BYTES", 4_500_000)
	v.SetDefault("TRANSLATION_SKU_SAMPLE", 20)
	v.SetDefault("BATCH_PAUSE", 8*time.Second)
	v.SetDefault("RESULTS_DIR", "results")
	v.SetDefault("CANDIDATE_SHEET", "data/candidates.xlsx")
	v.SetDefault("BRAND_PROFILES_PATH", "data/brands.yaml")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
}

// IsProduction reports whether the process runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
