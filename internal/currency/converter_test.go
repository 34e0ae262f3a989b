package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
)

func TestToTargetPrice(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		rate   float64
		markup float64
		want   int64
	}{
		{"ExactWholeUnit", 100, 0.14, 2.0, 28},
		{"FractionRoundsUp", 100, 0.13505, 2.0, 28}, // 27.01
		{"TinyFractionRoundsUp", 50, 0.1, 1.0001, 6},
		{"Zero", 0, 0.14, 2.0, 0},
		{"CentsInput", 89.9, 0.14, 2.5, 32}, // 31.465
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToTargetPrice(tt.amount, tt.rate, tt.markup))
		})
	}
}

func newTestConverter(t *testing.T, url string) *Converter {
	t.Helper()
	cfg := &config.Config{
		FXEndpoint:       url,
		FXBaseCurrency:   "CNY",
		FXTargetCurrency: "USD",
		FXFallbackRate:   0.14,
		FXCacheTTL:       time.Hour,
	}
	return New(cfg, logger.Nop())
}

func TestConverterRate(t *testing.T) {
	t.Run("CachesWithinTTL", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			assert.Equal(t, "/CNY", r.URL.Path)
			_, _ = w.Write([]byte(`{"result":"success","rates":{"USD":0.1385}}`))
		}))
		defer srv.Close()

		c := newTestConverter(t, srv.URL)
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		assert.InDelta(t, 0.1385, c.Rate(context.Background()), 1e-9)
		assert.InDelta(t, 0.1385, c.Rate(context.Background()), 1e-9)
		assert.Equal(t, int32(1), hits.Load())

		now = now.Add(time.Hour)
		c.Rate(context.Background())
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("FallbackOnFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := newTestConverter(t, srv.URL)
		assert.InDelta(t, 0.14, c.Rate(context.Background()), 1e-9)

		_, cached := c.cache.Get(time.Now())
		assert.False(t, cached)
	})

	t.Run("MissingTargetCurrency", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":"success","rates":{"EUR":0.12}}`))
		}))
		defer srv.Close()

		c := newTestConverter(t, srv.URL)
		require.Error(t, c.Ping(context.Background()))
		assert.InDelta(t, 0.14, c.Rate(context.Background()), 1e-9)
	})
}
