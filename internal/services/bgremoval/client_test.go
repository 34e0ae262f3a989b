package bgremoval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbridge/internal/config"
	"marketbridge/internal/logger"
)

func newTestClient(url string) *Client {
	return NewClient(&config.Config{BackgroundRemovalURL: url, BackgroundRemovalAPIKey: "secret"}, logger.Nop())
}

func TestRemoveBackground(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantURL     string
		wantData    string
		wantMIME    string
	}{
		{"HostedURL", "application/json", `{"url":"https://cdn.example.com/out.png"}`, "https://cdn.example.com/out.png", "", ""},
		{"ResultURL", "application/json", `{"result_url":"https://cdn.example.com/r.png"}`, "https://cdn.example.com/r.png", "", ""},
		{"DataURI", "application/json", `{"url":"data:image/png;base64,cG5n"}`, "", "png", "image/png"},
		{"Base64", "application/json", `{"image_base64":"cG5n","mime_type":"image/webp"}`, "", "png", "image/webp"},
		{"RawImage", "image/png", "rawpng", "", "rawpng", "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				var req request
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://img.example.com/a.jpg", req.ImageURL)

				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			ref, err := newTestClient(srv.URL).RemoveBackground(context.Background(), "https://img.example.com/a.jpg")
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, ref.URL)
			assert.Equal(t, tt.wantData, string(ref.Data))
			assert.Equal(t, tt.wantMIME, ref.MIMEType)
		})
	}
}

func TestRemoveBackgroundErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		case "/empty":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error":"unsupported image"}`))
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/down", "/empty", "/failed"} {
		_, err := newTestClient(srv.URL+path).RemoveBackground(context.Background(), "https://img.example.com/a.jpg")
		assert.Error(t, err, path)
	}

	_, err := NewClient(&config.Config{}, logger.Nop()).RemoveBackground(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotConfigured)
}
