package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbridge/internal/config"
	"marketbridge/internal/database"
	"marketbridge/internal/logger"
	"marketbridge/internal/models"
)

type fakeStore struct {
	records []models.ImportRecord
	filter  database.ListFilter
	pingErr error
}

func (f *fakeStore) ListImports(_ context.Context, filter database.ListFilter) ([]models.ImportRecord, int64, error) {
	f.filter = filter
	return f.records, int64(len(f.records)), nil
}

func (f *fakeStore) GetImport(_ context.Context, id string) (*models.ImportRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakeRunner struct {
	brand, itemID string
	result        models.PipelineResult
}

func (f *fakeRunner) RunForBrand(_ context.Context, brand, itemID string) models.PipelineResult {
	f.brand, f.itemID = brand, itemID
	res := f.result
	res.ItemID = itemID
	return res
}

func newTestServer(store *fakeStore, runner *fakeRunner) http.Handler {
	gin.SetMode(gin.TestMode)
	return New(&config.Config{}, logger.Nop(), store, runner).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestListImports(t *testing.T) {
	store := &fakeStore{records: []models.ImportRecord{{ID: "a", ItemID: "1"}, {ID: "b", ItemID: "2"}}}
	h := newTestServer(store, &fakeRunner{})

	rec, body := do(t, h, http.MethodGet, "/api/v1/imports?page=2&limit=1&status=failed&brand=ader", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, database.ListFilter{Status: models.ImportStatusFailed, Brand: "ader", Limit: 1, Offset: 1}, store.filter)
	assert.Len(t, body["data"], 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])
	assert.Equal(t, float64(2), pagination["pages"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/imports?status=pending", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetImport(t *testing.T) {
	h := newTestServer(&fakeStore{records: []models.ImportRecord{{ID: "a", ItemID: "1"}}}, &fakeRunner{})

	rec, body := do(t, h, http.MethodGet, "/api/v1/imports/a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", body["data"].(map[string]interface{})["item_id"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/imports/zzz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateImport(t *testing.T) {
	runner := &fakeRunner{result: models.PipelineResult{Success: true, ProductURL: "https://shop/products/x"}}
	h := newTestServer(&fakeStore{}, runner)

	rec, body := do(t, h, http.MethodPost, "/api/v1/imports", `{"item_id": " 42 ", "brand": "ader"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "42", runner.itemID)
	assert.Equal(t, "ader", runner.brand)
	assert.Equal(t, "https://shop/products/x", body["data"].(map[string]interface{})["product_url"])

	runner.result = models.PipelineResult{Error: "publish: boom"}
	rec, _ = do(t, h, http.MethodPost, "/api/v1/imports", `{"item_id": "43"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/imports", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	store := &fakeStore{}
	h := newTestServer(store, &fakeRunner{})

	rec, body := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	store.pingErr = errors.New("connection refused")
	rec, _ = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeStore{}, &fakeRunner{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/imports", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
