package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/observability"
	"github.com/matzehuels/autolayout/pkg/observability/prom"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/scene"
)

const cardBody = `{
	"nodes": [{
		"id": "card", "type": "FRAME", "width": 100, "height": 100,
		"children": [
			{"id": "a", "name": "Left", "type": "RECTANGLE", "x": 0, "y": 0, "width": 25, "height": 25},
			{"id": "b", "type": "RECTANGLE", "x": 75, "y": 0, "width": 25, "height": 25}
		]
	}],
	"preferences": {"layer_names": "true", "framework": "react"}
}`

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{})
	runner := pipeline.NewRunner(cache.NewRedisCacheFromClient(client), nil, logger)
	return NewHandler(runner, append([]Option{WithLogger(logger)}, opts...)...)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestConvert(t *testing.T) {
	h := newTestHandler(t)

	w := post(h, cardBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.False(t, resp.Cached)
	assert.Equal(t, "card", resp.Layout.Root)
	assert.Len(t, resp.Layout.Nodes, 3)
	assert.Equal(t, 2, resp.Stats.Anchors["manual"])

	a, ok := resp.Layout.Find("a")
	require.True(t, ok)
	assert.Equal(t, "Left", a.Name, "layer_names preference should apply")

	w = post(h, cardBody)
	require.Equal(t, http.StatusOK, w.Code)
	var again ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	assert.True(t, again.Cached)
	assert.Equal(t, resp.RunID, again.RunID)
}

func TestConvertArtifacts(t *testing.T) {
	h := newTestHandler(t)
	body := `{"nodes": [{"id": "r", "type": "RECTANGLE", "width": 10, "height": 10}], "formats": ["json", "dot"]}`

	w := post(h, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Artifacts["dot"], "digraph")
	assert.NotContains(t, resp.Artifacts, "json")
}

func TestConvertErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"malformed", `{"nodes": [`, http.StatusBadRequest, errors.ErrCodeInvalidScene},
		{"bad preference", `{"nodes": [], "preferences": {"fill_coverage": "lots"}}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"empty id", `{"nodes": [{"type": "RECTANGLE", "width": 1, "height": 1}]}`, http.StatusBadRequest, errors.ErrCodeInvalidScene},
		{"bad format", `{"nodes": [], "formats": ["png"]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(h, tt.body)
			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestConvertBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(64))
	w := post(h, cardBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(errors.ErrCodeTooLarge), resp.Code)
	assert.Contains(t, resp.Message, "64 bytes")
}

type failingConverter struct{}

func (failingConverter) Execute(context.Context, scene.Source, pipeline.Options) (*pipeline.Result, error) {
	return nil, errors.New(errors.ErrCodeSourceUnreadable, "bridge closed")
}

func TestConvertSourceFailure(t *testing.T) {
	h := NewHandler(failingConverter{}, WithLogger(log.NewWithOptions(&bytes.Buffer{}, log.Options{})))
	w := post(h, `{"nodes": []}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthAndConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Precision = 0
	h := newTestHandler(t, WithConfig(cfg))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/config", nil))
	var got config.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, cfg, got)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := prom.New(reg)
	observability.SetHTTPHooks(m)
	observability.SetPipelineHooks(m)
	defer observability.Reset()

	h := newTestHandler(t, WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	require.Equal(t, http.StatusOK, post(h, cardBody).Code)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `autolayout_http_requests_total{method="POST",route="/v1/convert",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `autolayout_nodes_total{outcome="kept"} 3`)
}

func TestMetricsNotMounted(t *testing.T) {
	h := newTestHandler(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
