// Package server is the HTTP host shell around the conversion pipeline.
//
// Routes:
//
//	POST /v1/convert   convert a selection, returns the layout
//	GET  /v1/config    effective base configuration
//	GET  /healthz      liveness and build version
//	GET  /metrics      Prometheus metrics, when a handler is configured
//
// The request body of /v1/convert carries the selection and the host's flat
// preference record:
//
//	{"nodes": [...], "textRuns": {...}, "preferences": {"layer_names": "true"}, "formats": ["json", "svg"]}
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/autolayout/pkg/buildinfo"
	"github.com/matzehuels/autolayout/pkg/config"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout"
	"github.com/matzehuels/autolayout/pkg/observability"
	"github.com/matzehuels/autolayout/pkg/pipeline"
	"github.com/matzehuels/autolayout/pkg/scene"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 8 << 20

// Converter runs one conversion. *pipeline.Runner implements it.
type Converter interface {
	Execute(ctx context.Context, src scene.Source, opts pipeline.Options) (*pipeline.Result, error)
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithConfig sets the base configuration preferences are overlaid on.
func WithConfig(cfg config.Config) Option { return func(s *Server) { s.cfg = cfg } }

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option { return func(s *Server) { s.maxBody = n } }

// Server holds the handler state.
type Server struct {
	conv    Converter
	cfg     config.Config
	logger  *log.Logger
	metrics http.Handler
	maxBody int64
}

// ConvertRequest is the body of POST /v1/convert.
type ConvertRequest struct {
	Nodes       []scene.Node               `json:"nodes"`
	TextRuns    map[string][]scene.TextRun `json:"textRuns,omitempty"`
	Preferences map[string]any             `json:"preferences,omitempty"`
	Formats     []string                   `json:"formats,omitempty"`
	Refresh     bool                       `json:"refresh,omitempty"`
}

// ConvertResponse is the body of a successful conversion.
type ConvertResponse struct {
	RunID     string            `json:"run_id"`
	SceneHash string            `json:"scene_hash"`
	Layout    layout.Layout     `json:"layout"`
	Artifacts map[string]string `json:"artifacts,omitempty"` // non-JSON formats
	Stats     Stats             `json:"stats"`
	Cached    bool              `json:"cached"`
}

// Stats is the subset of run statistics exposed over HTTP.
type Stats struct {
	Nodes      int            `json:"nodes"`
	Dropped    int            `json:"dropped"`
	Stacks     int            `json:"stacks"`
	Absorbed   int            `json:"absorbed"`
	Policies   map[string]int `json:"policies,omitempty"`
	Anchors    map[string]int `json:"anchors,omitempty"`
	DurationMS float64        `json:"duration_ms"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewHandler returns the HTTP handler.
func NewHandler(conv Converter, opts ...Option) http.Handler {
	s := &Server{
		conv:    conv,
		cfg:     config.Default(),
		logger:  log.Default(),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.health)
	r.Get("/v1/config", s.config)
	r.Post("/v1/convert", s.convert)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// instrument reports every request to the HTTP hooks, labelled by route
// pattern rather than raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, ww.Status(), time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.fail(w, errors.Wrap(errors.ErrCodeTooLarge, err, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.fail(w, errors.Wrap(errors.ErrCodeInvalidScene, err, "invalid request body"))
		return
	}

	cfg, err := s.cfg.With(req.Preferences)
	if err != nil {
		s.fail(w, err)
		return
	}
	doc := &scene.Document{Nodes: req.Nodes, TextRuns: req.TextRuns}
	if err := doc.Validate(); err != nil {
		s.fail(w, err)
		return
	}

	res, err := s.conv.Execute(r.Context(), doc, pipeline.Options{
		Config:  cfg,
		Formats: req.Formats,
		Refresh: req.Refresh,
		Logger:  s.logger,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := ConvertResponse{
		RunID:     res.RunID,
		SceneHash: res.SceneHash,
		Layout:    res.Layout,
		Cached:    res.CacheInfo.LayoutHit,
		Stats: Stats{
			Nodes:      res.Stats.Nodes,
			Dropped:    res.Stats.Dropped,
			Stacks:     res.Stats.Stacks,
			Absorbed:   res.Stats.Absorbed,
			Policies:   res.Stats.Policies,
			Anchors:    res.Stats.Anchors,
			DurationMS: float64(res.Stats.Total().Microseconds()) / 1000,
		},
	}
	for format, data := range res.Artifacts {
		if format == pipeline.FormatJSON {
			continue
		}
		if resp.Artifacts == nil {
			resp.Artifacts = map[string]string{}
		}
		resp.Artifacts[format] = string(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	if status >= 500 {
		s.logger.Error("convert failed", "err", err)
	} else {
		s.logger.Warn("convert rejected", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
