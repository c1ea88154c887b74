package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/mask-sentry/internal/imaging"
	"github.com/kozaktomas/mask-sentry/internal/metrics"
	"github.com/kozaktomas/mask-sentry/internal/pipeline"
)

type stubInspector struct{}

func (stubInspector) Run(ctx context.Context, img *imaging.Image, opts pipeline.RunOptions) *pipeline.Report {
	return &pipeline.Report{State: pipeline.StateNoFace}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := metrics.New()
	m.RunFinished(string(pipeline.StateNoFace), 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(stubInspector{}, m.Handler(), "127.0.0.1", 0, logger)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_InspectRejectsGet(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inspect", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mask_sentry_") {
		t.Error("expected mask_sentry metrics in exposition")
	}
}

func TestRouter_NoMetricsHandler(t *testing.T) {
	s := NewServer(stubInspector{}, nil, "127.0.0.1", 0, nil)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without metrics, got %d", rec.Code)
	}
}
