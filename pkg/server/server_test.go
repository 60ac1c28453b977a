package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/denis-shemenko/TGBot.KanakerPark/pkg/analytics"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReporter struct {
	steps []analytics.StepStat
	err   error
}

func (s stubReporter) Report(context.Context) ([]analytics.StepStat, error) {
	return s.steps, s.err
}

func TestHealthz(t *testing.T) {
	srv := New(":0", stubReporter{}, Stats{})
	rec := serve(srv, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestFunnelJSON(t *testing.T) {
	steps := []analytics.StepStat{
		{Screen: "main", Count: 10, PercentBase: 100, PercentPrev: 100},
		{Screen: "apartment_list", Count: 4, PercentBase: 40, PercentPrev: 40},
	}
	srv := New(":0", stubReporter{steps: steps}, Stats{})
	rec := serve(srv, "/funnel")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body struct {
		Steps []analytics.StepStat `json:"steps"`
		Chart string               `json:"chart"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Steps) != 2 || body.Steps[1].Count != 4 {
		t.Fatalf("unexpected steps %+v", body.Steps)
	}
	if !strings.Contains(body.Chart, "apartment_list: 4") {
		t.Fatalf("unexpected chart %q", body.Chart)
	}
}

func TestFunnelText(t *testing.T) {
	srv := New(":0", stubReporter{}, Stats{})
	rec := serve(srv, "/funnel?format=text")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "пока нет") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestFunnelError(t *testing.T) {
	srv := New(":0", stubReporter{err: errors.New("db down")}, Stats{})
	rec := serve(srv, "/funnel")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	srv := New(":0", stubReporter{}, Stats{Sessions: func() int { return 3 }})
	rec := serve(srv, "/stats")
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["sessions"] != 3 || body["pending"] != 0 {
		t.Fatalf("unexpected stats %v", body)
	}
}

func serve(srv *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	srv.Handler().ServeHTTP(rec, req)
	return rec
}
