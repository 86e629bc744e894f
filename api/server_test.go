package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/pkg/cache"
	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
	"github.com/satishjaiswal/hyperliquid-position/pkg/service"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeExchange struct {
	err error
}

func (f *fakeExchange) ClearinghouseState(ctx context.Context) ([]models.Position, models.AccountSummary, error) {
	if f.err != nil {
		return nil, models.AccountSummary{}, f.err
	}
	return nil, models.AccountSummary{}, nil
}

func (f *fakeExchange) AllMids(ctx context.Context) (*models.PriceBook, error) {
	return models.NewPriceBook(), nil
}

func (f *fakeExchange) UserFills(ctx context.Context) ([]models.Fill, error) {
	return nil, nil
}

func (f *fakeExchange) OpenOrders(ctx context.Context) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeExchange) Ping(ctx context.Context) error {
	return nil
}

func newTestServer(exchange *fakeExchange) *Server {
	svc := service.New(exchange, cache.New(30*time.Second, testLogger()), testLogger())
	return NewServer(svc, testLogger(), "0")
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(&fakeExchange{})

	rec := httptest.NewRecorder()
	server.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected status %v", body["status"])
	}
}

func TestHandlePositions(t *testing.T) {
	server := newTestServer(&fakeExchange{})

	rec := httptest.NewRecorder()
	server.handlePositions(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	for _, key := range []string{"positions", "account", "metrics"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected %q in response", key)
		}
	}
}

func TestHandlePositionsUpstreamError(t *testing.T) {
	server := newTestServer(&fakeExchange{err: errors.New("boom")})

	rec := httptest.NewRecorder()
	server.handlePositions(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestHandlePositionsMethodNotAllowed(t *testing.T) {
	server := newTestServer(&fakeExchange{})

	rec := httptest.NewRecorder()
	server.handlePositions(rec, httptest.NewRequest(http.MethodPost, "/api/positions", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHandleCacheStats(t *testing.T) {
	server := newTestServer(&fakeExchange{})

	rec := httptest.NewRecorder()
	server.handleCacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
