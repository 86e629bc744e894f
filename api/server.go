// Package api exposes a small operational HTTP surface: health, the
// current portfolio snapshot, cache statistics, and Prometheus metrics.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/pkg/portfolio"
	"github.com/satishjaiswal/hyperliquid-position/pkg/service"
)

type Server struct {
	svc    *service.PositionService
	logger *logrus.Logger
	port   string
}

func NewServer(svc *service.PositionService, logger *logrus.Logger, port string) *Server {
	return &Server{
		svc:    svc,
		logger: logger,
		port:   port,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/cache/stats", s.handleCacheStats)
	mux.Handle("/metrics", promhttp.Handler())

	s.logger.Infof("Starting API server on port %s", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handlePositions serves the current snapshot through the orchestrator,
// so a fresh cache entry answers without touching the exchange.
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	positions, account, err := s.svc.PositionsAndAccount(r.Context(), service.FetchPolicy{UseCache: true})
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch positions for API request")
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"account":   account,
		"metrics":   portfolio.Calculate(positions, account),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, s.svc.CacheStats())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
