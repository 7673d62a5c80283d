package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/indexing/resolver"
)

// HashResolver resolves one record hint.
type HashResolver interface {
	Resolve(ctx context.Context, chainID domain.ChainID, hint domain.RecordHint) (domain.ResolvedHash, error)
}

// Server provides HTTP endpoints for health, metrics and hash lookups.
type Server struct {
	monitor  *Monitor
	resolver HashResolver
	server   *http.Server
	log      *slog.Logger
}

// NewServer creates a new server. hashes may be nil, in which case the
// hash route is not mounted.
func NewServer(monitor *Monitor, hashes HashResolver, port int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	mux := http.NewServeMux()
	s := &Server{
		monitor:  monitor,
		resolver: hashes,
		log:      log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	mux.Handle("GET /metrics", promhttp.Handler())
	if hashes != nil {
		mux.HandleFunc("GET /v1/chains/{chain}/records/{id}/hash", s.handleHash)
	}

	return s
}

// Handler exposes the routes for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until the server fails or Stop is called. A graceful
// Stop returns nil.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := Aggregate(s.monitor.CheckHealth(r.Context()))

	code := http.StatusOK
	if status == StatusCritical {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": string(status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	writeJSON(w, http.StatusOK, HealthReport{
		SystemStatus: Aggregate(report),
		Chains:       report,
	})
}

type hashResponse struct {
	ChainID  string `json:"chain_id"`
	RecordID uint64 `json:"record_id"`
	Block    uint64 `json:"block"`
	TxHash   string `json:"tx_hash"`
	Resolved bool   `json:"resolved"`
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	chainID, err := domain.ParseChainID(r.PathValue("chain"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chain")
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	var block uint64
	if b := r.URL.Query().Get("block"); b != "" {
		if block, err = strconv.ParseUint(b, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid block")
			return
		}
	}

	res, err := s.resolver.Resolve(r.Context(), chainID, domain.RecordHint{RecordID: id, BlockNumber: block})
	switch {
	case errors.Is(err, resolver.ErrUnknownChain):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.log.Warn("hash lookup aborted", "chain", chainID.String(), "record", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, "lookup aborted")
		return
	}

	writeJSON(w, http.StatusOK, hashResponse{
		ChainID:  chainID.String(),
		RecordID: id,
		Block:    block,
		TxHash:   res.TxHash,
		Resolved: res.Resolved(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
