package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appLedger "github.com/zephyra-labs/tradeledger/internal/application/ledger"
	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
	"github.com/zephyra-labs/tradeledger/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ledgerSvc *appLedger.Service
	sseHub    *sse.Hub
}

func NewServer(ledgerSvc *appLedger.Service, sseHub *sse.Hub) *Server {
	return &Server{
		ledgerSvc: ledgerSvc,
		sseHub:    sseHub,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/contracts/{address}", func(r chi.Router) {
			r.Post("/logs", s.submitLogEntry)
			r.Get("/logs", s.getHistory)
			r.Get("/", s.getSnapshot)
			r.Get("/steps", s.getStepStatus)
		})
		r.Get("/events", s.streamEvents)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// respondDomainError maps the ledger error taxonomy onto HTTP statuses, so
// callers can tell invalid input from state conflicts from write failures.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case contract.IsValidation(err):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case contract.IsNotFound(err):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case contract.IsConflict(err):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
