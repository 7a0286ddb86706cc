package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appLedger "github.com/zephyra-labs/tradeledger/internal/application/ledger"
	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
	"github.com/zephyra-labs/tradeledger/internal/domain/notification"
)

type submitLogRequest struct {
	Action          string         `json:"action"`
	TransactionHash string         `json:"transactionHash"`
	ActorAddress    string         `json:"actorAddress"`
	Extra           map[string]any `json:"extra,omitempty"`
	VerifyOnChain   bool           `json:"verifyOnChain,omitempty"`
}

func (s *Server) submitLogEntry(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req submitLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "body must be a JSON object")
		return
	}

	entry, err := s.ledgerSvc.Submit(r.Context(), appLedger.SubmitInput{
		Entry: &contract.LogEntry{
			ContractAddress: address,
			Action:          contract.Action(req.Action),
			TransactionHash: req.TransactionHash,
			ActorAddress:    req.ActorAddress,
			Extra:           req.Extra,
		},
		VerifyOnChain: req.VerifyOnChain,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	state, err := s.ledgerSvc.GetSnapshot(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) getStepStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.ledgerSvc.GetStepStatus(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.ledgerSvc.GetHistory(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"logs": history})
}

// streamEvents subscribes the caller to merged-entry events for one party
// address via server-sent events.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "address query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	client := notification.NewSSEClient(uuid.NewString(), contract.NormalizeAddress(address))
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(client.ClientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-client.MessageChan:
			if !open {
				return
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.ID, msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}
