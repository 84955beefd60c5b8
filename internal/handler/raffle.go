package handler

import (
	"log/slog"
	"net/http"

	"github.com/herwingx/secret-santa/internal/service"
)

// RaffleHandler exposes the public raffle endpoints the wheel client uses:
// the roster, a spinner's status, the spin itself, and the reset.
type RaffleHandler struct {
	raffle *service.RaffleService
	logger *slog.Logger
}

// NewRaffleHandler creates a RaffleHandler.
func NewRaffleHandler(raffle *service.RaffleService, logger *slog.Logger) *RaffleHandler {
	return &RaffleHandler{raffle: raffle, logger: logger}
}

// HandleParticipants returns the full roster.
//
// HTTP: GET /api/participants → [{id,name}, ...]
func (h *RaffleHandler) HandleParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.raffle.Participants(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participants)
}

// HandleStatus reports whether a spinner has already drawn.
//
// HTTP: GET /api/status/{id}
//
//	→ {"hasPlayed":false}
//	→ {"hasPlayed":true,"receiverId":"7","receiverName":"..."}
func (h *RaffleHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.raffle.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// spinRequest is the body of POST /api/spin.
type spinRequest struct {
	SpinnerID string `json:"spinnerId"`
}

// HandleSpin runs a draw for the given spinner.
//
// HTTP: POST /api/spin {"spinnerId":"3"}
//
//	→ 200 {"receiverId":"7","receiverName":"...","alreadyAssigned":false}
//	→ 409 {"error":"chain_stuck",...} when no eligible receiver remains
//
// Repeat calls for the same spinner return the stored result with
// alreadyAssigned=true; refreshing the page never re-rolls.
func (h *RaffleHandler) HandleSpin(w http.ResponseWriter, r *http.Request) {
	var req spinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.raffle.Assign(r.Context(), req.SpinnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleReset clears every assignment.
//
// HTTP: POST /api/reset → {"message":"Reset successful"}
func (h *RaffleHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.raffle.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reset successful"})
}
