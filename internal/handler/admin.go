package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/herwingx/secret-santa/internal/auth"
	"github.com/herwingx/secret-santa/internal/service"
)

// AdminHandler exposes the credential-gated endpoints. Every admin request
// may authenticate two ways:
//   - "password" in the JSON body (the original contract; the admin panel
//     posts the shared secret with each call)
//   - an Authorization: Bearer token obtained from HandleLogin
//
// The handler only extracts both from the request; the decision is the
// service's Authorizer.
type AdminHandler struct {
	admin  *service.AdminService
	guard  *auth.Guard
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService, guard *auth.Guard, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, guard: guard, logger: logger}
}

// bearerToken pulls the token out of the Authorization header, or "".
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleLogin exchanges the shared password for a session token.
//
// HTTP: POST /api/admin/login {"password":"..."} → {"token":"...","expiresAt":"..."}
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, expires, err := h.guard.Login(req.Password)
	if err != nil {
		h.logger.Warn("admin login rejected", slog.String("ip", r.RemoteAddr))
		writeError(w, err)
		return
	}

	h.logger.Info("admin login", slog.String("ip", r.RemoteAddr))
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

type adminRequest struct {
	Password string `json:"password"`
}

// HandleMatches returns the full matches + pending report.
//
// HTTP: POST /api/admin/matches {"password":"..."}
//
//	→ {"matches":[...],"pending":[...],"total":34,"completed":12}
//	→ 401 on a bad credential
func (h *AdminHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.admin.Report(r.Context(), req.Password, bearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type addParticipantRequest struct {
	Password string `json:"password"`
	Name     string `json:"name"`
}

type addParticipantResponse struct {
	Message string `json:"message"`
	*service.AddResult
}

// HandleAddParticipant appends a participant to the roster without a
// restart.
//
// HTTP: POST /api/admin/add-participant {"password":"...","name":"NEW NAME"}
//
//	→ {"message":"...","participant":{"id":"35","name":"NEW NAME"},"total":35}
//	→ 409 when the name already exists, 400 when it is empty
func (h *AdminHandler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.admin.AddParticipant(r.Context(), req.Password, bearerToken(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addParticipantResponse{
		Message:   "Participant added successfully",
		AddResult: result,
	})
}

// HandleHistory returns the append-only draw audit trail.
//
// HTTP: POST /api/admin/history {"password":"..."} → {"events":[...]}
func (h *AdminHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	events, err := h.admin.History(r.Context(), req.Password, bearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
