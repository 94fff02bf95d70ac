package api

import (
	"net/http"
	"strings"

	"github.com/okian/elimvote/internal/domain/confirm"
	"github.com/okian/elimvote/internal/domain/types"
)

// AdminHandler serves the administrator endpoints. Every route except login
// and logout sits behind requireAdmin.
type AdminHandler struct {
	deps    Dependencies
	cookies *cookieJar
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies, cookies *cookieJar) *AdminHandler {
	return &AdminHandler{deps: deps, cookies: cookies}
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type confirmationRequest struct {
	Action string `json:"action"`
	Round  string `json:"round,omitempty"`
}

type confirmationResponse struct {
	Token  string `json:"token"`
	Action string `json:"action"`
	Round  string `json:"round,omitempty"`
}

type tokenRequest struct {
	Token string `json:"token"`
	Round string `json:"round,omitempty"`
}

type participantRequest struct {
	Name string `json:"name"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// HandleLogin handles POST /admin/login.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_login"
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.AuthenticateAdmin(r.Context(), req.Secret); err != nil {
		writeFailure(w, op, err)
		return
	}
	h.cookies.login(w)
	writeJSON(w, http.StatusOK, statusResponse{Status: "logged_in"})
}

// HandleLogout handles POST /admin/logout.
func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.logout(w, r)
	writeJSON(w, http.StatusOK, statusResponse{Status: "logged_out"})
}

// HandleState handles GET /admin/state.
func (h *AdminHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_state"
	view, err := h.deps.AdminView(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleConfirmation handles POST /admin/confirmations.
func (h *AdminHandler) HandleConfirmation(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_confirmation"
	var req confirmationRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	kind, err := confirm.ParseKind(req.Action)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	token, err := h.deps.RequestConfirmation(r.Context(), kind, req.Round)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmationResponse{Token: token, Action: string(kind), Round: req.Round})
}

// respond renders the outcome of an admin command.
func respond(w http.ResponseWriter, op string, res types.AdminResult, err error) {
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) token(w http.ResponseWriter, r *http.Request, op string) (tokenRequest, bool) {
	var req tokenRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	return req, true
}

// HandleClose handles POST /admin/close.
func (h *AdminHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_close"
	req, ok := h.token(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.AdminCloseVoting(r.Context(), req.Token)
	respond(w, op, res, err)
}

// HandlePublish handles POST /admin/publish.
func (h *AdminHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_publish"
	res, err := h.deps.AdminPublish(r.Context())
	respond(w, op, res, err)
}

// HandleReset handles POST /admin/reset.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_reset"
	req, ok := h.token(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.AdminResetRound(r.Context(), req.Token)
	respond(w, op, res, err)
}

// HandleWipe handles POST /admin/wipe.
func (h *AdminHandler) HandleWipe(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_wipe"
	req, ok := h.token(w, r, op)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Round) == "" {
		writeFailure(w, op, NewKind(op, ErrBadRequest))
		return
	}
	res, err := h.deps.AdminWipe(r.Context(), req.Round, req.Token)
	respond(w, op, res, err)
}

// HandleAddParticipant handles POST /admin/participants.
func (h *AdminHandler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_add_participant"
	var req participantRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.AdminAddParticipant(r.Context(), req.Name)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleRemoveParticipant handles DELETE /admin/participants/{name}.
func (h *AdminHandler) HandleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_remove_participant"
	res, err := h.deps.AdminRemoveParticipant(r.Context(), r.PathValue("name"))
	respond(w, op, res, err)
}
