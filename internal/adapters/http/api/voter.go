package api

import (
	"net/http"
)

// VoterHandler serves the public voter endpoints.
type VoterHandler struct {
	deps    Dependencies
	cookies *cookieJar
}

// NewVoterHandler creates a new voter handler.
func NewVoterHandler(deps Dependencies, cookies *cookieJar) *VoterHandler {
	return &VoterHandler{deps: deps, cookies: cookies}
}

type ballotRequest struct {
	Selections []string `json:"selections"`
}

// HandleState handles GET /state.
func (h *VoterHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_state"
	voter := h.cookies.voter(w, r)
	view, err := h.deps.View(r.Context(), voter)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleBallot handles POST /ballots.
func (h *VoterHandler) HandleBallot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_ballot"
	var req ballotRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	voter := h.cookies.voter(w, r)
	res, err := h.deps.SubmitBallot(r.Context(), voter, req.Selections)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleStandings handles GET /standings?round=dayN.
func (h *VoterHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"
	rows, err := h.deps.Standings(r.Context(), r.URL.Query().Get("round"), h.cookies.isAdmin(r))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleHistory handles GET /history.
func (h *VoterHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	history, err := h.deps.History(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
