// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/elimvote/internal/app"
	"github.com/okian/elimvote/internal/domain/confirm"
	"github.com/okian/elimvote/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitBallot(ctx context.Context, voter string, selections []string) (types.Result, error)
	AuthenticateAdmin(ctx context.Context, secret string) error
	RequestConfirmation(ctx context.Context, kind confirm.Kind, roundKey string) (string, error)

	AdminCloseVoting(ctx context.Context, token string) (types.AdminResult, error)
	AdminPublish(ctx context.Context) (types.AdminResult, error)
	AdminResetRound(ctx context.Context, token string) (types.AdminResult, error)
	AdminWipe(ctx context.Context, roundKey, token string) (types.AdminResult, error)
	AdminAddParticipant(ctx context.Context, name string) (types.AdminResult, error)
	AdminRemoveParticipant(ctx context.Context, name string) (types.AdminResult, error)

	View(ctx context.Context, voter string) (types.View, error)
	AdminView(ctx context.Context) (types.AdminView, error)
	Standings(ctx context.Context, roundKey string, admin bool) ([]types.Standing, error)
	History(ctx context.Context) (map[string][]types.Standing, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithSecureCookies marks the voter and admin cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.cookies.secure = secure
	}
}

// Server wires HTTP routes for the voting API.
type Server struct {
	deps    Dependencies
	cookies *cookieJar

	healthHandler *HealthHandler
	voterHandler  *VoterHandler
	adminHandler  *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		cookies: newCookieJar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(statsProvider)
	s.voterHandler = NewVoterHandler(deps, s.cookies)
	s.adminHandler = NewAdminHandler(deps, s.cookies)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())

	mux.HandleFunc("GET /state", MetricsMiddleware(s.voterHandler.HandleState, "state"))
	mux.HandleFunc("POST /ballots", MetricsMiddleware(s.voterHandler.HandleBallot, "ballots"))
	mux.HandleFunc("GET /standings", MetricsMiddleware(s.voterHandler.HandleStandings, "standings"))
	mux.HandleFunc("GET /history", MetricsMiddleware(s.voterHandler.HandleHistory, "history"))

	mux.HandleFunc("POST /admin/login", MetricsMiddleware(s.adminHandler.HandleLogin, "admin_login"))
	mux.HandleFunc("POST /admin/logout", MetricsMiddleware(s.adminHandler.HandleLogout, "admin_logout"))

	admin := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(s.cookies.requireAdmin(h), endpoint)
	}
	mux.HandleFunc("GET /admin/state", admin(s.adminHandler.HandleState, "admin_state"))
	mux.HandleFunc("POST /admin/confirmations", admin(s.adminHandler.HandleConfirmation, "admin_confirmations"))
	mux.HandleFunc("POST /admin/close", admin(s.adminHandler.HandleClose, "admin_close"))
	mux.HandleFunc("POST /admin/publish", admin(s.adminHandler.HandlePublish, "admin_publish"))
	mux.HandleFunc("POST /admin/reset", admin(s.adminHandler.HandleReset, "admin_reset"))
	mux.HandleFunc("POST /admin/wipe", admin(s.adminHandler.HandleWipe, "admin_wipe"))
	mux.HandleFunc("POST /admin/participants", admin(s.adminHandler.HandleAddParticipant, "admin_participants"))
	mux.HandleFunc("DELETE /admin/participants/{name}", admin(s.adminHandler.HandleRemoveParticipant, "admin_participants"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure renders err with the status its code maps to.
func writeFailure(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, string(service.CodeAuthFailed), err)
		return
	}
	if errors.Is(err, ErrBadRequest) {
		writeError(w, http.StatusBadRequest, string(service.CodeInvalidRequest), err)
		return
	}
	code := service.CodeOf(err)
	status := statusOf(code)
	if status == http.StatusInternalServerError {
		// internals stay in the log
		writeError(w, status, string(code), nil)
		return
	}
	writeError(w, status, string(code), Wrap(op, err))
}

func statusOf(code service.Code) int {
	switch code {
	case service.CodeInvalidSelectionCount, service.CodeUnknownParticipant,
		service.CodeEmptyName, service.CodeInvalidRequest:
		return http.StatusBadRequest
	case service.CodeAuthFailed:
		return http.StatusUnauthorized
	case service.CodeResultsHidden:
		return http.StatusForbidden
	case service.CodeNotFound, service.CodeUnknownRound:
		return http.StatusNotFound
	case service.CodeRoundClosed, service.CodeAlreadyVoted, service.CodeAlreadyClosed,
		service.CodeNotClosed, service.CodeDuplicateName, service.CodeConfirmationRequired:
		return http.StatusConflict
	case service.CodeBusy:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
