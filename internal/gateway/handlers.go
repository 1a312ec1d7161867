package gateway

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/florianilch/fleetflow-client/internal/credentials"
	"github.com/florianilch/fleetflow-client/internal/dashboard"
	"github.com/florianilch/fleetflow-client/internal/fleetapi"
)

type handlers struct {
	sessions  Sessions
	snapshots Snapshots
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerBody struct {
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     fleetapi.Role `json:"role,omitempty"`
}

// SessionResponse describes the gateway's session. Tokens are never included.
type SessionResponse struct {
	State string                 `json:"state"`
	User  *credentials.Principal `json:"user,omitempty"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body loginBody
	if err := readJSON(r, &body); err != nil {
		writeJSONError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Username == "" || body.Password == "" {
		writeJSONError(ctx, w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.sessions.Login(ctx, body.Username, body.Password)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	writeJSON(ctx, w, SessionResponse{State: "authenticated", User: user}, http.StatusOK)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body registerBody
	if err := readJSON(r, &body); err != nil {
		writeJSONError(ctx, w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.sessions.Register(ctx, fleetapi.RegisterRequest{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	writeJSON(ctx, w, SessionResponse{State: "authenticated", User: user}, http.StatusCreated)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, SessionResponse{
		State: h.sessions.State().String(),
		User:  h.sessions.User(),
	}, http.StatusOK)
}

func (h *handlers) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.snapshots.Latest()
	if snap == nil {
		if errors.Is(err, dashboard.ErrNoSnapshot) {
			writeJSONError(ctx, w, "dashboard is loading", http.StatusServiceUnavailable)
			return
		}
		writeBackendError(w, r, err)
		return
	}
	if err != nil {
		// Serve the previous snapshot; the header marks it stale.
		w.Header().Set("X-Snapshot-Stale", "true")
	}
	writeJSON(ctx, w, snap, http.StatusOK)
}

func (h *handlers) authNotForwarded(w http.ResponseWriter, r *http.Request) {
	writeJSONError(r.Context(), w, "use the gateway's /auth endpoints", http.StatusNotFound)
}

// writeBackendError relays a backend error message verbatim with its status code.
// Failures that never reached the backend become 502.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *fleetapi.APIError
	if errors.As(err, &apiErr) {
		writeJSONError(r.Context(), w, fleetapi.Message(err), apiErr.StatusCode)
		return
	}
	slog.WarnContext(r.Context(), "backend request failed", "error", err)
	writeJSONError(r.Context(), w, "backend unavailable", http.StatusBadGateway)
}
