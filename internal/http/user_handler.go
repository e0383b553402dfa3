package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/team-calendar/internal/application"
)

type userService interface {
	List(ctx context.Context, principal application.Principal) ([]application.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

type userListEnvelope struct {
	Users []userDTO `json:"users"`
}

// List returns the full member directory ordered by name. Any authenticated
// principal may call it; the roster backs participant pickers on the client.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	users, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userListEnvelope{Users: toUserDTOs(users)})
}
