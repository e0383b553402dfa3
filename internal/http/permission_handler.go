package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/team-calendar/internal/application"
)

type permissionService interface {
	ListUserAccess(ctx context.Context, principal application.Principal) ([]application.UserAccess, error)
	SetPermissions(ctx context.Context, params application.SetPermissionsParams) ([]application.ModulePermission, error)
}

type PermissionHandler struct {
	service   permissionService
	responder responder
	logger    *slog.Logger
}

func NewPermissionHandler(service permissionService, logger *slog.Logger) *PermissionHandler {
	base := defaultLogger(logger)
	return &PermissionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PermissionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PermissionHandler", operation, attrs...)
}

type userAccessDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        string          `json:"role"`
	Permissions []permissionDTO `json:"permissions"`
}

type userAccessListEnvelope struct {
	Users []userAccessDTO `json:"users"`
}

type permissionEntryRequest struct {
	Module   string `json:"module" validate:"required"`
	MyLevel  string `json:"myLevel" validate:"required"`
	AllLevel string `json:"allLevel" validate:"required"`
}

type putPermissionsRequest struct {
	UserID      string                   `json:"userId" validate:"required"`
	Permissions []permissionEntryRequest `json:"permissions" validate:"dive"`
}

type permissionListEnvelope struct {
	Permissions []permissionDTO `json:"permissions"`
}

// ListAccess returns every user together with their resolved permission set,
// one triple per module.
func (h *PermissionHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	access, err := h.service.ListUserAccess(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	users := make([]userAccessDTO, 0, len(access))
	for _, entry := range access {
		users = append(users, userAccessDTO{
			ID:          entry.User.ID,
			Name:        entry.User.Name,
			Email:       entry.User.Email,
			Role:        string(entry.User.Role),
			Permissions: toPermissionDTOs(entry.Permissions),
		})
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userAccessListEnvelope{Users: users})
}

// Put replaces the permission triples for one user.
func (h *PermissionHandler) Put(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req putPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if details := validateRequest(req); details != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "validation failed", Details: details})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entries := make([]application.ModulePermission, 0, len(req.Permissions))
	for _, entry := range req.Permissions {
		entries = append(entries, application.ModulePermission{
			Module:   application.Module(entry.Module),
			MyLevel:  application.Level(entry.MyLevel),
			AllLevel: application.Level(entry.AllLevel),
		})
	}

	userID := strings.TrimSpace(req.UserID)
	updated, err := h.service.SetPermissions(r.Context(), application.SetPermissionsParams{
		Principal:   principal,
		UserID:      userID,
		Permissions: entries,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Put", "user_id", userID).InfoContext(r.Context(), "permissions updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, permissionListEnvelope{Permissions: toPermissionDTOs(updated)})
}
