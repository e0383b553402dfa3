package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/team-calendar/internal/application"
)

type calendarService interface {
	Create(ctx context.Context, params application.CreateCalendarItemParams) (application.CalendarItem, error)
	Update(ctx context.Context, params application.UpdateCalendarItemParams) (application.CalendarItem, error)
	Delete(ctx context.Context, principal application.Principal, itemID string) error
	List(ctx context.Context, principal application.Principal, filter application.CalendarItemFilter) ([]application.CalendarItem, error)
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

type createParticipantRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role"`
}

type createCalendarItemRequest struct {
	Type         string                     `json:"type" validate:"required"`
	Title        string                     `json:"title" validate:"required"`
	Description  *string                    `json:"description"`
	StartAt      string                     `json:"startAt" validate:"required"`
	EndAt        *string                    `json:"endAt"`
	AllDay       bool                       `json:"allDay"`
	Status       string                     `json:"status"`
	Location     *string                    `json:"location"`
	Participants []createParticipantRequest `json:"participants"`
}

type patchParticipantRequest struct {
	UserID string  `json:"userId"`
	Role   string  `json:"role"`
	RSVP   *string `json:"rsvp"`
}

type calendarItemEnvelope struct {
	Item calendarItemDTO `json:"item"`
}

type calendarItemListEnvelope struct {
	Items []calendarItemDTO `json:"items"`
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createCalendarItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if details := validateRequest(req); details != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "validation failed", Details: details})
		return
	}

	startAt, err := parseTimestamp(req.StartAt)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	input := application.CalendarItemInput{
		Type:        application.ItemType(req.Type),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartAt:     startAt,
		AllDay:      req.AllDay,
		Status:      application.ItemStatus(req.Status),
		Location:    req.Location,
	}
	if req.EndAt != nil {
		endAt, err := parseTimestamp(*req.EndAt)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		input.EndAt = &endAt
	}
	for _, participant := range req.Participants {
		input.Participants = append(input.Participants, application.ParticipantInput{
			UserID: strings.TrimSpace(participant.UserID),
			Role:   application.ParticipantRole(participant.Role),
		})
	}

	principal, _ := PrincipalFromContext(r.Context())

	item, err := h.service.Create(r.Context(), application.CreateCalendarItemParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "item_id", item.ID, "item_type", string(item.Type)).InfoContext(r.Context(), "calendar item created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, calendarItemEnvelope{Item: toCalendarItemDTO(item)})
}

func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID, ok := ItemIDFromContext(r.Context())
	if !ok || strings.TrimSpace(itemID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	patch, err := decodeCalendarItemPatch(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	item, err := h.service.Update(r.Context(), application.UpdateCalendarItemParams{
		Principal: principal,
		ItemID:    itemID,
		Patch:     patch,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "item_id", item.ID).InfoContext(r.Context(), "calendar item updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarItemEnvelope{Item: toCalendarItemDTO(item)})
}

func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	itemID, ok := ItemIDFromContext(r.Context())
	if !ok || strings.TrimSpace(itemID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, itemID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "item_id", itemID).InfoContext(r.Context(), "calendar item deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := application.CalendarItemFilter{
		Type:   application.ItemType(strings.TrimSpace(query.Get("type"))),
		Status: application.ItemStatus(strings.TrimSpace(query.Get("status"))),
		Search: query.Get("search"),
	}

	if from := strings.TrimSpace(query.Get("from")); from != "" {
		ts, err := parseTimestamp(from)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		filter.From = &ts
	}
	if to := strings.TrimSpace(query.Get("to")); to != "" {
		ts, err := parseTimestamp(to)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		filter.To = &ts
	}

	principal, _ := PrincipalFromContext(r.Context())

	items, err := h.service.List(r.Context(), principal, filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarItemListEnvelope{Items: toCalendarItemDTOs(items)})
}

// decodeCalendarItemPatch reads a partial update, distinguishing omitted
// fields from explicit nulls for the nullable columns. A participants key,
// even an empty array, replaces the stored list wholesale.
func decodeCalendarItemPatch(r *http.Request) (application.CalendarItemPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return application.CalendarItemPatch{}, errBadRequestBody
	}

	var patch application.CalendarItemPatch

	if value, ok := raw["type"]; ok {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errBadRequestBody
		}
		itemType := application.ItemType(s)
		patch.Type = &itemType
	}
	if value, ok := raw["title"]; ok {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errBadRequestBody
		}
		s = strings.TrimSpace(s)
		patch.Title = &s
	}
	if value, ok := raw["description"]; ok {
		patch.DescriptionSet = true
		if err := json.Unmarshal(value, &patch.Description); err != nil {
			return patch, errBadRequestBody
		}
	}
	if value, ok := raw["startAt"]; ok {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errInvalidTimestamp
		}
		ts, err := parseTimestamp(s)
		if err != nil {
			return patch, err
		}
		patch.StartAt = &ts
	}
	if value, ok := raw["endAt"]; ok {
		patch.EndAtSet = true
		var s *string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errInvalidTimestamp
		}
		if s != nil {
			ts, err := parseTimestamp(*s)
			if err != nil {
				return patch, err
			}
			patch.EndAt = &ts
		}
	}
	if value, ok := raw["allDay"]; ok {
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return patch, errBadRequestBody
		}
		patch.AllDay = &b
	}
	if value, ok := raw["status"]; ok {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errBadRequestBody
		}
		status := application.ItemStatus(s)
		patch.Status = &status
	}
	if value, ok := raw["location"]; ok {
		patch.LocationSet = true
		if err := json.Unmarshal(value, &patch.Location); err != nil {
			return patch, errBadRequestBody
		}
	}
	if value, ok := raw["participants"]; ok {
		patch.ParticipantsSet = true
		var participants []patchParticipantRequest
		if err := json.Unmarshal(value, &participants); err != nil {
			return patch, errBadRequestBody
		}
		patch.Participants = make([]application.ParticipantInput, 0, len(participants))
		for _, participant := range participants {
			input := application.ParticipantInput{
				UserID: strings.TrimSpace(participant.UserID),
				Role:   application.ParticipantRole(participant.Role),
			}
			if participant.RSVP != nil {
				rsvp := application.RSVP(*participant.RSVP)
				input.RSVP = &rsvp
			}
			patch.Participants = append(patch.Participants, input)
		}
	}

	return patch, nil
}
