package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/team-calendar/internal/application"
)

type scheduleService interface {
	Create(ctx context.Context, params application.CreateScheduleEntryParams) (application.ScheduleEntry, error)
	Update(ctx context.Context, params application.UpdateScheduleEntryParams) (application.ScheduleEntry, error)
	Delete(ctx context.Context, principal application.Principal, entryID string) error
	ListByDate(ctx context.Context, principal application.Principal, date time.Time) ([]application.ScheduleEntry, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

type createScheduleEntryRequest struct {
	Date      string  `json:"date" validate:"required"`
	UserID    string  `json:"userId" validate:"required"`
	StartTime int     `json:"startTime"`
	EndTime   int     `json:"endTime"`
	Note      *string `json:"note"`
}

type scheduleEntryEnvelope struct {
	Entry scheduleEntryDTO `json:"entry"`
}

type scheduleEntryListEnvelope struct {
	Entries []scheduleEntryDTO `json:"entries"`
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createScheduleEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if details := validateRequest(req); details != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "validation failed", Details: details})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entry, err := h.service.Create(r.Context(), application.CreateScheduleEntryParams{
		Principal: principal,
		Input: application.ScheduleEntryInput{
			Date:      date,
			UserID:    strings.TrimSpace(req.UserID),
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Note:      req.Note,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "entry_id", entry.ID).InfoContext(r.Context(), "schedule entry created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, scheduleEntryEnvelope{Entry: toScheduleEntryDTO(entry)})
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	patch, err := decodeScheduleEntryPatch(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entry, err := h.service.Update(r.Context(), application.UpdateScheduleEntryParams{
		Principal: principal,
		EntryID:   entryID,
		Patch:     patch,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Update", "entry_id", entry.ID).InfoContext(r.Context(), "schedule entry updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleEntryEnvelope{Entry: toScheduleEntryDTO(entry)})
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, entryID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "entry_id", entryID).InfoContext(r.Context(), "schedule entry deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rawDate := strings.TrimSpace(r.URL.Query().Get("date"))
	if rawDate == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	date, err := parseDate(rawDate)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entries, err := h.service.ListByDate(r.Context(), principal, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleEntryListEnvelope{Entries: toScheduleEntryDTOs(entries)})
}

// decodeScheduleEntryPatch reads a partial update, distinguishing omitted
// fields from explicit nulls by inspecting which keys the body carried.
func decodeScheduleEntryPatch(r *http.Request) (application.ScheduleEntryPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return application.ScheduleEntryPatch{}, errBadRequestBody
	}

	var patch application.ScheduleEntryPatch

	if value, ok := raw["date"]; ok {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errInvalidDate
		}
		date, err := parseDate(s)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	if value, ok := raw["userId"]; ok {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errBadRequestBody
		}
		s = strings.TrimSpace(s)
		patch.UserID = &s
	}
	if value, ok := raw["startTime"]; ok {
		var n int
		if err := json.Unmarshal(value, &n); err != nil {
			return patch, errBadRequestBody
		}
		patch.StartTime = &n
	}
	if value, ok := raw["endTime"]; ok {
		var n int
		if err := json.Unmarshal(value, &n); err != nil {
			return patch, errBadRequestBody
		}
		patch.EndTime = &n
	}
	if value, ok := raw["note"]; ok {
		patch.NoteSet = true
		var s *string
		if err := json.Unmarshal(value, &s); err != nil {
			return patch, errBadRequestBody
		}
		patch.Note = s
	}

	return patch, nil
}
