package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vozagenda/vozagenda/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type errorResponse struct {
	Error        string       `json:"error"`
	Fields       []FieldError `json:"fields,omitempty"`
	Alternatives []string     `json:"alternatives,omitempty"`
}

// Create handles POST /api/appointments requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("appointment created", "id", appt.ID.String(), "patient", appt.PatientName)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

// ListResponse is the response for listing appointments
type ListResponse struct {
	Appointments []Appointment `json:"appointments"`
	Count        int           `json:"count"`
}

// List handles GET /api/appointments requests.
// Supported query params: day (YYYY-MM-DD), from, to (RFC3339), room, status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		appts []Appointment
		err   error
	)

	if day := r.URL.Query().Get("day"); day != "" {
		parsed, perr := time.ParseInLocation("2006-01-02", day, time.Local)
		if perr != nil {
			http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		appts, err = h.service.ListByDay(r.Context(), parsed)
	} else {
		filter := Filter{
			Room:   r.URL.Query().Get("room"),
			Status: Status(r.URL.Query().Get("status")),
		}
		if from := r.URL.Query().Get("from"); from != "" {
			if filter.From, err = time.Parse(time.RFC3339, from); err != nil {
				http.Error(w, "invalid from timestamp", http.StatusBadRequest)
				return
			}
		}
		if to := r.URL.Query().Get("to"); to != "" {
			if filter.To, err = time.Parse(time.RFC3339, to); err != nil {
				http.Error(w, "invalid to timestamp", http.StatusBadRequest)
				return
			}
		}
		appts, err = h.service.List(r.Context(), filter)
	}
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Appointments: appts, Count: len(appts)})
}

// Get handles GET /api/appointments/{id} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	appt, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// Update handles PUT /api/appointments/{id} requests
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// Delete handles DELETE /api/appointments/{id} requests
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps domain errors onto HTTP responses: validation
// problems become 400, schedule conflicts 409 with alternatives, and a
// missing id 404.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var conflictErr *ConflictError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  validationErr.Error(),
			Fields: validationErr.Errors,
		})
	case errors.As(err, &conflictErr):
		alternatives := make([]string, len(conflictErr.Alternatives))
		for i, slot := range conflictErr.Alternatives {
			alternatives[i] = slot.Format(time.RFC3339)
		}
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:        conflictErr.Error(),
			Alternatives: alternatives,
		})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "appointment not found"})
	default:
		h.logger.Error("appointment request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
