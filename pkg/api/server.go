package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/okravchenko/abook/pkg/logging"
	"github.com/okravchenko/abook/pkg/models"
	"github.com/okravchenko/abook/pkg/store"
)

// Handler serves the contact book HTTP API
type Handler struct {
	store   store.Store
	log     *logging.Logger
	metrics *Metrics
}

// NewHandler creates a new API handler
func NewHandler(s store.Store, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewLogger(logging.INFO, false)
	}
	return &Handler{store: s, log: log}
}

// SetMetrics attaches a metrics recorder to the handler
func (h *Handler) SetMetrics(m *Metrics) {
	h.metrics = m
}

// RegisterRoutes registers all API routes.
// Specific routes are registered before parameterized routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/contacts", h.CreateContact).Methods("POST")
	r.HandleFunc("/contacts", h.ListContacts).Methods("GET")
	r.HandleFunc("/contacts/{name}", h.GetContact).Methods("GET")
	r.HandleFunc("/contacts/{name}", h.DeleteContact).Methods("DELETE")
	r.HandleFunc("/contacts/{name}/phones", h.AddPhone).Methods("POST")
	r.HandleFunc("/contacts/{name}/phones", h.ReplacePhone).Methods("PUT")
	r.HandleFunc("/contacts/{name}/phones/{phone}", h.RemovePhone).Methods("DELETE")
	r.HandleFunc("/contacts/{name}/birthday", h.SetBirthday).Methods("PUT")
	r.HandleFunc("/contacts/{name}/birthday", h.GetBirthday).Methods("GET")

	r.HandleFunc("/birthdays", h.UpcomingBirthdays).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")

	r.Use(h.observe)
}

// observe records request counts per route and status
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if h.metrics != nil {
			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			h.metrics.RecordRequest(r.Method, route, rec.status)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// storeError maps store and validation errors to HTTP status codes
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrContactNotFound), errors.Is(err, store.ErrPhoneNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrDuplicatePhone):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidPhone), errors.Is(err, models.ErrInvalidBirthday):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

// CreateContact creates a contact, optionally with an initial phone and birthday.
// Posting an existing name appends the phone instead, mirroring the
// assistant's "add" command.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	if req.Phone != "" {
		if err := models.ValidatePhone(req.Phone); err != nil {
			storeError(w, err)
			return
		}
	}

	var birthday *models.Birthday
	if req.Birthday != "" {
		b, err := models.ParseBirthday(req.Birthday)
		if err != nil {
			storeError(w, err)
			return
		}
		birthday = &b
	}

	if existing, err := h.store.GetContact(req.Name); err == nil {
		if req.Phone != "" {
			if err := h.store.AddPhone(req.Name, req.Phone); err != nil && !errors.Is(err, store.ErrDuplicatePhone) {
				storeError(w, err)
				return
			}
		}
		if birthday != nil {
			if err := h.store.SetBirthday(req.Name, *birthday); err != nil {
				storeError(w, err)
				return
			}
		}
		updated, err := h.store.GetContact(req.Name)
		if err != nil {
			storeError(w, err)
			return
		}
		h.log.Info("Contact updated", map[string]interface{}{"name": existing.Name})
		writeJSON(w, http.StatusOK, updated)
		return
	}

	now := time.Now()
	contact := &models.Contact{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phones:    []string{},
		Birthday:  birthday,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Phone != "" {
		contact.Phones = append(contact.Phones, req.Phone)
	}

	if err := h.store.CreateContact(contact); err != nil {
		h.log.Error("Failed to create contact", map[string]interface{}{"name": req.Name, "error": err.Error()})
		storeError(w, err)
		return
	}

	h.log.Info("Contact added", map[string]interface{}{"name": contact.Name})
	writeJSON(w, http.StatusCreated, contact)
}

type contactsListResponse struct {
	Contacts []*models.Contact `json:"contacts"`
	Count    int               `json:"count"`
}

// ListContacts returns all contacts
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts := h.store.GetAllContacts()
	writeJSON(w, http.StatusOK, contactsListResponse{Contacts: contacts, Count: len(contacts)})
}

// GetContact returns a single contact by name
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	contact, err := h.store.GetContact(name)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// DeleteContact removes a contact by name
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.store.DeleteContact(name); err != nil {
		storeError(w, err)
		return
	}
	h.log.Info("Contact deleted", map[string]interface{}{"name": name})
	w.WriteHeader(http.StatusNoContent)
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

// AddPhone appends a phone number to a contact
func (h *Handler) AddPhone(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req phoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.AddPhone(name, req.Phone); err != nil {
		storeError(w, err)
		return
	}

	contact, err := h.store.GetContact(name)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// ReplacePhone swaps an existing phone number for a new one
func (h *Handler) ReplacePhone(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req models.PhoneChange
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.ReplacePhone(name, req.OldPhone, req.NewPhone); err != nil {
		storeError(w, err)
		return
	}

	contact, err := h.store.GetContact(name)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// RemovePhone removes a phone number from a contact
func (h *Handler) RemovePhone(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.store.RemovePhone(vars["name"], vars["phone"]); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type birthdayRequest struct {
	Birthday string `json:"birthday"`
}

// SetBirthday sets or replaces a contact's birthday
func (h *Handler) SetBirthday(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req birthdayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	birthday, err := models.ParseBirthday(req.Birthday)
	if err != nil {
		storeError(w, err)
		return
	}

	if err := h.store.SetBirthday(name, birthday); err != nil {
		storeError(w, err)
		return
	}

	contact, err := h.store.GetContact(name)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

type birthdayResponse struct {
	Name     string `json:"name"`
	Birthday string `json:"birthday,omitempty"`
}

// GetBirthday returns a contact's birthday
func (h *Handler) GetBirthday(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	birthday, err := h.store.GetBirthday(name)
	if err != nil {
		storeError(w, err)
		return
	}

	resp := birthdayResponse{Name: name}
	if birthday != nil {
		resp.Birthday = birthday.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type upcomingResponse struct {
	Upcoming []models.Upcoming `json:"upcoming"`
	Count    int               `json:"count"`
	Within   int               `json:"within_days"`
}

// UpcomingBirthdays returns contacts with a congratulation date within the
// requested window (?within=N, default 7 days)
func (h *Handler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	window := models.DefaultUpcomingWindow
	if raw := r.URL.Query().Get("within"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "within must be a non-negative integer"})
			return
		}
		window = parsed
	}

	upcoming, err := h.store.UpcomingBirthdays(time.Now(), window)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, upcomingResponse{Upcoming: upcoming, Count: len(upcoming), Within: window})
}

// Health reports store health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
