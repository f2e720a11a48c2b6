package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/okravchenko/abook/pkg/api"
	"github.com/okravchenko/abook/pkg/models"
	"github.com/okravchenko/abook/pkg/store"
)

func newTestRouter(t *testing.T) (*mux.Router, store.Store) {
	t.Helper()

	testStore := store.NewMemoryStore()
	handler := api.NewHandler(testStore, nil)
	handler.SetMetrics(api.NewMetrics(testStore))

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router, testStore
}

func doJSON(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestContactLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	// Create
	w := doJSON(t, router, "POST", "/contacts", `{"name":"John","phone":"1234567890"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Response: %s", w.Code, w.Body.String())
	}

	var created models.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if created.Name != "John" || len(created.Phones) != 1 {
		t.Errorf("Unexpected contact: %+v", created)
	}

	// Posting the same name appends a phone and returns 200
	w = doJSON(t, router, "POST", "/contacts", `{"name":"John","phone":"5555555555"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for update, got %d", w.Code)
	}

	// Get
	w = doJSON(t, router, "GET", "/contacts/John", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var fetched models.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(fetched.Phones) != 2 {
		t.Errorf("Expected 2 phones, got %v", fetched.Phones)
	}

	// List
	w = doJSON(t, router, "GET", "/contacts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("Expected 1 contact, got %d", list.Count)
	}

	// Delete
	w = doJSON(t, router, "DELETE", "/contacts/John", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	w = doJSON(t, router, "GET", "/contacts/John", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestPhoneEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, "POST", "/contacts", `{"name":"John","phone":"1234567890"}`)

	// Add
	w := doJSON(t, router, "POST", "/contacts/John/phones", `{"phone":"5555555555"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	// Duplicate add conflicts
	w = doJSON(t, router, "POST", "/contacts/John/phones", `{"phone":"5555555555"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate, got %d", w.Code)
	}

	// Invalid phone rejected
	w = doJSON(t, router, "POST", "/contacts/John/phones", `{"phone":"123"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid phone, got %d", w.Code)
	}

	// Replace
	w = doJSON(t, router, "PUT", "/contacts/John/phones", `{"old_phone":"5555555555","new_phone":"1112223334"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	// Replacing a missing phone is a 404
	w = doJSON(t, router, "PUT", "/contacts/John/phones", `{"old_phone":"5555555555","new_phone":"2223334445"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for absent phone, got %d", w.Code)
	}

	// Remove
	w = doJSON(t, router, "DELETE", "/contacts/John/phones/1234567890", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
}

func TestBirthdayEndpoints(t *testing.T) {
	router, testStore := newTestRouter(t)

	doJSON(t, router, "POST", "/contacts", `{"name":"John","phone":"1234567890"}`)

	w := doJSON(t, router, "PUT", "/contacts/John/birthday", `{"birthday":"15.06.1990"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "PUT", "/contacts/John/birthday", `{"birthday":"1990-06-15"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad date, got %d", w.Code)
	}

	w = doJSON(t, router, "GET", "/contacts/John/birthday", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Name     string `json:"name"`
		Birthday string `json:"birthday"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Birthday != "15.06.1990" {
		t.Errorf("Expected birthday 15.06.1990, got %q", resp.Birthday)
	}

	// Upcoming report picks up a birthday within the window
	now := time.Now()
	soon := now.AddDate(0, 0, 2)
	b := models.MustBirthday(soon.AddDate(-30, 0, 0).Format(models.BirthdayLayout))
	jane := &models.Contact{
		ID:        uuid.New().String(),
		Name:      "Jane",
		Phones:    []string{"5555555555"},
		Birthday:  &b,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := testStore.CreateContact(jane); err != nil {
		t.Fatalf("Failed to seed contact: %v", err)
	}

	w = doJSON(t, router, "GET", "/birthdays?within=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var upcoming struct {
		Count  int `json:"count"`
		Within int `json:"within_days"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &upcoming); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if upcoming.Within != 7 {
		t.Errorf("Expected within_days 7, got %d", upcoming.Within)
	}
	if upcoming.Count < 1 {
		t.Errorf("Expected at least one upcoming birthday, got %d", upcoming.Count)
	}

	w = doJSON(t, router, "GET", "/birthdays?within=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad window, got %d", w.Code)
	}
}

func TestValidationAndErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, "POST", "/contacts", `{"phone":"1234567890"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing name, got %d", w.Code)
	}

	w = doJSON(t, router, "POST", "/contacts", `{"name":"John","phone":"123"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid phone, got %d", w.Code)
	}

	w = doJSON(t, router, "POST", "/contacts", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad body, got %d", w.Code)
	}

	w = doJSON(t, router, "GET", "/contacts/Ghost", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing contact, got %d", w.Code)
	}

	w = doJSON(t, router, "DELETE", "/contacts/Ghost", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for deleting missing contact, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("Unexpected health body: %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	testStore := store.NewMemoryStore()
	handler := api.NewHandler(testStore, nil)
	metrics := api.NewMetrics(testStore)
	handler.SetMetrics(metrics)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	// Generate some traffic
	doJSON(t, router, "POST", "/contacts", `{"name":"John","phone":"1234567890"}`)
	doJSON(t, router, "GET", "/contacts", "")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "abook_contacts_total") {
		t.Errorf("Metrics output missing abook_contacts_total:\n%s", body)
	}
	if !strings.Contains(body, "abook_http_requests_total") {
		t.Errorf("Metrics output missing abook_http_requests_total:\n%s", body)
	}
}
