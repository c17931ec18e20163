package transporthttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"example.com/notifprefs/api"
	"example.com/notifprefs/internal/config"
	"example.com/notifprefs/internal/domain"
	"example.com/notifprefs/internal/preferences"
	"example.com/notifprefs/internal/storage"
)

type ServerDeps struct {
	Cfg    config.Config
	Prefs  *preferences.Service
	Store  storage.Store
	Logger *slog.Logger
	Now    func() time.Time
}

func decodeJSONStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// pathID parses an integer path parameter, writing a 400 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid parameters", name+" must be an integer", nil)
		return 0, false
	}
	return id, true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteProblem(w, http.StatusRequestEntityTooLarge, "request too large", err.Error(), nil)
		return
	}
	WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
}

type createdResp struct {
	Message           string `json:"message"`
	TotalRowsInserted int64  `json:"total_rows_inserted"`
}

// --- Health ---

func (d *ServerDeps) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (d *ServerDeps) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := d.Store.Ready(r.Context()); err != nil {
		WriteProblem(w, http.StatusServiceUnavailable, "not ready", "database not reachable", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// --- Tenant preferences ---

func (d *ServerDeps) HandlePostTenantPreferences(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	tenantID, ok := pathID(w, r, "tenant_id")
	if !ok {
		return
	}
	var sub domain.TenantSubmission
	if err := decodeJSONStrict(r, &sub); err != nil {
		writeDecodeError(w, err)
		return
	}
	if errs := domain.ValidateTenantSubmission(&sub); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	n, err := d.Prefs.CreateTenantPreferences(r.Context(), tenantID, sub)
	if err != nil {
		writeError(w, r, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResp{
		Message:           "Preferences added successfully",
		TotalRowsInserted: n,
	})
}

func (d *ServerDeps) HandleGetTenantPreferences(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathID(w, r, "tenant_id")
	if !ok {
		return
	}
	prefs, err := d.Prefs.TenantPreferences(r.Context(), tenantID)
	if err != nil {
		writeError(w, r, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// --- User preferences ---

func (d *ServerDeps) HandlePostUserPreferences(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	var sub domain.UserSubmission
	if err := decodeJSONStrict(r, &sub); err != nil {
		writeDecodeError(w, err)
		return
	}
	if errs := domain.ValidateUserSubmission(&sub); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	n, err := d.Prefs.CreateUserPreferences(r.Context(), userID, sub)
	if err != nil {
		writeError(w, r, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResp{
		Message:           "User Preferences added successfully",
		TotalRowsInserted: n,
	})
}

// HandleGetUserPreferences accepts an optional tenant_id query parameter
// that narrows the tree to one tenant.
func (d *ServerDeps) HandleGetUserPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	var tenantID int64
	if s := r.URL.Query().Get("tenant_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v <= 0 {
			WriteProblem(w, http.StatusBadRequest, "invalid parameters", "tenant_id must be a positive integer", nil)
			return
		}
		tenantID = v
	}
	prefs, err := d.Prefs.UserPreferences(r.Context(), userID, tenantID)
	if err != nil {
		writeError(w, r, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// --- Reference listings ---

func (d *ServerDeps) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	v, err := d.Prefs.ListChannels(r.Context())
	if err != nil {
		writeError(w, r, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (d *ServerDeps) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	v, err := d.Prefs.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (d *ServerDeps) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	v, err := d.Prefs.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, d.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// --- OpenAPI ---

func (d *ServerDeps) HandleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.OpenAPI)
}

// --- Router ---

func (d *ServerDeps) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", d.HandleHealthz)
	mux.HandleFunc("GET /readyz", d.HandleReadyz)
	mux.HandleFunc("GET /openapi.yaml", d.HandleOpenAPI)

	post := func(h http.HandlerFunc) http.Handler {
		var next http.Handler = h
		next = BodyLimit(d.Cfg.MaxBodyBytes)(next)
		return RequireJSON(next)
	}
	mux.Handle("POST /tenants/{tenant_id}/preferences", post(d.HandlePostTenantPreferences))
	// older clients post with a trailing slash
	mux.Handle("POST /tenants/{tenant_id}/preferences/{$}", post(d.HandlePostTenantPreferences))
	mux.HandleFunc("GET /tenants/{tenant_id}/preferences", d.HandleGetTenantPreferences)
	mux.Handle("POST /users/{user_id}/preferences", post(d.HandlePostUserPreferences))
	mux.HandleFunc("GET /users/{user_id}/preferences", d.HandleGetUserPreferences)

	mux.HandleFunc("GET /preferences/channels", d.HandleListChannels)
	mux.HandleFunc("GET /preferences/categories", d.HandleListCategories)
	mux.HandleFunc("GET /preferences/events", d.HandleListEvents)

	var h http.Handler = mux
	h = AccessLog(d.Logger, d.Now)(h)
	return RequestID(h)
}
