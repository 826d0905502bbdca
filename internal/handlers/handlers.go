// Package handlers exposes the migration engine over a JSON HTTP API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fabric-migrator/internal/adf"
	"fabric-migrator/internal/catalog"
	apperrors "fabric-migrator/internal/common/errors"
	"fabric-migrator/internal/common/logging"
	"fabric-migrator/internal/config"
	"fabric-migrator/internal/middleware"
	"fabric-migrator/internal/migration"
	"fabric-migrator/internal/report"
	"fabric-migrator/internal/storage"
)

// Handlers carries the API dependencies.
type Handlers struct {
	store storage.Store
	cfg   *config.Config
	log   logging.Logger
}

// New creates the API handlers.
func New(store storage.Store, cfg *config.Config) *Handlers {
	return &Handlers{
		store: store,
		cfg:   cfg,
		log:   logging.GetGlobalLogger(),
	}
}

// Router builds the HTTP route table.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/migrations", h.CreateMigration).Methods(http.MethodPost)
	r.HandleFunc("/api/migrations", h.ListMigrations).Methods(http.MethodGet)
	r.HandleFunc("/api/migrations/{id}", h.GetMigration).Methods(http.MethodGet)
	r.HandleFunc("/api/migrations/{id}/report", h.GetReport).Methods(http.MethodGet)
	return r
}

// Health reports liveness, including run-store health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if err := h.store.Health(); err != nil {
		status["status"] = "degraded"
		status["store"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

type migrationRequest struct {
	// Template is the raw ARM deployment template document.
	Template json.RawMessage `json:"template"`
	// Mappings maps dataset/linked-service names to target connection ids.
	Mappings map[string]string `json:"mappings"`
	// Library optionally re-addresses global parameters to a variable
	// library; empty falls back to the configured default.
	Library string `json:"library,omitempty"`
}

type transformedPipeline struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
}

type migrationResponse struct {
	Run       *storage.Run          `json:"run"`
	Pipelines []transformedPipeline `json:"pipelines"`
	Summary   *report.Summary       `json:"summary"`
}

// CreateMigration runs one migration: parse, transform, order, report,
// persist.
func (h *Handlers) CreateMigration(w http.ResponseWriter, r *http.Request) {
	var req migrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("request body must be JSON: "+err.Error()))
		return
	}
	if len(req.Template) == 0 {
		writeError(w, apperrors.ValidationError("template is required"))
		return
	}

	library := req.Library
	if library == "" {
		library = h.cfg.VariableLibrary
	}

	resp, err := h.runMigration(req.Template, req.Mappings, library)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) runMigration(template []byte, mappings map[string]string, library string) (*migrationResponse, error) {
	started := time.Now().UTC()

	comps, err := adf.ParseTemplate(template)
	if err != nil {
		return nil, apperrors.ParseError("invalid deployment template", err)
	}

	cat := catalog.New(comps, mappings, catalog.WithSupportedTypes(h.cfg.SupportedConnectors))
	engine := migration.NewEngine(cat, migration.WithLibrary(library), migration.WithLogger(h.log))
	run := engine.TransformAll(comps.Pipelines)

	runID := uuid.NewString()
	summary := report.Build(runID, run)
	reportJSON, err := summary.JSON()
	if err != nil {
		return nil, apperrors.InternalError("failed to render report", err)
	}

	status := storage.StatusCompleted
	if len(run.Diagnostics) > 0 {
		status = storage.StatusDegraded
	}
	if run.Order == nil && len(run.Results) > 0 {
		status = storage.StatusFailed
	}
	if err := run.Err(); err != nil {
		h.log.Warn("run recorded error diagnostics", logging.Err(err))
	}

	record := &storage.Run{
		ID:          runID,
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
		Status:      status,
		Pipelines:   len(run.Results),
		Activities:  run.ActivityCount(),
		Diagnostics: len(run.Diagnostics),
		Report:      reportJSON,
	}
	if err := h.store.SaveRun(record); err != nil {
		return nil, apperrors.StorageError("failed to persist run", err)
	}

	resp := &migrationResponse{Run: record, Summary: summary}
	for _, result := range run.OrderedResults() {
		resp.Pipelines = append(resp.Pipelines, transformedPipeline{
			Name:       result.Pipeline.Name,
			Properties: result.Pipeline.Properties,
		})
	}

	h.log.Info("migration run recorded",
		logging.String("run_id", runID),
		logging.String("status", status),
		logging.Int("pipelines", record.Pipelines))
	return resp, nil
}

// ListMigrations returns recorded runs, newest first.
func (h *Handlers) ListMigrations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	runs, err := h.store.ListRuns(limit, offset)
	if err != nil {
		writeError(w, apperrors.StorageError("failed to list runs", err))
		return
	}
	if runs == nil {
		runs = []*storage.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GetMigration returns one recorded run.
func (h *Handlers) GetMigration(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetReport renders a recorded run's report in the requested format.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var summary report.Summary
	if err := json.Unmarshal(run.Report, &summary); err != nil {
		writeError(w, apperrors.InternalError("stored report is unreadable", err))
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(run.Report)
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(summary.Markdown()))
	case "csv":
		data, err := summary.CSV()
		if err != nil {
			writeError(w, apperrors.InternalError("failed to render csv", err))
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		writeError(w, apperrors.ValidationError("format must be json, markdown, or csv"))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case apperrors.IsType(err, apperrors.ErrTypeValidation), apperrors.IsType(err, apperrors.ErrTypeParse):
		code = http.StatusBadRequest
	case apperrors.IsNotFound(err):
		code = http.StatusNotFound
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
