// Package api serves the assessment history, scenario comparison, checklist
// and insight views over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/harrison/sitecheck/internal/checklist"
	"github.com/harrison/sitecheck/internal/diff"
	"github.com/harrison/sitecheck/internal/feasibility"
	"github.com/harrison/sitecheck/internal/insight"
	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/overrides"
	"github.com/harrison/sitecheck/internal/payload"
	"github.com/harrison/sitecheck/internal/repository"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 1 << 20

// Backend is the persistence the handlers read and write.
// *repository.Store satisfies it.
type Backend interface {
	SaveConditionAssessment(ctx context.Context, propertyID string, draft models.ConditionAssessment) (*models.ConditionAssessment, error)
	FetchConditionAssessment(ctx context.Context, propertyID string, scenario models.Scenario) (*models.ConditionAssessment, error)
	FetchConditionAssessmentHistory(ctx context.Context, propertyID string, scenario models.Scenario, limit int) ([]models.ConditionAssessment, error)
	FetchScenarioAssessments(ctx context.Context, propertyID string) ([]models.ConditionAssessment, error)
	AddChecklistItem(ctx context.Context, item models.ChecklistItem) (*models.ChecklistItem, error)
	FetchPropertyChecklist(ctx context.Context, propertyID string) ([]models.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, itemID string, status models.ChecklistStatus) (*models.ChecklistItem, error)
	FetchCapture(ctx context.Context, propertyID string) (*models.PropertyCapture, error)
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	HistoryLimit int
	Thresholds   *feasibility.Thresholds
	Attention    *insight.Attention
	Log          logger.Logger
	// AccessLog receives one Apache combined line per request. Defaults to stdout.
	AccessLog io.Writer
}

// Server holds the router and the engines behind it.
type Server struct {
	backend   Backend
	limit     int
	extractor *feasibility.Extractor
	merger    *insight.Merger
	log       logger.Logger
	handler   http.Handler
}

// NewServer builds the routes for backend.
func NewServer(backend Backend, opts Options) *Server {
	s := &Server{
		backend:   backend,
		limit:     opts.HistoryLimit,
		extractor: feasibility.NewExtractor(feasibility.DefaultThresholds()),
		merger:    insight.NewMerger(insight.DefaultAttention()),
		log:       opts.Log,
	}
	if s.limit <= 0 {
		s.limit = 10
	}
	if opts.Thresholds != nil {
		s.extractor = feasibility.NewExtractor(*opts.Thresholds)
	}
	if opts.Attention != nil {
		s.merger = insight.NewMerger(*opts.Attention)
	}
	if s.log == nil {
		s.log = logger.NewNoOpLogger()
	}
	access := opts.AccessLog
	if access == nil {
		access = os.Stdout
	}

	s.handler = handlers.LoggingHandler(access, s.router())
	return s
}

// Handler returns the logged router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(limitBody)

	r.HandleFunc("/health", s.health).Methods("GET")

	p := r.PathPrefix("/properties/{id}").Subrouter()
	p.HandleFunc("/assessments", s.listAssessments).Methods("GET")
	p.HandleFunc("/assessments", s.createAssessment).Methods("POST")
	p.HandleFunc("/assessments/latest", s.latestAssessment).Methods("GET")
	p.HandleFunc("/scenarios", s.listScenarios).Methods("GET")
	p.HandleFunc("/comparison", s.comparison).Methods("GET")
	p.HandleFunc("/scenario-comparison", s.scenarioComparison).Methods("GET")
	p.HandleFunc("/checklist", s.listChecklist).Methods("GET")
	p.HandleFunc("/checklist", s.addChecklistItem).Methods("POST")
	p.HandleFunc("/checklist/progress", s.checklistProgress).Methods("GET")
	p.HandleFunc("/insights", s.insights).Methods("GET")

	r.HandleFunc("/checklist/{itemId}", s.updateChecklistItem).Methods("PATCH")

	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	scenario, ok := scenarioParam(w, r, "scenario")
	if !ok {
		return
	}
	limit := s.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := s.backend.FetchConditionAssessmentHistory(r.Context(), propertyID(r), scenario, limit)
	if err != nil {
		s.internalError(w, "fetch history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) latestAssessment(w http.ResponseWriter, r *http.Request) {
	scenario, ok := scenarioParam(w, r, "scenario")
	if !ok {
		return
	}
	current, err := s.backend.FetchConditionAssessment(r.Context(), propertyID(r), scenario)
	if err != nil {
		s.internalError(w, "fetch assessment", err)
		return
	}
	if current == nil {
		writeError(w, http.StatusNotFound, "no assessment recorded")
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) createAssessment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	draft, err := payload.UnmarshalAssessment(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	draft.ID = ""
	draft.RecordedAt = nil
	if err := draft.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.backend.SaveConditionAssessment(r.Context(), propertyID(r), draft)
	if err != nil {
		s.internalError(w, "save assessment", err)
		return
	}
	if saved == nil {
		s.log.LogWarn("api: save assessment returned no record for " + propertyID(r))
		writeError(w, http.StatusBadGateway, "could not save assessment")
		return
	}
	if rec, ok := s.log.(logger.AssessmentRecorder); ok {
		rec.LogAssessmentRecorded(*saved)
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) listScenarios(w http.ResponseWriter, r *http.Request) {
	items, err := s.backend.FetchScenarioAssessments(r.Context(), propertyID(r))
	if err != nil {
		s.internalError(w, "fetch scenario assessments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// comparison diffs the two newest assessments in the scenario's history.
func (s *Server) comparison(w http.ResponseWriter, r *http.Request) {
	scenario, ok := scenarioParam(w, r, "scenario")
	if !ok {
		return
	}
	items, err := s.backend.FetchConditionAssessmentHistory(r.Context(), propertyID(r), scenario, 2)
	if err != nil {
		s.internalError(w, "fetch history", err)
		return
	}

	var summary *diff.Summary
	if len(items) >= 2 {
		summary = diff.Compare(&items[0], &items[1])
	}
	writeJSON(w, http.StatusOK, map[string]any{"comparison": summary})
}

func (s *Server) scenarioComparison(w http.ResponseWriter, r *http.Request) {
	items, err := s.backend.FetchScenarioAssessments(r.Context(), propertyID(r))
	if err != nil {
		s.internalError(w, "fetch scenario assessments", err)
		return
	}

	registry := overrides.NewRegistry(nil, s.log)
	defer registry.Close()
	registry.Replace(items)

	if raw := r.URL.Query().Get("baseline"); raw != "" {
		baseline, ok := models.ParseScenario(raw)
		if !ok || baseline.IsAll() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown baseline scenario %q", raw))
			return
		}
		if err := registry.SetBaseline(baseline); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
	}

	entries := registry.ComparisonEntries()
	if entries == nil {
		entries = []diff.BaselineComparison{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"baseline": registry.Baseline(),
		"entries":  entries,
	})
}

func (s *Server) listChecklist(w http.ResponseWriter, r *http.Request) {
	items, err := s.backend.FetchPropertyChecklist(r.Context(), propertyID(r))
	if err != nil {
		s.internalError(w, "fetch checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) addChecklistItem(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || raw == nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	defer r.Body.Close()

	item := payload.DecodeChecklistItem(raw)
	item.ID = ""
	item.PropertyID = propertyID(r)
	if err := item.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.backend.AddChecklistItem(r.Context(), item)
	if err != nil {
		s.internalError(w, "add checklist item", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) checklistProgress(w http.ResponseWriter, r *http.Request) {
	scenario, ok := scenarioParam(w, r, "scenario")
	if !ok {
		return
	}
	items, err := s.backend.FetchPropertyChecklist(r.Context(), propertyID(r))
	if err != nil {
		s.internalError(w, "fetch checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, checklist.Summarize(items, scenario, nil))
}

func (s *Server) updateChecklistItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	defer r.Body.Close()

	status := models.ChecklistStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}

	updated, err := s.backend.UpdateChecklistItem(r.Context(), mux.Vars(r)["itemId"], status)
	if err != nil {
		s.internalError(w, "update checklist item", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// insights merges the scenario's current assessment with the heuristic
// signals from the stored capture, when there is one.
func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	scenario, ok := scenarioParam(w, r, "scenario")
	if !ok {
		return
	}
	id := propertyID(r)

	current, err := s.backend.FetchConditionAssessment(r.Context(), id, scenario)
	if err != nil {
		s.internalError(w, "fetch assessment", err)
		return
	}

	signals := feasibility.Signals{Opportunities: []string{}, Risks: []string{}}
	capture, err := s.backend.FetchCapture(r.Context(), id)
	switch {
	case err == nil:
		entry := models.QuickAnalysisEntry{Scenario: scenario}
		if e := capture.QuickAnalysisFor(scenario); e != nil {
			entry = *e
		}
		signals = s.extractor.Extract(entry, capture.Property)
	case errors.Is(err, repository.ErrNotFound):
	default:
		s.internalError(w, "fetch capture", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"signals":  signals,
		"insights": s.merger.Merge(current, signals),
	})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.LogError(fmt.Sprintf("api: %s: %v", op, err))
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed", op))
}

func propertyID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// scenarioParam reads an optional scenario query parameter. Missing means
// "all"; an unknown value is answered with 400 and ok=false.
func scenarioParam(w http.ResponseWriter, r *http.Request, key string) (models.Scenario, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return models.ScenarioAll, true
	}
	scenario, ok := models.ParseScenario(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scenario %q", raw))
		return "", false
	}
	return scenario, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
