package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
	"github.com/manthysbr/modelpilot/internal/core/services"
	"github.com/oapi-codegen/runtime"
)

// defaultAnalyticsWindow is used when an analytics request names no range.
const defaultAnalyticsWindow = 30 * 24 * time.Hour

// ConfigView exposes the effective configuration with secrets masked.
type ConfigView interface {
	Masked() *domain.AppConfig
}

type Server struct {
	logger    *slog.Logger
	engine    *services.Engine
	executor  *services.TaskExecutor
	eventBus  *services.EventBus
	settings  ConfigView
	validator *requestValidator
}

// NewServer wires the HTTP API to the engine. executor and settings may be nil;
// their routes then answer 501 and 404.
func NewServer(
	logger *slog.Logger,
	engine *services.Engine,
	executor *services.TaskExecutor,
	eventBus *services.EventBus,
	settings ConfigView,
) (*Server, error) {
	doc, err := LoadOpenAPI()
	if err != nil {
		return nil, err
	}
	validator, err := newRequestValidator(doc)
	if err != nil {
		return nil, err
	}
	return &Server{
		logger:    logger,
		engine:    engine,
		executor:  executor,
		eventBus:  eventBus,
		settings:  settings,
		validator: validator,
	}, nil
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Catalog
	mux.HandleFunc("GET /v1/resources", s.handleListResources)
	mux.HandleFunc("GET /v1/resources/{id}", s.handleGetResource)
	mux.HandleFunc("PUT /v1/resources/{id}/availability", s.handleSetAvailability)
	mux.HandleFunc("POST /v1/resources/{id}/score", s.handleScore)

	// Selection and switching
	mux.HandleFunc("POST /v1/recommendations", s.handleRecommend)
	mux.HandleFunc("POST /v1/recommendations/best", s.handleSelectBest)
	mux.HandleFunc("GET /v1/current", s.handleCurrent)
	mux.HandleFunc("POST /v1/switch", s.handleSwitch)
	mux.HandleFunc("GET /v1/switches", s.handleSwitchHistory)
	mux.HandleFunc("POST /v1/auto-switch", s.handleAutoSwitch)

	// Usage and analytics
	mux.HandleFunc("POST /v1/usage", s.handleRecordUsage)
	mux.HandleFunc("GET /v1/usage/{id}", s.handleUsage)
	mux.HandleFunc("GET /v1/analytics/cost", s.handleCostAnalysis)
	mux.HandleFunc("GET /v1/analytics/performance", s.handlePerformanceAnalysis)
	mux.HandleFunc("GET /v1/analytics/daily-cost", s.handleDailyCost)

	mux.HandleFunc("POST /v1/tasks", s.handleExecuteTask)
	mux.HandleFunc("GET /v1/config", s.handleGetConfig)
	mux.HandleFunc("GET /v1/events", s.handleEventsSSE)

	return s.validator.Middleware(mux)
}

// --- Catalog ---

// handleListResources returns every catalog entry.
// GET /v1/resources
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	resources := s.engine.ListResources()
	if resources == nil {
		resources = []domain.Resource{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resources": resources,
		"count":     len(resources),
	})
}

// GET /v1/resources/{id}
func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathResourceID(w, r)
	if !ok {
		return
	}
	res, found := s.engine.GetResource(id)
	if !found {
		writeError(w, http.StatusNotFound, domain.ErrResourceNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type availabilityRequest struct {
	Status domain.AvailabilityStatus `json:"status"`
}

// handleSetAvailability updates the mutable availability status of a resource.
// PUT /v1/resources/{id}/availability
func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathResourceID(w, r)
	if !ok {
		return
	}
	var req availabilityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, found := s.engine.GetResource(id); !found {
		writeError(w, http.StatusNotFound, domain.ErrResourceNotFound.Error())
		return
	}
	if !s.engine.SetAvailability(id, req.Status) {
		writeError(w, http.StatusBadRequest, "invalid availability status")
		return
	}
	res, _ := s.engine.GetResource(id)
	writeJSON(w, http.StatusOK, res)
}

// handleScore explains how a single resource scores against the criteria.
// POST /v1/resources/{id}/score
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathResourceID(w, r)
	if !ok {
		return
	}
	var criteria domain.SelectionCriteria
	if !decodeBody(w, r, &criteria) {
		return
	}
	breakdown, found := s.engine.Score(id, criteria)
	if !found {
		writeError(w, http.StatusNotFound, domain.ErrResourceNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// --- Selection and switching ---

// POST /v1/recommendations
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var criteria domain.SelectionCriteria
	if !decodeBody(w, r, &criteria) {
		return
	}
	recs := s.engine.Recommend(criteria)
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// POST /v1/recommendations/best
func (s *Server) handleSelectBest(w http.ResponseWriter, r *http.Request) {
	var criteria domain.SelectionCriteria
	if !decodeBody(w, r, &criteria) {
		return
	}
	best, found := s.engine.SelectBest(criteria)
	if !found {
		writeError(w, http.StatusNotFound, "no resource meets the criteria")
		return
	}
	writeJSON(w, http.StatusOK, best)
}

// GET /v1/current
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	res, ok := s.engine.CurrentResource()
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNoCurrentResource.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type switchRequest struct {
	ResourceID domain.ResourceID `json:"resource_id"`
	Reason     string            `json:"reason"`
	Context    string            `json:"context"`
}

// handleSwitch makes the named resource current. API switches are always
// recorded as user switches.
// POST /v1/switch
func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = "manual"
	}
	if !s.engine.SwitchTo(req.ResourceID, req.Reason, req.Context) {
		s.logger.Info("switch refused", "resource_id", req.ResourceID)
		writeError(w, http.StatusConflict, "switch refused: resource unknown or not available")
		return
	}
	res, _ := s.engine.CurrentResource()
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/switches
func (s *Server) handleSwitchHistory(w http.ResponseWriter, r *http.Request) {
	history := s.engine.SwitchHistory()
	if history == nil {
		history = []domain.SwitchRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"switches": history,
		"count":    len(history),
	})
}

// handleAutoSwitch runs one auto-switch evaluation on demand. With
// ?dry_run=true it only reports the evaluation.
// POST /v1/auto-switch
func (s *Server) handleAutoSwitch(w http.ResponseWriter, r *http.Request) {
	var dryRun *bool
	if err := runtime.BindQueryParameter("form", true, false, "dry_run", r.URL.Query(), &dryRun); err != nil {
		writeError(w, http.StatusBadRequest, "invalid dry_run parameter: "+err.Error())
		return
	}

	if dryRun != nil && *dryRun {
		current, d, evaluated := s.engine.Evaluate()
		resp := map[string]interface{}{
			"switched":   false,
			"evaluated":  evaluated,
			"evaluation": d,
		}
		if current.ID != "" {
			resp["current"] = current.ID
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	switched := s.engine.AutoSwitchIfNeeded()
	resp := map[string]interface{}{"switched": switched}
	if res, ok := s.engine.CurrentResource(); ok {
		resp["current"] = res.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Usage and analytics ---

// handleRecordUsage appends an observation to the ledger.
// POST /v1/usage
func (s *Server) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	var rec domain.UsageRecord
	if !decodeBody(w, r, &rec) {
		return
	}
	stamped, ok := s.engine.RecordUsage(rec)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrResourceNotFound.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, stamped)
}

// GET /v1/usage/{id}?from&to
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathResourceID(w, r)
	if !ok {
		return
	}
	rng, bounded, err := s.bindRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var filter *domain.TimeRange
	if bounded {
		filter = &rng
	}
	records := s.engine.Usage(id, filter)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// GET /v1/analytics/cost?from&to
func (s *Server) handleCostAnalysis(w http.ResponseWriter, r *http.Request) {
	rng, _, err := s.bindRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.CostAnalysis(rng))
}

// GET /v1/analytics/performance?from&to
func (s *Server) handlePerformanceAnalysis(w http.ResponseWriter, r *http.Request) {
	rng, _, err := s.bindRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.PerformanceAnalysis(rng))
}

// GET /v1/analytics/daily-cost?from&to
func (s *Server) handleDailyCost(w http.ResponseWriter, r *http.Request) {
	rng, _, err := s.bindRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days := s.engine.DailyCost(r.Context(), rng)
	if days == nil {
		days = []domain.DailyCost{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range": rng,
		"days":  days,
	})
}

// --- Tasks ---

// handleExecuteTask runs a task on the current resource, or queues it with ?async=true.
// POST /v1/tasks
func (s *Server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	if s.executor == nil {
		writeError(w, http.StatusNotImplemented, "task execution is not configured")
		return
	}

	var async *bool
	if err := runtime.BindQueryParameter("form", true, false, "async", r.URL.Query(), &async); err != nil {
		writeError(w, http.StatusBadRequest, "invalid async parameter: "+err.Error())
		return
	}

	var task domain.Task
	if !decodeBody(w, r, &task) {
		return
	}

	if async != nil && *async {
		id, err := s.executor.Submit(task)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
		return
	}

	result, err := s.executor.Execute(r.Context(), task)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoCurrentResource):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, domain.ErrResourceUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, domain.ErrTaskFailed):
			writeJSON(w, http.StatusBadGateway, result)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, err.Error())
		default:
			s.logger.Error("task execution failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /v1/config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotFound, "configuration is not available")
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Masked())
}

// --- helpers ---

// bindRange reads the optional from/to query parameters. Missing bounds default to
// the last 30 days ending now; bounded reports whether the caller named either one.
func (s *Server) bindRange(r *http.Request) (domain.TimeRange, bool, error) {
	query := r.URL.Query()

	var from, to *time.Time
	if err := runtime.BindQueryParameter("form", true, false, "from", query, &from); err != nil {
		return domain.TimeRange{}, false, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "to", query, &to); err != nil {
		return domain.TimeRange{}, false, err
	}

	rng := domain.LastWindow(s.engine.Now(), defaultAnalyticsWindow)
	if to != nil {
		rng.End = *to
		if from == nil {
			rng.Start = to.Add(-defaultAnalyticsWindow)
		}
	}
	if from != nil {
		rng.Start = *from
	}
	return rng, from != nil || to != nil, nil
}

func pathResourceID(w http.ResponseWriter, r *http.Request) (domain.ResourceID, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource id: "+err.Error())
		return "", false
	}
	return domain.ResourceID(id), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
