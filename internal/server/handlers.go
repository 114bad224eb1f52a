package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/planner"
	"github.com/johntango/milonga/internal/repositories"
	"github.com/johntango/milonga/internal/roles"
	"github.com/johntango/milonga/internal/shared"
)

// API holds the handlers for the plan service endpoints.
type API struct {
	store     *library.Store
	assembler *planner.Assembler
	planner   *planner.Planner
	plans     *repositories.PlanRepository
	defaults  shared.PlanConfig
	logger    *log.Logger
}

// NewAPI wires the API over the library store, planning engine, and plan
// repository. plans may be nil when persistence is disabled.
func NewAPI(store *library.Store, assembler *planner.Assembler, p *planner.Planner, plans *repositories.PlanRepository, defaults shared.PlanConfig, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{
		store:     store,
		assembler: assembler,
		planner:   p,
		plans:     plans,
		defaults:  defaults,
		logger:    logger,
	}
}

// Register attaches all API routes to the router.
func (a *API) Register(r Router) {
	r.Handle(http.MethodPost, "/api/plan", http.HandlerFunc(a.handlePlan))
	r.Handle(http.MethodPost, "/api/replace", http.HandlerFunc(a.handleReplace))
	r.Handle(http.MethodGet, "/api/library/styles", http.HandlerFunc(a.handleStyles))
	r.Handle(http.MethodPost, "/api/library/reload", http.HandlerFunc(a.handleReload))
	r.Handle(http.MethodGet, "/api/plans", http.HandlerFunc(a.handlePlans))
	r.Handle(http.MethodGet, "/api/plans/", http.HandlerFunc(a.handlePlans))
}

// PlanRequest is the body of POST /api/plan.
type PlanRequest struct {
	Minutes int                     `json:"minutes"`
	Pattern []string                `json:"pattern,omitempty"`
	Sizes   map[string]int          `json:"sizes,omitempty"`
	Roles   []roles.RoleAssignment  `json:"roles,omitempty"`
	Catalog []models.ReferenceEntry `json:"catalog,omitempty"`
	SaveAs  string                  `json:"saveAs,omitempty"`
}

// handlePlan streams generation events as newline-delimited JSON. Each line
// is flushed as soon as the event is produced; the request context cancels
// the run when the client goes away.
func (a *API) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	minutes := req.Minutes
	if minutes <= 0 {
		minutes = a.defaults.Minutes
	}
	if minutes <= 0 {
		writeError(w, http.StatusBadRequest, "minutes must be positive")
		return
	}

	snap := a.store.Snapshot()
	if snap == nil || snap.Size() == 0 {
		writeError(w, http.StatusServiceUnavailable, shared.ErrLibraryNotLoaded.Error())
		return
	}

	schedule := &roles.Schedule{Minutes: minutes, Pattern: req.Pattern, Sizes: req.Sizes, Roles: req.Roles}
	if len(schedule.Pattern) == 0 {
		schedule.Pattern = planner.DefaultPattern(snap, minutes)
	}
	if err := schedule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	events := make(chan planner.Event)
	runErr := make(chan error, 1)
	go func() {
		defer close(events)
		plan, err := a.assembler.Run(ctx, planner.RunRequest{
			Minutes:  minutes,
			Slots:    schedule.Slots(),
			Entries:  req.Catalog,
			Snapshot: snap,
		}, events)
		if err == nil && req.SaveAs != "" && a.plans != nil {
			if saveErr := a.plans.Create(models.NewSavedPlan(req.SaveAs, minutes, *plan)); saveErr != nil {
				a.logger.Error("failed to save plan", "name", req.SaveAs, "error", saveErr)
			}
		}
		runErr <- err
	}()

	encoder := json.NewEncoder(w)
	for ev := range events {
		if err := encoder.Encode(ev); err != nil {
			// Client is gone; the context cancellation stops the run.
			a.logger.Debug("event stream write failed", "error", err)
			break
		}
		flusher.Flush()
	}
	if err := <-runErr; err != nil && !errors.Is(err, ctx.Err()) {
		a.logger.Error("generation run failed", "error", err)
	}
}

// ReplaceRequest is the body of POST /api/replace. Track references are
// identity keys resolved against the current snapshot.
type ReplaceRequest struct {
	Style      string   `json:"style"`
	Origin     string   `json:"origin,omitempty"`
	Homogenize bool     `json:"homogenize,omitempty"`
	Group      []string `json:"group,omitempty"`
	Prev       string   `json:"prev,omitempty"`
	Next       string   `json:"next,omitempty"`
	Avoid      []string `json:"avoid,omitempty"`
	Rejected   []string `json:"rejected,omitempty"`
	TopK       int      `json:"topK,omitempty"`
}

// ReplaceResponse is the body returned by POST /api/replace.
type ReplaceResponse struct {
	Replacement models.Track   `json:"replacement"`
	Suggestions []models.Track `json:"suggestions,omitempty"`
	Broadened   string         `json:"broadened,omitempty"`
}

func (a *API) handleReplace(w http.ResponseWriter, r *http.Request) {
	var req ReplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Style == "" {
		writeError(w, http.StatusBadRequest, "style is required")
		return
	}

	snap := a.store.Snapshot()
	if snap == nil || snap.Size() == 0 {
		writeError(w, http.StatusServiceUnavailable, shared.ErrLibraryNotLoaded.Error())
		return
	}

	group := make([]models.Track, 0, len(req.Group))
	for _, key := range req.Group {
		if track, ok := snap.Lookup(key); ok {
			group = append(group, track)
		}
	}

	result, err := a.planner.Replace(r.Context(), planner.ReplaceRequest{
		Style:      req.Style,
		Origin:     req.Origin,
		Homogenize: req.Homogenize,
		Group:      group,
		Prev:       lookupRef(snap, req.Prev),
		Next:       lookupRef(snap, req.Next),
		Avoid:      req.Avoid,
		Rejected:   req.Rejected,
		TopK:       req.TopK,
		Snapshot:   snap,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInsufficientCandidates) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ReplaceResponse{
		Replacement: result.Replacement,
		Suggestions: result.Suggestions,
		Broadened:   result.Broadened,
	})
}

func (a *API) handleStyles(w http.ResponseWriter, r *http.Request) {
	snap := a.store.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, shared.ErrLibraryNotLoaded.Error())
		return
	}

	type styleInfo struct {
		Name   string `json:"name"`
		Tracks int    `json:"tracks"`
	}
	styles := make([]styleInfo, 0)
	for _, style := range snap.Styles() {
		styles = append(styles, styleInfo{Name: style, Tracks: len(snap.Style(style))})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"styles":   styles,
		"tracks":   snap.Size(),
		"loadedAt": snap.LoadedAt(),
	})
}

func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	reloaded, err := a.store.ReloadIfChanged()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": reloaded,
		"tracks":   a.store.Snapshot().Size(),
	})
}

// planSummary is the list view of a saved plan.
type planSummary struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
	Name     string `json:"name"`
	Minutes  int    `json:"minutes"`
	Tandas   int    `json:"tandas"`
	Seconds  int    `json:"seconds"`
}

func (a *API) handlePlans(w http.ResponseWriter, r *http.Request) {
	if a.plans == nil {
		writeError(w, http.StatusNotFound, "plan persistence is disabled")
		return
	}

	ref := strings.TrimPrefix(r.URL.Path, "/api/plans")
	ref = strings.Trim(ref, "/")
	if ref == "" {
		saved, err := a.plans.List(nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		summaries := make([]planSummary, 0, len(saved))
		for _, p := range saved {
			summaries = append(summaries, planSummary{
				ID:       p.ID(),
				Sequence: p.Sequence(),
				Name:     p.Name(),
				Minutes:  p.Minutes(),
				Tandas:   len(p.Plan().Tandas),
				Seconds:  p.Plan().TotalSeconds,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"plans": summaries})
		return
	}

	var (
		saved *models.SavedPlan
		err   error
	)
	if seq, convErr := strconv.Atoi(ref); convErr == nil {
		saved, err = a.plans.GetBySequence(seq)
	} else {
		saved, err = a.plans.Get(ref)
	}
	if errors.Is(err, shared.ErrPlanNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       saved.ID(),
		"sequence": saved.Sequence(),
		"name":     saved.Name(),
		"minutes":  saved.Minutes(),
		"plan":     saved.Plan(),
	})
}

func lookupRef(snap *library.Snapshot, key string) *models.Track {
	if key == "" {
		return nil
	}
	if track, ok := snap.Lookup(key); ok {
		return &track
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
