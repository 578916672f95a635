// Package httpserver exposes read-only operational endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/learning"
	"SelfEarnBot/internal/ports"
	"SelfEarnBot/internal/report"
)

// BudgetReader exposes the live ledger balance.
type BudgetReader interface {
	Get() float64
}

// CycleState exposes what the running orchestrator has applied so far.
type CycleState interface {
	Count() int
	MinScore() float64
	LastRecommendations() (learning.Recommendations, bool)
}

// Server serves /health, /status, /budget, /stats, /recommendations and /report.
type Server struct {
	store     ports.Store
	budget    BudgetReader
	cycles    CycleState
	optimizer *learning.Optimizer
	logger    *slog.Logger
	location  *time.Location
	scanners  []string
	now       func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithLocation reports times in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithScanners lists the registered scanners on /status.
func WithScanners(names []string) Option {
	return func(s *Server) {
		s.scanners = append([]string(nil), names...)
		sort.Strings(s.scanners)
	}
}

// New wires the handlers. cycles may be nil when no orchestrator runs.
func New(store ports.Store, budget BudgetReader, cycles CycleState, optimizer *learning.Optimizer, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:     store,
		budget:    budget,
		cycles:    cycles,
		optimizer: optimizer,
		logger:    logger,
		location:  time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.now = func() time.Time { return time.Now().In(s.location) }
	return s
}

// Router builds the chi mux.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/budget", s.handleBudget)
	r.Get("/stats", s.handleStats)
	r.Get("/recommendations", s.handleRecommendations)
	r.Get("/report", s.handleReport)

	return r
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ops server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]interface{}{
		"ok":   true,
		"time": s.now(),
	}
	if err := s.store.Ping(ctx); err != nil {
		status["ok"] = false
		status["db"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

type statusResponse struct {
	Time     time.Time                `json:"time"`
	Timezone string                   `json:"timezone"`
	Cycles   int                      `json:"cycles"`
	MinScore float64                  `json:"min_score,omitempty"`
	Scanners []string                 `json:"scanners"`
	Applied  *recommendationsResponse `json:"applied_recommendations,omitempty"`
}

// handleStatus reports the orchestrator state: registered scanners and the
// optimizer output the last learning pass applied.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Time:     s.now(),
		Timezone: s.location.String(),
		Scanners: s.scanners,
	}
	if resp.Scanners == nil {
		resp.Scanners = []string{}
	}
	if s.cycles != nil {
		resp.Cycles = s.cycles.Count()
		resp.MinScore = s.cycles.MinScore()
		if recs, ok := s.cycles.LastRecommendations(); ok {
			applied := toRecommendationsResponse(recs)
			resp.Applied = &applied
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type budgetResponse struct {
	Balance  float64 `json:"balance"`
	Cycles   int     `json:"cycles"`
	MinScore float64 `json:"min_score,omitempty"`
}

func (s *Server) handleBudget(w http.ResponseWriter, _ *http.Request) {
	resp := budgetResponse{Balance: s.budget.Get()}
	if s.cycles != nil {
		resp.Cycles = s.cycles.Count()
		resp.MinScore = s.cycles.MinScore()
	}
	respondJSON(w, http.StatusOK, resp)
}

type categoryResponse struct {
	Category    string  `json:"category"`
	Count       int     `json:"count"`
	Successes   int     `json:"successes"`
	SuccessRate float64 `json:"success_rate"`
	AvgProfit   float64 `json:"avg_profit"`
	TotalProfit float64 `json:"total_profit"`
}

type statsResponse struct {
	Operations  int                `json:"operations"`
	Successes   int                `json:"successes"`
	SuccessRate float64            `json:"success_rate"`
	Revenue     float64            `json:"revenue"`
	Cost        float64            `json:"cost"`
	Profit      float64            `json:"profit"`
	AvgProfit   float64            `json:"avg_profit"`
	Categories  []categoryResponse `json:"categories"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	history, ok := s.history(w, r)
	if !ok {
		return
	}

	totals := learning.Summarize(history)
	resp := statsResponse{
		Operations:  totals.Operations,
		Successes:   totals.Successes,
		SuccessRate: totals.SuccessRate,
		Revenue:     totals.Revenue,
		Cost:        totals.Cost,
		Profit:      totals.Profit,
		AvgProfit:   totals.AvgProfit,
		Categories:  []categoryResponse{},
	}
	for cat, st := range learning.Aggregate(history) {
		resp.Categories = append(resp.Categories, categoryResponse{
			Category:    string(cat),
			Count:       st.Count,
			Successes:   st.Successes,
			SuccessRate: st.SuccessRate,
			AvgProfit:   st.AvgProfit,
			TotalProfit: st.TotalProfit,
		})
	}
	sort.Slice(resp.Categories, func(i, j int) bool {
		return resp.Categories[i].Category < resp.Categories[j].Category
	})
	respondJSON(w, http.StatusOK, resp)
}

type providerResponse struct {
	Provider  string  `json:"provider"`
	AvgProfit float64 `json:"avg_profit"`
	Samples   int     `json:"samples"`
}

type recommendationsResponse struct {
	MinScore          float64                     `json:"min_score"`
	PreferredCategory string                      `json:"preferred_category,omitempty"`
	Focus             []domain.Category           `json:"focus"`
	Avoid             []domain.Category           `json:"avoid"`
	Providers         map[string]providerResponse `json:"providers"`
	Suggestions       []string                    `json:"suggestions"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	history, ok := s.history(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, toRecommendationsResponse(s.optimizer.Optimize(history)))
}

func toRecommendationsResponse(recs learning.Recommendations) recommendationsResponse {
	resp := recommendationsResponse{
		MinScore:          recs.MinScore,
		PreferredCategory: string(recs.PreferredCategory),
		Focus:             nonNil(recs.Focus),
		Avoid:             nonNil(recs.Avoid),
		Providers:         map[string]providerResponse{},
		Suggestions:       recs.Suggestions,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	for cat, p := range recs.Providers {
		resp.Providers[string(cat)] = providerResponse{Provider: p.Provider, AvgProfit: p.AvgProfit, Samples: p.Samples}
	}
	return resp
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	history, ok := s.history(w, r)
	if !ok {
		return
	}
	rep := report.Build(history, s.budget.Get(), s.optimizer.Optimize(history), s.now())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Text(rep) + "\n"))
}

// history loads outcomes, optionally filtered by ?category= and ?since=RFC3339.
func (s *Server) history(w http.ResponseWriter, r *http.Request) ([]domain.OutcomeRecord, bool) {
	var filter domain.OutcomeFilter
	q := r.URL.Query()
	if c := q.Get("category"); c != "" {
		filter.Category = domain.Category(c)
	}
	if since := q.Get("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since: expected RFC3339")
			return nil, false
		}
		filter.Since = ts
	}

	history, err := s.store.ListOutcomes(r.Context(), filter)
	if err != nil {
		s.logger.Error("list outcomes failed", "error", err)
		respondError(w, http.StatusInternalServerError, "outcome history unavailable")
		return nil, false
	}
	return history, true
}

func nonNil(in []domain.Category) []domain.Category {
	if in == nil {
		return []domain.Category{}
	}
	return in
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
