// Package api exposes the HTTP interface: scraping, listing, and the optional
// analysis endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amishk599/jobrake/internal/buildinfo"
	"github.com/amishk599/jobrake/internal/metrics"
	"github.com/amishk599/jobrake/internal/model"
	"github.com/amishk599/jobrake/internal/service"
)

const maxBodyBytes = 1 << 20

// JobService is the query façade the handlers call.
type JobService interface {
	ScrapeAndList(ctx context.Context, req service.ScrapeRequest) (service.ScrapeResult, error)
	List(ctx context.Context) (service.Listing, error)
	GetByID(ctx context.Context, id int64) (model.Posting, error)
}

// Analyst answers the LLM-backed questions.
type Analyst interface {
	AnalyzeJob(ctx context.Context, id int64) (string, error)
	SummarizeJob(ctx context.Context, id int64) (string, error)
	MarketInsights(ctx context.Context) (string, error)
	Recommend(ctx context.Context, skills, experience string) (string, error)
}

// Server wires HTTP handlers to the façade and the analyst.
type Server struct {
	router  chi.Router
	jobs    JobService
	analyst Analyst
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewServer constructs a Server with middleware and routes. requestTimeout
// bounds every request, scrapes included.
func NewServer(jobs JobService, analyst Analyst, m *metrics.Metrics, logger *slog.Logger, requestTimeout time.Duration) *Server {
	s := &Server{
		jobs:    jobs,
		analyst: analyst,
		metrics: m,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/healthz", s.healthz)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", s.scrape)
		r.Get("/jobs", s.listJobs)
		r.Get("/jobs/{id}", s.getJob)
		r.Post("/analyze", s.analyze)
		r.Post("/summarize", s.summarize)
		r.Get("/insights", s.insights)
		r.Post("/recommend", s.recommend)
	})

	s.router = r
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	info := buildinfo.Get()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": info.Version})
}

type scrapeRequest struct {
	JobTitle string   `json:"job_title"`
	Location string   `json:"location"`
	Sources  []string `json:"sources"`
}

type sourceSummary struct {
	Source     model.Source `json:"source"`
	Candidates int          `json:"candidates"`
	Normalized int          `json:"normalized"`
	Skipped    int          `json:"skipped"`
	Error      string       `json:"error,omitempty"`
}

type scrapeResponse struct {
	service.ScrapeResult
	Sources []sourceSummary `json:"sources"`
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.jobs.ScrapeAndList(r.Context(), service.ScrapeRequest{
		Title:    req.JobTitle,
		Location: req.Location,
		Sources:  req.Sources,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	summaries := make([]sourceSummary, 0, len(res.Reports))
	for _, rep := range res.Reports {
		sum := sourceSummary{
			Source:     rep.Source,
			Candidates: rep.Candidates,
			Normalized: rep.Normalized,
			Skipped:    len(rep.Skipped),
		}
		if rep.Err != nil {
			sum.Error = rep.Err.Error()
		}
		summaries = append(summaries, sum)
	}
	writeJSON(w, http.StatusOK, scrapeResponse{ScrapeResult: res, Sources: summaries})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	listing, err := s.jobs.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	p, err := s.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type jobIDRequest struct {
	JobID *int64 `json:"job_id"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeJobID(w, r)
	if !ok {
		return
	}
	out, err := s.analyst.AnalyzeJob(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": id, "analysis": out})
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeJobID(w, r)
	if !ok {
		return
	}
	out, err := s.analyst.SummarizeJob(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": id, "summary": out})
}

func (s *Server) insights(w http.ResponseWriter, r *http.Request) {
	out, err := s.analyst.MarketInsights(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"insights": out})
}

type recommendRequest struct {
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := s.analyst.Recommend(r.Context(), req.Skills, req.Experience)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recommendations": out})
}

// writeServiceError maps domain errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *model.HTTPError
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
		return
	case errors.Is(err, model.ErrAIDisabled):
		writeError(w, http.StatusServiceUnavailable, "AI analysis is not configured")
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, model.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "failed to store postings")
	case errors.As(err, &httpErr):
		writeError(w, http.StatusBadGateway, fmt.Sprintf("upstream model returned HTTP %d", httpErr.StatusCode))
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
	s.logger.Error("request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func decodeJobID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var req jobIDRequest
	if !decodeJSON(w, r, &req) {
		return 0, false
	}
	if req.JobID == nil {
		writeError(w, http.StatusBadRequest, "job_id is required")
		return 0, false
	}
	return *req.JobID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("write JSON failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
