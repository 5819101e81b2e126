// Package api exposes the CRM and the generation client as a JSON HTTP API
// for the web client.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/gemini"
	"github.com/edgard/agentpulse/internal/logger"
)

const maxBodyBytes = 1 << 20

// ErrSubscriptionExpired is returned by paid routes once the trial is over.
var ErrSubscriptionExpired = errors.New("subscription expired")

// Server serves the API.
type Server struct {
	ctrl     *crm.Controller
	ai       gemini.Client
	sessions *gemini.Sessions
	cfg      *config.Config
	log      *slog.Logger
}

// NewServer creates the API server.
func NewServer(ctrl *crm.Controller, ai gemini.Client, sessions *gemini.Sessions, cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		ctrl:     ctrl,
		ai:       ai,
		sessions: sessions,
		cfg:      cfg,
		log:      log.With("component", "http_api"),
	}
}

// HTTPServer wraps Routes in an http.Server listening on the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Session-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.HTTP.RequestTimeout))

		r.Get("/session", s.handleSession)
		r.Post("/login", s.handleLogin)
		r.Post("/onboarding", s.handleOnboarding)
		r.Get("/profile", s.handleGetProfile)
		r.Patch("/profile", s.handlePatchProfile)
		r.Post("/theme/toggle", s.handleToggleTheme)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/reset", s.handleReset)
		r.Post("/telegram/test", s.handleTelegramTest)

		r.Get("/leads", s.handleListLeads)
		r.Patch("/leads/{id}/status", s.handleLeadStatus)
		r.Post("/leads/{id}/outreach", s.handleOutreach)

		r.Get("/schedules", s.handleListSchedules)
		r.Post("/schedules", s.handleAddSchedule)
		r.Patch("/schedules/{id}", s.handleToggleSchedule)
		r.Delete("/schedules/{id}", s.handleDeleteSchedule)

		r.Get("/board/opportunities", s.handleListOpportunities)
		r.Post("/board/opportunities", s.handlePostOpportunity)
		r.Get("/board/talents", s.handleListTalents)
		r.Post("/board/talents", s.handlePostTalent)

		r.Get("/appraisals/default", s.handleAppraisalDefaults)
		r.Post("/appraisals", s.handleAppraise)
		r.Get("/goals", s.handleListGoals)
		r.Put("/goals/{broker}", s.handleSetGoal)

		r.Group(func(r chi.Router) {
			r.Use(s.requireActive)
			r.Post("/leads/search", s.handleSearch)
			r.Post("/leads/{id}/scripts", s.handleScripts)
			r.Post("/reports", s.handleReport)
			r.Post("/emails", s.handleEmail)
			r.Post("/chat", s.handleChat)
			r.Post("/speech", s.handleSpeech)
		})
	})
	return r
}

// requireActive rejects generation routes once the trial has expired.
func (s *Server) requireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.ctrl.Subscription().Expired {
			s.writeError(w, r, ErrSubscriptionExpired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, crm.ErrLeadNotFound), errors.Is(err, crm.ErrScheduleNotFound):
		return http.StatusNotFound
	case errors.Is(err, crm.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, crm.ErrInvalidInput), errors.Is(err, crm.ErrInvalidPhone), errors.Is(err, crm.ErrTelegramNotConfigured),
		errors.Is(err, domain.ErrInvalidAppraisal):
		return http.StatusBadRequest
	case errors.Is(err, crm.ErrDailyLimitReached):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrSubscriptionExpired):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		msg = s.cfg.Messages.GeneralError
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst. An empty body leaves dst unchanged.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", crm.ErrInvalidInput, err)
	}
	return nil
}
