package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/agentpulse/internal/domain"
)

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules := s.ctrl.Schedules()
	if schedules == nil {
		schedules = []domain.SearchSchedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

type scheduleRequest struct {
	Niche    string          `json:"niche"`
	Location string          `json:"location"`
	Type     domain.LeadType `json:"type"`
	Days     []string        `json:"days"`
	Time     string          `json:"time"`
	Active   *bool           `json:"active"`
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	sched, err := s.ctrl.AddSchedule(r.Context(), domain.SearchSchedule{
		Niche:    req.Niche,
		Location: req.Location,
		Type:     req.Type,
		Days:     req.Days,
		Time:     req.Time,
		Active:   active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sched)
}

type toggleScheduleRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleToggleSchedule(w http.ResponseWriter, r *http.Request) {
	var req toggleScheduleRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sched, err := s.ctrl.SetScheduleActive(r.Context(), chi.URLParam(r, "id"), req.Active)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.RemoveSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
