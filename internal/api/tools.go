package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/agentpulse/internal/domain"
)

func (s *Server) handleAppraisalDefaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.DefaultAppraisalInput())
}

func (s *Server) handleAppraise(w http.ResponseWriter, r *http.Request) {
	in := domain.DefaultAppraisalInput()
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := domain.Appraise(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.GoalProgress(r.Context()))
}

type goalRequest struct {
	Goal int `json:"goal"`
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	progress, err := s.ctrl.SetGoal(r.Context(), chi.URLParam(r, "broker"), req.Goal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
