package api

import (
	"net/http"

	"github.com/edgard/agentpulse/internal/domain"
)

func (s *Server) handleListOpportunities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Opportunities(r.Context()))
}

func (s *Server) handlePostOpportunity(w http.ResponseWriter, r *http.Request) {
	var o domain.JobOpportunity
	if err := decode(r, &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	posted, err := s.ctrl.PostOpportunity(r.Context(), o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, posted)
}

func (s *Server) handleListTalents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Talents(r.Context()))
}

func (s *Server) handlePostTalent(w http.ResponseWriter, r *http.Request) {
	var t domain.TalentProfile
	if err := decode(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	posted, err := s.ctrl.PostTalent(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, posted)
}
