package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/gemini"
)

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Leads())
}

type searchResponse struct {
	Leads   []domain.Lead   `json:"leads"`
	Added   int             `json:"added"`
	Sources []domain.Source `json:"sources"`
	Error   string          `json:"error,omitempty"`
}

// handleSearch runs a grounded lead search and ingests the results. A failed
// search still answers 200 with the empty fallback and the error text.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q gemini.SearchQuery
	if err := decode(r, &q); err != nil {
		s.writeError(w, r, err)
		return
	}
	profile := s.ctrl.Profile()
	if q.Language == "" {
		q.Language = profile.Language
	}
	if q.CustomInstructions == "" {
		q.CustomInstructions = profile.CustomInstructions
	}
	if q.Type == "" {
		q.Type = domain.LeadTypeBuyer
	}

	result, searchErr := s.ai.SearchLeads(r.Context(), q)
	added, err := s.ctrl.IngestSearch(r.Context(), result.Leads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := searchResponse{Leads: added, Added: len(added), Sources: result.Sources}
	if resp.Leads == nil {
		resp.Leads = []domain.Lead{}
	}
	if resp.Sources == nil {
		resp.Sources = []domain.Source{}
	}
	if searchErr != nil {
		s.log.WarnContext(r.Context(), "Lead search failed", "error", searchErr)
		resp.Error = s.cfg.Messages.GeneralError
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := domain.ParseLeadStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	lead, err := s.ctrl.UpdateLeadStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type scriptsResponse struct {
	Scripts  []string `json:"scripts"`
	Fallback bool     `json:"fallback"`
}

func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	lead, err := s.ctrl.Lead(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scripts, err := s.ai.GenerateScripts(r.Context(), lead, s.ctrl.Profile())
	if err != nil {
		s.log.WarnContext(r.Context(), "Script generation failed", "lead_id", lead.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, scriptsResponse{Scripts: scripts, Fallback: err != nil})
}

type outreachRequest struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	var req outreachRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.ctrl.PrepareOutreach(r.Context(), chi.URLParam(r, "id"), req.Phone, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
