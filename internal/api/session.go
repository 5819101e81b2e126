package api

import (
	"net/http"

	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/domain"
)

type sessionResponse struct {
	Profile      domain.UserProfile        `json:"profile"`
	HasProfile   bool                      `json:"hasProfile"`
	Onboarded    bool                      `json:"onboarded"`
	TrialStarted bool                      `json:"trialStarted"`
	Subscription domain.SubscriptionStatus `json:"subscription"`
	Theme        domain.Theme              `json:"theme"`
}

// handleSession describes the current state. ?start=trial seeds a free
// trial on a first visit.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	started := false
	if r.URL.Query().Get("start") == "trial" {
		var err error
		if _, started, err = s.ctrl.StartTrial(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	profile := s.ctrl.Profile()
	writeJSON(w, http.StatusOK, sessionResponse{
		Profile:      profile,
		HasProfile:   s.ctrl.HasProfile(),
		Onboarded:    profile.IsOnboarded(),
		TrialStarted: started,
		Subscription: s.ctrl.Subscription(),
		Theme:        s.ctrl.Theme(),
	})
}

type loginRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ctrl.Login(r.Context(), req.Phone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	var patch crm.ProfilePatch
	if err := decode(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.ctrl.CompleteOnboarding(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Profile())
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	var patch crm.ProfilePatch
	if err := decode(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.ctrl.UpdateProfile(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sessions.Clear()
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.ctrl.ToggleTheme(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Theme{"theme": theme})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Dashboard(r.Context()))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sessions.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type telegramTestRequest struct {
	Token  string `json:"token"`
	ChatID string `json:"chatId"`
}

func (s *Server) handleTelegramTest(w http.ResponseWriter, r *http.Request) {
	var req telegramTestRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ctrl.TestTelegram(r.Context(), req.Token, req.ChatID); err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
