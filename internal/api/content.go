package api

import (
	"net/http"
	"strings"

	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/gemini"
)

type reportResponse struct {
	gemini.MarketReport
	Fallback bool `json:"fallback"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req gemini.MarketReportRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "address is required"})
		return
	}
	if req.Language == "" {
		req.Language = s.ctrl.Profile().Language
	}
	report, err := s.ai.GenerateMarketReport(r.Context(), req)
	if err != nil {
		s.log.WarnContext(r.Context(), "Market report failed", "error", err)
	}
	if report.Sources == nil {
		report.Sources = []domain.Source{}
	}
	writeJSON(w, http.StatusOK, reportResponse{MarketReport: report, Fallback: err != nil})
}

type emailRequest struct {
	Goal     string          `json:"goal"`
	Topic    string          `json:"topic"`
	Language domain.Language `json:"language"`
}

type emailResponse struct {
	domain.EmailDraft
	Fallback bool `json:"fallback"`
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "topic is required"})
		return
	}
	profile := s.ctrl.Profile()
	if req.Language == "" {
		req.Language = profile.Language
	}
	draft, err := s.ai.GenerateEmail(r.Context(), gemini.EmailRequest{
		Goal:     req.Goal,
		Topic:    req.Topic,
		Profile:  profile,
		Language: req.Language,
	})
	if err != nil {
		s.log.WarnContext(r.Context(), "Email generation failed", "error", err)
	}
	writeJSON(w, http.StatusOK, emailResponse{EmailDraft: draft, Fallback: err != nil})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Reset     bool   `json:"reset"`
}

type chatResponse struct {
	Reply    string               `json:"reply"`
	History  []domain.ChatMessage `json:"history"`
	Fallback bool                 `json:"fallback"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-ID")
	}
	if req.SessionID == "" {
		req.SessionID = "web"
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, r, crm.ErrInvalidInput)
		return
	}
	if req.Reset {
		s.sessions.Drop(req.SessionID)
	}

	sess, err := s.sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reply, err := sess.Send(r.Context(), req.Message)
	if err != nil {
		s.log.WarnContext(r.Context(), "Chat turn failed", "error", err)
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, History: sess.History(), Fallback: err != nil})
}

type speechRequest struct {
	Text string `json:"text"`
}

// handleSpeech answers with raw audio, or 204 when no audio is available.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	speech, err := s.ai.SynthesizeSpeech(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if speech == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", speech.MIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(speech.Data)
}
