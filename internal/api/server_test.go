package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/agentpulse/internal/api"
	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/gemini"
)

type fakeAI struct {
	mu        sync.Mutex
	leads     []domain.Lead
	searchErr error
	speech    *gemini.Speech
}

func (f *fakeAI) SearchLeads(_ context.Context, q gemini.SearchQuery) (gemini.LeadSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return gemini.LeadSearchResult{Leads: []domain.Lead{}, Sources: []domain.Source{}}, f.searchErr
	}
	return gemini.LeadSearchResult{Leads: f.leads, Sources: []domain.Source{{Title: "Portal", URI: "https://portal.example"}}}, nil
}

func (f *fakeAI) GenerateScripts(context.Context, domain.Lead, domain.UserProfile) ([]string, error) {
	return []string{"Oi!", "Olá!"}, nil
}

func (f *fakeAI) GenerateMarketReport(_ context.Context, req gemini.MarketReportRequest) (gemini.MarketReport, error) {
	return gemini.MarketReport{Text: "Report for " + req.Address}, nil
}

func (f *fakeAI) GenerateEmail(_ context.Context, req gemini.EmailRequest) (domain.EmailDraft, error) {
	return domain.EmailDraft{Subject: req.Topic, Body: "Body by " + req.Profile.BrokerName}, nil
}

func (f *fakeAI) NewChatSession(context.Context, domain.UserProfile) (gemini.ChatSession, error) {
	return &fakeChat{}, nil
}

func (f *fakeAI) SynthesizeSpeech(context.Context, string) (*gemini.Speech, error) {
	return f.speech, nil
}

type fakeChat struct {
	history []domain.ChatMessage
}

func (c *fakeChat) Send(_ context.Context, text string) (string, error) {
	reply := "echo: " + text
	c.history = append(c.history,
		domain.ChatMessage{Role: domain.RoleUser, Text: text},
		domain.ChatMessage{Role: domain.RoleModel, Text: reply})
	return reply, nil
}

func (c *fakeChat) History() []domain.ChatMessage { return c.history }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	srv   *httptest.Server
	ctrl  *crm.Controller
	ai    *fakeAI
	clock *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	h := &harness{ai: &fakeAI{}, clock: &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}}
	h.ctrl = crm.New(database.NewStore(db, log), nil, log, crm.Options{
		TrialDays:          7,
		ProTokenPrefix:     "AGENT-PRO-",
		DailySendLimit:     40,
		SafeBelow:          15,
		AttentionBelow:     30,
		DefaultCountryCode: "55",
		HotLeadScore:       80,
		Now:                h.clock.Now,
	})
	require.NoError(t, h.ctrl.Load(context.Background()))

	cfg := &config.Config{Messages: config.DefaultMessages}
	cfg.HTTP.RequestTimeout = 5 * time.Second
	server := api.NewServer(h.ctrl, h.ai, gemini.NewSessions(h.ai, h.ctrl.Profile), cfg, log)
	h.srv = httptest.NewServer(server.Routes())
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSessionTrialConvention(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var sess map[string]any
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/session", nil, &sess))
	assert.Equal(t, false, sess["hasProfile"])

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/session?start=trial", nil, &sess))
	assert.Equal(t, true, sess["trialStarted"])
	assert.Equal(t, true, sess["hasProfile"])

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/session?start=trial", nil, &sess))
	assert.Equal(t, false, sess["trialStarted"])
}

func TestLoginOnboardingAndProfile(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var login crm.LoginResult
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/login", map[string]string{"phone": "(41) 99999-0000"}, &login))
	assert.True(t, login.NeedsOnboarding)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/login", map[string]string{"phone": "12"}, &errBody))
	assert.NotEmpty(t, errBody["error"])

	var profile domain.UserProfile
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/onboarding", map[string]string{"brokerName": "Marina", "agencyName": "Casa Azul"}, &profile))
	assert.Equal(t, "Marina", profile.BrokerName)
	require.NotNil(t, profile.TrialStartDate)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPatch, "/api/profile", map[string]string{"language": "en"}, &profile))
	assert.Equal(t, domain.LanguageEN, profile.Language)
	assert.Equal(t, "Casa Azul", profile.AgencyName)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPatch, "/api/profile", map[string]string{"language": "xx"}, nil))

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/login", map[string]string{"phone": "5541999990000"}, &login))
	assert.True(t, login.Authenticated)
}

func TestLeadLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.ai.leads = []domain.Lead{{Name: "Ana", Score: 90, Contact: "41999990000"}}

	var search struct {
		Leads   []domain.Lead   `json:"leads"`
		Added   int             `json:"added"`
		Sources []domain.Source `json:"sources"`
	}
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/leads/search", map[string]string{"niche": "casa", "location": "Curitiba"}, &search))
	require.Equal(t, 1, search.Added)
	require.Len(t, search.Sources, 1)
	id := search.Leads[0].ID

	var leads []domain.Lead
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/leads", nil, &leads))
	assert.Len(t, leads, 1)

	var scripts struct {
		Scripts []string `json:"scripts"`
	}
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/leads/"+id+"/scripts", nil, &scripts))
	assert.Len(t, scripts.Scripts, 2)

	var out crm.Outreach
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/leads/"+id+"/outreach", map[string]string{"text": "Oi Ana"}, &out))
	assert.Equal(t, "https://wa.me/5541999990000?text=Oi%20Ana", out.URL)
	assert.Equal(t, domain.StatusContacted, out.Lead.Status)

	var lead domain.Lead
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPatch, "/api/leads/"+id+"/status", map[string]string{"status": "Negócio Fechado"}, &lead))
	assert.Equal(t, domain.StatusDealClosed, lead.Status)

	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodPatch, "/api/leads/"+id+"/status", map[string]string{"status": "New"}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPatch, "/api/leads/"+id+"/status", map[string]string{"status": "Lost"}, nil))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPatch, "/api/leads/missing/status", map[string]string{"status": "New"}, nil))

	var stats domain.DashboardStats
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/dashboard", nil, &stats))
	assert.Equal(t, 1, stats.TotalLeads)
	assert.Equal(t, 1, stats.SentToday)
}

func TestSearchFailureReturnsFallback(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.ai.searchErr = gemini.ErrMalformedResponse

	var search map[string]any
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/leads/search", map[string]string{"niche": "casa"}, &search))
	assert.Equal(t, []any{}, search["leads"])
	assert.Equal(t, config.DefaultMessages.GeneralError, search["error"])
}

func TestExpiredTrialBlocksGeneration(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/session?start=trial", nil, nil))
	h.clock.Advance(8 * 24 * time.Hour)

	assert.Equal(t, http.StatusPaymentRequired, h.do(t, http.MethodPost, "/api/reports", map[string]string{"address": "Rua A"}, nil))
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/leads", nil, nil))
}

func TestContentRoutes(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var report map[string]any
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/reports", map[string]string{"address": "Rua A, 10"}, &report))
	assert.Equal(t, "Report for Rua A, 10", report["text"])
	assert.Equal(t, false, report["fallback"])
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/reports", map[string]string{}, nil))

	var email map[string]any
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/emails", map[string]string{"topic": "Lançamento"}, &email))
	assert.Equal(t, "Lançamento", email["subject"])

	var chat struct {
		Reply   string               `json:"reply"`
		History []domain.ChatMessage `json:"history"`
	}
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/chat", map[string]string{"sessionId": "s1", "message": "oi"}, &chat))
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/chat", map[string]string{"sessionId": "s1", "message": "tudo bem?"}, &chat))
	assert.Equal(t, "echo: tudo bem?", chat.Reply)
	assert.Len(t, chat.History, 4)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/chat", map[string]string{"message": " "}, nil))

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodPost, "/api/speech", map[string]string{"text": "oi"}, nil))
}

func TestSpeechReturnsAudio(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.ai.speech = &gemini.Speech{Data: []byte("RIFF"), MIMEType: "audio/wav"}

	resp, err := http.Post(h.srv.URL+"/api/speech", "application/json", bytes.NewReader([]byte(`{"text":"oi"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/wav", resp.Header.Get("Content-Type"))
	assert.Equal(t, []byte("RIFF"), body)
}

func TestSchedulesAndBoard(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var sched domain.SearchSchedule
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/schedules", map[string]any{
		"niche": "casa", "days": []string{"seg"}, "time": "08:00",
	}, &sched))
	assert.True(t, sched.Active)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/schedules", map[string]any{"niche": "casa"}, nil))

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPatch, "/api/schedules/"+sched.ID, map[string]bool{"active": false}, &sched))
	assert.False(t, sched.Active)

	var list []domain.SearchSchedule
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/schedules", nil, &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/api/schedules/"+sched.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/api/schedules/"+sched.ID, nil, nil))

	var opp domain.JobOpportunity
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/board/opportunities", map[string]string{"title": "Corretor", "contact": "rh@x.com"}, &opp))
	assert.NotEmpty(t, opp.ID)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/board/talents", map[string]string{"name": "Rafa"}, nil))

	var opps []domain.JobOpportunity
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/board/opportunities", nil, &opps))
	assert.Len(t, opps, 1)
}

func TestAppraisals(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/session?start=trial", nil, nil))
	h.clock.Advance(8 * 24 * time.Hour)

	var defaults domain.AppraisalInput
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/appraisals/default", nil, &defaults))
	assert.Equal(t, domain.DefaultAppraisalInput(), defaults)

	var result domain.Appraisal
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/appraisals", map[string]any{"frontage": 12, "depth": 30}, &result))
	assert.InDelta(t, 360, result.LandArea, 1e-9)
	assert.InDelta(t, 1113660, result.Total, 1e-6)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/appraisals", map[string]any{"shape": "irregular"}, &result))
	assert.InDelta(t, 341.7955, result.LandArea, 1e-3)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/appraisals", map[string]any{"conservationState": 3}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/appraisals", map[string]any{"shape": "round"}, nil))
}

func TestGoals(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.ctrl.AddLeads(ctx, []domain.Lead{
		{Name: "Ana", Status: domain.StatusDealClosed},
		{Name: "Bia", Status: domain.StatusDealClosed, BrokerID: "carla"},
		{Name: "Caio", Status: domain.StatusContacted, BrokerID: "carla"},
	})
	require.NoError(t, err)

	var list []domain.GoalProgress
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/goals", nil, &list))
	require.Len(t, list, 2)
	assert.Equal(t, domain.GoalProgress{BrokerID: "carla", Closed: 1, Goal: 5, Progress: 20}, list[0])
	assert.Equal(t, "self", list[1].BrokerID)

	var progress domain.GoalProgress
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPut, "/api/goals/self", map[string]int{"goal": 1}, &progress))
	assert.True(t, progress.Met)
	assert.Equal(t, 100.0, progress.Progress)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPut, "/api/goals/carla", map[string]int{"goal": 0}, nil))

	require.Equal(t, http.StatusNoContent, h.do(t, http.MethodPost, "/api/reset", nil, nil))
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/goals", nil, &list))
	assert.Equal(t, []domain.GoalProgress{{BrokerID: "self", Goal: 5}}, list)
}

func TestThemeAndReset(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	var theme map[string]string
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/theme/toggle", nil, &theme))
	assert.Equal(t, "light", theme["theme"])

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/telegram/test", map[string]string{}, nil))

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodPost, "/api/reset", nil, nil))
	assert.Equal(t, domain.ThemeDark, h.ctrl.Theme())
}
