package gemini_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/gemini"
)

type fakeResponse struct {
	status int
	body   string
}

// fakeAPI serves scripted generateContent responses in order; the last one repeats.
type fakeAPI struct {
	mu        sync.Mutex
	responses []fakeResponse
	requests  []string
	paths     []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	idx := min(len(f.requests), len(f.responses)-1)
	f.requests = append(f.requests, string(body))
	f.paths = append(f.paths, r.URL.Path)
	resp := f.responses[idx]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAPI) request(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

type source struct{ title, uri string }

func textResponse(t *testing.T, text string, sources ...source) fakeResponse {
	t.Helper()
	candidate := map[string]any{
		"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
		"finishReason": "STOP",
	}
	if len(sources) > 0 {
		chunks := make([]any, 0, len(sources))
		for _, s := range sources {
			chunks = append(chunks, map[string]any{"web": map[string]any{"title": s.title, "uri": s.uri}})
		}
		candidate["groundingMetadata"] = map[string]any{"groundingChunks": chunks}
	}
	b, err := json.Marshal(map[string]any{"candidates": []any{candidate}})
	require.NoError(t, err)
	return fakeResponse{status: http.StatusOK, body: string(b)}
}

func audioResponse(t *testing.T, mime string, data []byte) fakeResponse {
	t.Helper()
	b, err := json.Marshal(map[string]any{"candidates": []any{map[string]any{
		"content": map[string]any{"role": "model", "parts": []any{map[string]any{
			"inlineData": map[string]any{"mimeType": mime, "data": base64.StdEncoding.EncodeToString(data)},
		}}},
	}}})
	require.NoError(t, err)
	return fakeResponse{status: http.StatusOK, body: string(b)}
}

func errorResponse(code int, status, message string) fakeResponse {
	body, _ := json.Marshal(map[string]any{"error": map[string]any{"code": code, "message": message, "status": status}})
	return fakeResponse{status: code, body: string(body)}
}

var fixedNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, maxRetries int, responses ...fakeResponse) (gemini.Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := config.GeminiConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		ModelName:         "text-model",
		SearchModelName:   "search-model",
		SpeechModelName:   "tts-model",
		SpeechVoice:       "Puck",
		Temperature:       0.5,
		SystemInstruction: "You are a test assistant.",
		MaxRetries:        maxRetries,
		RetryBaseDelay:    time.Millisecond,
		RequestTimeout:    5 * time.Second,
	}
	client, err := gemini.NewClient(context.Background(), cfg, config.DefaultMessages, nil, gemini.Options{
		Now: func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return client, api
}

const leadsJSON = "Found these:\n```json\n" + `{"leads":[
  {"name":"Ana Souza","need":"3-bedroom apartment","location":"","foundAt":"OLX","score":"85","triggers":["posted last week"],"publicProfileUrl":"https://olx.example/ana"},
  {"name":"","need":"ignored"},
  {"name":"Carlos","need":"house with yard","location":"Batel","score":150,"triggers":"relocating"}
]}` + "\n```"

func TestSearchLeads(t *testing.T) {
	t.Parallel()

	client, api := newTestClient(t, 1, textResponse(t, leadsJSON,
		source{title: "OLX", uri: "https://olx.example/ana"},
		source{title: "", uri: "https://forum.example/t/1"},
		source{title: "dup", uri: "https://olx.example/ana"},
	))

	res, err := client.SearchLeads(context.Background(), gemini.SearchQuery{
		Niche:       "apartamento",
		Location:    "Curitiba",
		Type:        domain.LeadTypeOwner,
		Coordinates: &gemini.Coordinates{Latitude: -25.4, Longitude: -49.2},
	})
	require.NoError(t, err)
	require.Len(t, res.Leads, 2)

	ana := res.Leads[0]
	assert.NotEmpty(t, ana.ID)
	assert.Equal(t, "Ana Souza", ana.Name)
	assert.Equal(t, "Curitiba", ana.Location)
	assert.Equal(t, 85, ana.Score)
	assert.Equal(t, domain.StatusNew, ana.Status)
	assert.Equal(t, domain.LeadTypeOwner, ana.Type)
	assert.Equal(t, fixedNow, ana.LastInteraction)
	assert.Equal(t, "https://olx.example/ana", ana.SourceURL)

	carlos := res.Leads[1]
	assert.Equal(t, 100, carlos.Score)
	assert.Equal(t, []string{"relocating"}, carlos.Triggers)
	assert.NotEqual(t, ana.ID, carlos.ID)

	assert.Equal(t, []domain.Source{
		{Title: "OLX", URI: "https://olx.example/ana"},
		{Title: "https://forum.example/t/1", URI: "https://forum.example/t/1"},
	}, res.Sources)

	require.Equal(t, 1, api.calls())
	body := api.request(0)
	assert.Contains(t, body, `"googleSearch"`)
	assert.Contains(t, body, `"googleMaps"`)
	assert.Contains(t, body, `"latitude":-25.4`)
	assert.Contains(t, api.paths[0], "search-model:generateContent")
}

func TestSearchLeadsRetriesQuotaErrors(t *testing.T) {
	t.Parallel()

	client, api := newTestClient(t, 2,
		errorResponse(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota exceeded"),
		errorResponse(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota exceeded"),
		textResponse(t, leadsJSON),
	)

	res, err := client.SearchLeads(context.Background(), gemini.SearchQuery{Niche: "casa", Location: "Curitiba", Type: domain.LeadTypeBuyer})
	require.NoError(t, err)
	assert.Len(t, res.Leads, 2)
	assert.Equal(t, 3, api.calls())
}

func TestSearchLeadsFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		retries   int
		responses []fakeResponse
		wantCalls int
	}{
		{
			name:      "permanent error is not retried",
			retries:   2,
			responses: []fakeResponse{errorResponse(http.StatusBadRequest, "INVALID_ARGUMENT", "bad request")},
			wantCalls: 1,
		},
		{
			name:      "quota exhausted after retries",
			retries:   1,
			responses: []fakeResponse{errorResponse(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota")},
			wantCalls: 2,
		},
		{
			name:      "unparseable text",
			retries:   1,
			responses: []fakeResponse{textResponse(t, "I could not find anyone, sorry.")},
			wantCalls: 1,
		},
		{
			name:      "no candidates",
			retries:   1,
			responses: []fakeResponse{{status: http.StatusOK, body: `{"candidates":[]}`}},
			wantCalls: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client, api := newTestClient(t, tc.retries, tc.responses...)

			res, err := client.SearchLeads(context.Background(), gemini.SearchQuery{Niche: "casa", Location: "Curitiba"})
			assert.Error(t, err)
			assert.NotNil(t, res.Leads)
			assert.Empty(t, res.Leads)
			assert.NotNil(t, res.Sources)
			assert.Empty(t, res.Sources)
			assert.Equal(t, tc.wantCalls, api.calls())
		})
	}
}

func TestGenerateScripts(t *testing.T) {
	t.Parallel()

	lead := domain.Lead{ID: "l1", Name: "Ana", Need: "apartment", Location: "Curitiba", Triggers: []string{"new job"}}
	profile := domain.UserProfile{BrokerName: "Marcos", AgencyName: "Prime", Language: domain.LanguageEN}

	t.Run("three sanitized scripts", func(t *testing.T) {
		t.Parallel()
		client, api := newTestClient(t, 0, textResponse(t, `["\"Hi Ana, Marcos here.\"", "**Hello** Ana", "Ana, quick one", "extra"]`))

		scripts, err := client.GenerateScripts(context.Background(), lead, profile)
		require.NoError(t, err)
		assert.Equal(t, []string{"Hi Ana, Marcos here.", "Hello Ana", "Ana, quick one"}, scripts)
		assert.Contains(t, api.request(0), "application/json")
		assert.Contains(t, api.request(0), "English")
	})

	t.Run("plain text reply is one script", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, 0, textResponse(t, "Hi Ana, are you still looking?"))

		scripts, err := client.GenerateScripts(context.Background(), lead, profile)
		require.NoError(t, err)
		assert.Equal(t, []string{"Hi Ana, are you still looking?"}, scripts)
	})

	t.Run("failure falls back to generic message", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, 0, errorResponse(http.StatusInternalServerError, "INTERNAL", "boom"))

		scripts, err := client.GenerateScripts(context.Background(), lead, profile)
		assert.Error(t, err)
		assert.Equal(t, []string{config.DefaultMessages.ScriptFallback}, scripts)
	})
}

func TestGenerateMarketReport(t *testing.T) {
	t.Parallel()

	req := gemini.MarketReportRequest{Address: "Rua XV, 100, Curitiba", Details: "80m2"}

	t.Run("grounded report", func(t *testing.T) {
		t.Parallel()
		client, api := newTestClient(t, 0, textResponse(t, "## Price\nAround R$ 9.000/m2", source{title: "Portal", uri: "https://portal.example"}))

		report, err := client.GenerateMarketReport(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Price\n\nAround R$ 9.000/m2", report.Text)
		assert.Equal(t, []domain.Source{{Title: "Portal", URI: "https://portal.example"}}, report.Sources)
		assert.Contains(t, api.request(0), `"googleSearch"`)
	})

	t.Run("empty answer is unavailable", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, 0, fakeResponse{status: http.StatusOK, body: `{"candidates":[{"content":{"role":"model","parts":[]}}]}`})

		report, err := client.GenerateMarketReport(context.Background(), req)
		assert.ErrorIs(t, err, gemini.ErrEmptyResponse)
		assert.Equal(t, config.DefaultMessages.ReportFallback, report.Text)
	})

	t.Run("call failure is labeled error", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, 0, errorResponse(http.StatusForbidden, "PERMISSION_DENIED", "no"))

		report, err := client.GenerateMarketReport(context.Background(), req)
		assert.Error(t, err)
		assert.Equal(t, config.DefaultMessages.ReportError, report.Text)
		assert.Empty(t, report.Sources)
	})
}

func TestGenerateEmail(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, 0, textResponse(t, `{"subject":" New listings ","body":"Dear client, ..."}`))
	draft, err := client.GenerateEmail(context.Background(), gemini.EmailRequest{
		Goal:    "reactivate old leads",
		Topic:   "new launches",
		Profile: domain.UserProfile{BrokerName: "Marcos"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EmailDraft{Subject: "New listings", Body: "Dear client, ..."}, draft)

	client, _ = newTestClient(t, 0, textResponse(t, "no json"))
	draft, err = client.GenerateEmail(context.Background(), gemini.EmailRequest{Goal: "x"})
	assert.ErrorIs(t, err, gemini.ErrMalformedResponse)
	assert.Equal(t, domain.EmailDraft{}, draft)
}

func TestSynthesizeSpeech(t *testing.T) {
	t.Parallel()

	t.Run("pcm is wrapped as wav", func(t *testing.T) {
		t.Parallel()
		pcm := []byte{1, 0, 2, 0, 3, 0}
		client, api := newTestClient(t, 0, audioResponse(t, "audio/L16;codec=pcm;rate=24000", pcm))

		speech, err := client.SynthesizeSpeech(context.Background(), "Olá, **Ana**!")
		require.NoError(t, err)
		require.NotNil(t, speech)
		assert.Equal(t, "audio/wav", speech.MIMEType)
		assert.True(t, strings.HasPrefix(string(speech.Data), "RIFF"))
		assert.Len(t, speech.Data, 44+len(pcm))
		assert.Contains(t, api.request(0), `"Puck"`)
		assert.Contains(t, api.paths[0], "tts-model:generateContent")
	})

	t.Run("quota means no audio", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, 0, errorResponse(http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota"))

		speech, err := client.SynthesizeSpeech(context.Background(), "hello")
		assert.NoError(t, err)
		assert.Nil(t, speech)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		client, api := newTestClient(t, 0, textResponse(t, "unused"))

		speech, err := client.SynthesizeSpeech(context.Background(), "   ")
		assert.NoError(t, err)
		assert.Nil(t, speech)
		assert.Zero(t, api.calls())
	})
}

func TestChatSession(t *testing.T) {
	t.Parallel()

	client, api := newTestClient(t, 0,
		textResponse(t, "Offer a 2% discount."),
		textResponse(t, "Follow up on Friday."),
	)
	session, err := client.NewChatSession(context.Background(), domain.UserProfile{BrokerName: "Marcos", Language: domain.LanguagePT})
	require.NoError(t, err)

	reply, err := session.Send(context.Background(), "Client says it's too expensive")
	require.NoError(t, err)
	assert.Equal(t, "Offer a 2% discount.", reply)

	reply, err = session.Send(context.Background(), "And then?")
	require.NoError(t, err)
	assert.Equal(t, "Follow up on Friday.", reply)

	history := session.History()
	require.Len(t, history, 4)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleModel, history[3].Role)

	second := api.request(1)
	assert.Contains(t, second, "too expensive")
	assert.Contains(t, second, "Offer a 2% discount.")
	assert.Contains(t, second, "Marcos")

	reply, err = session.Send(context.Background(), "  ")
	assert.Error(t, err)
	assert.Equal(t, config.DefaultMessages.ChatFallback, reply)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, gemini.IsTransient(errorFromCode(429)))
	assert.True(t, gemini.IsTransient(errorFromCode(503)))
	assert.True(t, gemini.IsTransient(errorFromCode(500)))
	assert.False(t, gemini.IsTransient(errorFromCode(400)))
	assert.False(t, gemini.IsQuotaError(errorFromCode(503)))
	assert.True(t, gemini.IsQuotaError(errorFromCode(429)))
}

func errorFromCode(code int) error {
	return genai.APIError{Code: code, Message: "upstream", Status: "TEST"}
}
