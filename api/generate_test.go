package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforge/docforge/api"
	"github.com/docforge/docforge/config"
	"github.com/docforge/docforge/domain"
	"github.com/docforge/docforge/gemini"
	"github.com/docforge/docforge/policy"
	"github.com/docforge/docforge/session"
	"github.com/docforge/docforge/store"
	"github.com/docforge/docforge/tests/helpers"
)

// fakeGateway is a scripted StreamClient. Each call pops the next chunk
// script; openErr fails before any chunk, midErr fails after all chunks.
type fakeGateway struct {
	scripts [][]string
	openErr error
	midErr  error

	calls    int
	gotTurns [][]domain.Turn
	gotCfgs  []domain.ModelConfig
}

func (f *fakeGateway) Model() string { return "fake-model" }

func (f *fakeGateway) StreamGenerateContent(ctx context.Context, turns []domain.Turn, cfg domain.ModelConfig, callback gemini.StreamCallback) (*gemini.UsageMetadata, error) {
	f.gotTurns = append(f.gotTurns, turns)
	f.gotCfgs = append(f.gotCfgs, cfg)

	if f.openErr != nil {
		return nil, f.openErr
	}

	var chunks []string
	if f.calls < len(f.scripts) {
		chunks = f.scripts[f.calls]
	}
	f.calls++

	for _, text := range chunks {
		chunk := &gemini.StreamChunk{
			Candidates: []gemini.Candidate{{
				Content: &gemini.Content{
					Role:  string(domain.RoleModel),
					Parts: []gemini.Part{{Text: text}},
				},
			}},
		}
		if err := callback(chunk); err != nil {
			return nil, err
		}
	}
	return nil, f.midErr
}

type testEnv struct {
	handler  *api.Handler
	sessions *session.MemoryStore
	store    *store.SQLiteStore
	gateway  *fakeGateway
	echo     *echo.Echo
}

func newTestEnv(t *testing.T, gw *fakeGateway) *testEnv {
	t.Helper()

	sessions := session.NewMemoryStore(0)
	t.Cleanup(sessions.Close)

	db := helpers.NewTestSQLiteStore(t)

	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	h := api.NewHandler(sessions, db, gw, policyEngine, &config.Config{})
	return &testEnv{handler: h, sessions: sessions, store: db, gateway: gw, echo: echo.New()}
}

func validAnswers() *domain.Answers {
	return &domain.Answers{
		ProjectName:      "Weatherly",
		ProjectOverview:  "A weather dashboard for sailors",
		CoreFeatures:     "forecast, alerts, tide tables",
		UIUX:             "mobile first",
		TechArchitecture: "Go backend, React frontend",
	}
}

func (env *testEnv) generate(t *testing.T, artifact string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/"+artifact, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	c.SetPath("/api/generate/:artifact")
	c.SetParamNames("artifact")
	c.SetParamValues(artifact)

	require.NoError(t, env.handler.Generate(c))
	return rec
}

func TestGenerateBlueprintStreams(t *testing.T) {
	gw := &fakeGateway{scripts: [][]string{{"# Weatherly", " Blueprint\n", "Details."}}}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "blueprint", domain.GenerateRequest{UserAnswers: validAnswers()})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Weatherly Blueprint\nDetails.", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get(echo.HeaderContentType))

	sessionID := rec.Header().Get("X-Session-ID")
	assert.NotEmpty(t, sessionID)
	assert.True(t, strings.HasPrefix(sessionID, "sess_"), "derived id: %s", sessionID)

	// Prompt carried the questionnaire and the sampling config matched the artifact.
	require.Len(t, gw.gotTurns, 1)
	require.Len(t, gw.gotTurns[0], 1)
	assert.Equal(t, domain.RoleUser, gw.gotTurns[0][0].Role)
	assert.Contains(t, gw.gotTurns[0][0].Text, "Weatherly")
	assert.Equal(t, domain.ConfigFor(domain.ArtifactBlueprint), gw.gotCfgs[0])

	// History finalized as user + model.
	turns, ok := env.sessions.History(sessionID)
	require.True(t, ok)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleModel, turns[1].Role)
	assert.Equal(t, "# Weatherly Blueprint\nDetails.", turns[1].Text)
}

func TestGenerateUnknownArtifact(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	rec := env.generate(t, "bogus", domain.GenerateRequest{UserAnswers: validAnswers()})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Unknown artifact type: bogus", resp.Error)

	// Validation happens before any upstream call.
	assert.Empty(t, env.gateway.gotTurns)
}

func TestGenerateMissingAnswers(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	rec := env.generate(t, "blueprint", map[string]interface{}{"sessionId": "s1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Missing userAnswers in request body", resp.Error)
}

func TestGenerateRateLimited(t *testing.T) {
	gw := &fakeGateway{openErr: &gemini.RateLimitError{Message: "quota exceeded"}}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "guide", domain.GenerateRequest{UserAnswers: validAnswers()})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "API rate limit exceeded", resp.Error)
	assert.Equal(t, "RATE_LIMIT", resp.Code)
	assert.Empty(t, rec.Header().Get("X-Session-ID"))
}

func TestGenerateUpstreamFailure(t *testing.T) {
	gw := &fakeGateway{openErr: &gemini.APIError{StatusCode: 503, Message: "backend overloaded"}}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "guide", domain.GenerateRequest{UserAnswers: validAnswers()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to generate content with AI", resp.Error)
	assert.Contains(t, resp.Details, "backend overloaded")
}

func TestGenerateMidStreamFailure(t *testing.T) {
	gw := &fakeGateway{
		scripts: [][]string{{"partial text"}},
		midErr:  &gemini.APIError{StatusCode: 500, Message: "stream cut"},
	}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "architecture", domain.GenerateRequest{UserAnswers: validAnswers()})

	// Headers already went out as 200; the failure lives in the body.
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "partial text"), "body: %q", body)
	assert.Contains(t, body, "\n\nError: ")
	assert.True(t, strings.HasSuffix(body, "stream cut"), "body: %q", body)
}

func TestGenerateTasksFenceStripped(t *testing.T) {
	gw := &fakeGateway{scripts: [][]string{{"```json\n", `{"a":1}`, "\n```"}}}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "tasks", domain.GenerateRequest{UserAnswers: validAnswers()})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"a":1}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "```")
}

func TestGenerateTasksMidStreamFailureFlushesHeldBack(t *testing.T) {
	// The last chunk ends in bytes the stripper withholds as a possible
	// closing fence. A mid-stream failure must still flush that tail into
	// the body and the recorded history before the Error suffix.
	gw := &fakeGateway{
		scripts: [][]string{{"```json\n", "[1,2]\n``"}},
		midErr:  &gemini.APIError{StatusCode: 500, Message: "stream cut"},
	}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "tasks", domain.GenerateRequest{UserAnswers: validAnswers()})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "[1,2]\n``\n\nError: "), "body: %q", body)
	assert.True(t, strings.HasSuffix(body, "stream cut"), "body: %q", body)

	sessionID := rec.Header().Get("X-Session-ID")
	turns, ok := env.sessions.History(sessionID)
	require.True(t, ok)
	require.Len(t, turns, 2)
	assert.Equal(t, "[1,2]\n``", turns[1].Text)
}

func TestGenerateSessionHistoryAcrossRequests(t *testing.T) {
	gw := &fakeGateway{scripts: [][]string{{"alpha"}, {"beta"}}}
	env := newTestEnv(t, gw)

	req := domain.GenerateRequest{UserAnswers: validAnswers(), SessionID: "sess_fixed"}

	rec1 := env.generate(t, "blueprint", req)
	assert.Equal(t, http.StatusOK, rec1.Code)
	assert.Equal(t, "sess_fixed", rec1.Header().Get("X-Session-ID"))

	rec2 := env.generate(t, "architecture", req)
	assert.Equal(t, http.StatusOK, rec2.Code)

	// Second upstream prompt = two prior turns + the new user turn.
	require.Len(t, gw.gotTurns, 2)
	second := gw.gotTurns[1]
	require.Len(t, second, 3)
	assert.Equal(t, domain.RoleUser, second[0].Role)
	assert.Equal(t, "alpha", second[1].Text)
	assert.Equal(t, domain.RoleModel, second[1].Role)
	assert.Equal(t, domain.RoleUser, second[2].Role)

	turns, ok := env.sessions.History("sess_fixed")
	require.True(t, ok)
	require.Len(t, turns, 4)
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleModel, domain.RoleUser, domain.RoleModel},
		[]domain.Role{turns[0].Role, turns[1].Role, turns[2].Role, turns[3].Role})
	assert.Equal(t, "beta", turns[3].Text)
}

func TestGeneratePreviousContextSeedsHistory(t *testing.T) {
	gw := &fakeGateway{scripts: [][]string{{"doc"}}}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "architecture", domain.GenerateRequest{
		UserAnswers:     validAnswers(),
		SessionID:       "sess_seeded",
		PreviousContext: "The blueprint chose a monolith.",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, gw.gotTurns, 1)
	turns := gw.gotTurns[0]
	require.Len(t, turns, 3)
	assert.Contains(t, turns[0].Text, "The blueprint chose a monolith.")
	assert.Equal(t, domain.RoleModel, turns[1].Role)
}

func TestGenerateRecordsTelemetry(t *testing.T) {
	gw := &fakeGateway{scripts: [][]string{{"text"}}}
	env := newTestEnv(t, gw)

	rec := env.generate(t, "guide", domain.GenerateRequest{UserAnswers: validAnswers()})
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	gens, err := env.store.ListGenerations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, domain.GenerationStatusDone, gens[0].Status)
	assert.Equal(t, domain.ArtifactGuide, gens[0].Artifact)
	assert.Equal(t, "fake-model", gens[0].Model)

	events, err := env.store.GetEvents(ctx, gens[0].GenerationID, 0, nil, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	doneEvents, err := env.store.GetEvents(ctx, gens[0].GenerationID, 0, []string{string(domain.EventTypeGenerationDone)}, 10)
	require.NoError(t, err)
	require.Len(t, doneEvents, 1)

	var done domain.GenerationDonePayload
	require.NoError(t, json.Unmarshal(doneEvents[0].Payload, &done))
	assert.Equal(t, 1, done.Chunks)
	assert.Equal(t, int64(4), done.TotalBytes)
}

func TestGeneratePolicyDeny(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{})

	answers := validAnswers()
	answers.AdditionalRequirements = strings.Repeat("x", 300000)
	rec := env.generate(t, "blueprint", domain.GenerateRequest{UserAnswers: answers})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Request rejected by generation policy", resp.Error)
	assert.Empty(t, env.gateway.gotTurns)
}
