package http

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeocm/vibeocm-backend/internal/analytics"
	"github.com/vibeocm/vibeocm-backend/internal/llm"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/repository"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/service"
)

type completerFunc func(ctx context.Context, req llm.Request) (string, error)

func (f completerFunc) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f(ctx, req)
}

func setupRouter(t *testing.T, completer llm.Completer) *gin.Engine {
	t.Helper()
	r, _ := setupRouterWithStore(t, completer)
	return r
}

func setupRouterWithStore(t *testing.T, completer llm.Completer) (*gin.Engine, *repository.SessionRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := repository.NewSessionRepository(client, time.Hour)
	gen := service.NewGenerator(completer, analytics.Noop{}, service.GeneratorConfig{Temperature: 0.7, MaxTokens: 2000})
	wizard := service.NewWizardService(sessions, repository.NoopArtifactRepository{}, gen, analytics.Noop{}, service.WizardConfig{})

	r := gin.New()
	New(wizard).Register(r.Group("/api/v1"))
	return r, sessions
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	session := decode(t, w)["session"].(map[string]any)
	return session["id"].(string)
}

func advanceToSelection(t *testing.T, r http.Handler, id string) {
	t.Helper()
	advanceNamedToSelection(t, r, id, "CRM Rollout")
}

func advanceNamedToSelection(t *testing.T, r http.Handler, id, projectName string) {
	t.Helper()
	base := "/api/v1/sessions/" + id
	long := "a sufficiently detailed description"
	steps := []struct {
		path string
		body any
	}{
		{"/auth", map[string]any{"method": "openai", "api_key": "sk-abcdefghijklmnopqrstuvwxyz", "disclaimer_accepted": true}},
		{"/basics", map[string]any{"name": projectName, "goal": "Move every sales rep onto the new CRM", "start_date": "2025-01-01", "end_date": "2025-06-30"}},
		{"/stakeholders", map[string]any{"stakeholders": []map[string]string{{"role": "Sales", "impact": "New workflow"}}, "impacted_users": 50}},
		{"/benefits", map[string]any{"org_benefits": long, "user_benefits": long, "challenges": long}},
	}
	for _, s := range steps {
		w := do(t, r, http.MethodPost, base+s.path, s.body)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", s.path, w.Body.String())
	}
}

func okCompleter() llm.Completer {
	return completerFunc(func(context.Context, llm.Request) (string, error) { return "# Draft", nil })
}

func TestCreateSession_HidesAPIKey(t *testing.T) {
	r := setupRouter(t, okCompleter())
	id := createSession(t, r)
	advanceToSelection(t, r, id)

	w := do(t, r, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "sk-abcdefghijklmnopqrstuvwxyz")

	session := decode(t, w)["session"].(map[string]any)
	assert.Equal(t, true, session["has_api_key"])
	assert.Equal(t, "artifact-selection", session["step"])
}

func TestSubmitAuth_ValidationError(t *testing.T) {
	r := setupRouter(t, okCompleter())
	id := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/auth", map[string]any{"method": "openai", "api_key": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["ok"])
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "api_key")
	assert.Contains(t, fields, "disclaimer_accepted")
}

func TestSubmitAuth_BadJSON(t *testing.T) {
	r := setupRouter(t, okCompleter())
	id := createSession(t, r)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/auth", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPassphrase_Rejected(t *testing.T) {
	r := setupRouter(t, okCompleter())
	id := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/auth",
		map[string]any{"method": "passphrase", "passphrase": "not the right one", "disclaimer_accepted": true})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionNotFound(t *testing.T) {
	r := setupRouter(t, okCompleter())
	w := do(t, r, http.MethodGet, "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStepOutOfOrder(t *testing.T) {
	r := setupRouter(t, okCompleter())
	id := createSession(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/artifacts", map[string]any{"artifact": "Communication Plan"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSelectArtifactAndRefine(t *testing.T) {
	r := setupRouter(t, completerFunc(func(_ context.Context, req llm.Request) (string, error) {
		if req.Feedback != "" {
			return "# Draft v2", nil
		}
		return "# Draft", nil
	}))
	id := createSession(t, r)
	advanceToSelection(t, r, id)
	base := "/api/v1/sessions/" + id

	w := do(t, r, http.MethodPost, base+"/artifacts", map[string]any{"artifact": "Unknown Thing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, base+"/artifacts", map[string]any{"artifact": "Communication Plan"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode(t, w)["session"].(map[string]any)
	assert.Equal(t, "results", session["step"])
	assert.Equal(t, "# Draft", session["content"])

	w = do(t, r, http.MethodPost, base+"/refinement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "refinement", decode(t, w)["session"].(map[string]any)["step"])

	w = do(t, r, http.MethodPost, base+"/refine", map[string]any{"feedback": "tighten it"})
	require.Equal(t, http.StatusOK, w.Code)
	session = decode(t, w)["session"].(map[string]any)
	assert.Equal(t, "# Draft v2", session["content"])
	assert.Equal(t, "results", session["step"])

	w = do(t, r, http.MethodPost, base+"/start-over", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "artifact-selection", decode(t, w)["session"].(map[string]any)["step"])

	w = do(t, r, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "benefits", decode(t, w)["session"].(map[string]any)["step"])

	w = do(t, r, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])
}

func TestSelectArtifact_GenerationFailure(t *testing.T) {
	r := setupRouter(t, completerFunc(func(context.Context, llm.Request) (string, error) {
		return "", &llm.APIError{Type: llm.ErrorServer, Status: 500, Message: "Failed to call OpenAI API after 3 attempts: boom"}
	}))
	id := createSession(t, r)
	advanceToSelection(t, r, id)

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/artifacts", map[string]any{"artifact": "Communication Plan"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Failed to generate Communication Plan. Failed to call OpenAI API after 3 attempts: boom"+
		" Make sure you're using a valid OpenAI API key from https://platform.openai.com/api-keys", body["error"])
	assert.Equal(t, "server_error", body["error_type"])
}

func TestBundle(t *testing.T) {
	r := setupRouter(t, completerFunc(func(_ context.Context, req llm.Request) (string, error) {
		if bytes.Contains([]byte(req.UserPrompt), []byte("Generate Feedback Survey Templates")) {
			return "", errors.New("boom")
		}
		return "# Draft", nil
	}))
	id := createSession(t, r)
	advanceToSelection(t, r, id)

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/bundle", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, "crm-rollout-ocm-artifacts.zip", attachmentName(t, w))

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"organizational-change-plan.md",
		"communication-plan.md",
		"communication-message-templates.md",
		"stakeholder-engagement-strategy.md",
		"feedback-survey-templates-ERROR.md",
	}, names)
}

func TestStreamProgress_UnknownSession(t *testing.T) {
	r := setupRouter(t, okCompleter())
	w := do(t, r, http.MethodGet, "/api/v1/sessions/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func attachmentName(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	return params["filename"]
}

func TestBundle_QuotedProjectName(t *testing.T) {
	r := setupRouter(t, okCompleter())
	id := createSession(t, r)
	advanceNamedToSelection(t, r, id, `Project "Phoenix"`)

	w := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/bundle", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `project-"phoenix"-ocm-artifacts.zip`, attachmentName(t, w))
}

func TestDownloadArtifact(t *testing.T) {
	r := setupRouter(t, okCompleter())
	id := createSession(t, r)
	advanceToSelection(t, r, id)
	base := "/api/v1/sessions/" + id + "/artifacts/"

	w := do(t, r, http.MethodGet, base+"communication-plan.md", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/artifacts", map[string]any{"artifact": "Communication Plan"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, base+"communication-plan.md", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "# Draft", w.Body.String())
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "communication-plan.md", attachmentName(t, w))

	w = do(t, r, http.MethodGet, base+"not-an-artifact.md", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/sessions/missing/artifacts/communication-plan.md", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamProgress(t *testing.T) {
	r, sessions := setupRouterWithStore(t, okCompleter())
	id := createSession(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/sessions/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readFrame := func() string {
		t.Helper()
		var frame strings.Builder
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if line == "\n" {
				return frame.String()
			}
			frame.WriteString(line)
		}
	}

	// the subscription is live once the first frame arrives
	assert.Equal(t, "event: subscribed\ndata: {\"session_id\":\""+id+"\"}\n", readFrame())

	require.NoError(t, sessions.PublishProgress(ctx, domain.ProgressEvent{
		SessionID: id, Artifact: "Communication Plan", Index: 1, Total: 5, Percent: 20, Status: domain.ProgressGenerated,
	}))
	require.NoError(t, sessions.PublishProgress(ctx, domain.ProgressEvent{
		SessionID: id, Index: 5, Total: 5, Percent: 100, Status: domain.ProgressDone,
	}))

	for _, want := range []domain.ProgressEvent{
		{SessionID: id, Artifact: "Communication Plan", Index: 1, Total: 5, Percent: 20, Status: domain.ProgressGenerated},
		{SessionID: id, Index: 5, Total: 5, Percent: 100, Status: domain.ProgressDone},
	} {
		frame := readFrame()
		require.True(t, strings.HasPrefix(frame, "event: progress\ndata: "), frame)
		var got domain.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(frame, "event: progress\ndata: "))), &got))
		assert.Equal(t, want, got)
	}

	// the handler returns after the done event
	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Empty(t, rest)
}
