package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "github.com/vibeocm/vibeocm-backend/internal/api/http"
	"github.com/vibeocm/vibeocm-backend/internal/analytics"
	"github.com/vibeocm/vibeocm-backend/internal/llm"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/repository"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/service"
)

type nopCompleter struct{}

func (nopCompleter) Complete(context.Context, llm.Request) (string, error) { return "ok", nil }

func TestOpenDB_RequiresDSN(t *testing.T) {
	_, err := OpenDB(context.Background(), DBOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestOpenRedis(t *testing.T) {
	t.Run("missing addr", func(t *testing.T) {
		_, err := OpenRedis(context.Background(), RedisOptions{})
		require.Error(t, err)
	})

	t.Run("reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := OpenRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
		require.NoError(t, err)
		assert.NoError(t, client.Close())
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		require.NoError(t, mr.Start())
		addr := mr.Addr()
		mr.Close()

		_, err := OpenRedis(context.Background(), RedisOptions{Addr: addr, PingTO: 200 * time.Millisecond})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis ping")
	})
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)
	SetGinMode("production")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}

func TestBuildRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client, err := OpenRedis(context.Background(), RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sessions := repository.NewSessionRepository(client, time.Hour)
	gen := service.NewGenerator(nopCompleter{}, analytics.Noop{}, service.GeneratorConfig{MaxTokens: 100})
	wizard := service.NewWizardService(sessions, repository.NoopArtifactRepository{}, gen, analytics.Noop{}, service.WizardConfig{})

	r := BuildRouter(RouterDeps{
		ServiceName: "vibeocm",
		Version:     "test",
		CORSOrigins: []string{"http://localhost:3000"},
		Flags:       httpapi.Flags{TrialAvailable: true},
		Wizard:      wizard,
		Redis:       sessions,
	})

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/env", http.StatusOK},
		{http.MethodGet, "/api/check-trial", http.StatusOK},
		{http.MethodPost, "/api/v1/sessions", http.StatusCreated},
		{http.MethodGet, "/api/v1/sessions/missing", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
