package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/deepplan/internal/config"
	"github.com/mrz1836/deepplan/internal/constants"
	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

// testSession builds a session config with fast retry settings.
func testSession(t *testing.T, pluginRoot string) *config.Session {
	t.Helper()

	return &config.Session{
		Global: config.Global{
			Models: config.ModelsConfig{Gemini: "gemini-test", ChatGPT: "gpt-test"},
			LLMClient: config.LLMClientConfig{
				MaxRetries:     1,
				RetryCodes:     []int{429, 500, 502, 503, 504},
				TimeoutSeconds: 5,
			},
		},
		PluginRoot: pluginRoot,
	}
}

// pluginRootFixture creates a plugin root with reviewer prompts.
func pluginRootFixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "prompts", "plan_reviewer")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.md"), []byte("You are a plan reviewer."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.md"), []byte("Review this plan:\n\n{PLAN_CONTENT}"), 0o600))
	return root
}

// planningDirFixture creates a planning dir containing a plan file.
func planningDirFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.PlanFileName), []byte("# Plan\n\ndo things"), 0o600))
	return dir
}

// envMap builds an Env from a fixed map.
func envMap(values map[string]string) Env {
	return func(name string) string { return values[name] }
}

func TestLoadPrompts(t *testing.T) {
	t.Parallel()

	t.Run("fills plan content", func(t *testing.T) {
		t.Parallel()

		prompts, err := LoadPrompts(pluginRootFixture(t), "PLAN BODY")
		require.NoError(t, err)
		assert.Equal(t, "You are a plan reviewer.", prompts.System)
		assert.Contains(t, prompts.User, "PLAN BODY")
		assert.NotContains(t, prompts.User, "{PLAN_CONTENT}")
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()

		_, err := LoadPrompts(t.TempDir(), "plan")
		require.ErrorIs(t, err, dperrors.ErrPromptTemplateNotFound)
	})
}

func TestCallWithRetry(t *testing.T) {
	t.Parallel()

	cfg := config.LLMClientConfig{MaxRetries: 3, RetryCodes: []int{429, 503}}

	t.Run("retries allow-listed status until success", func(t *testing.T) {
		t.Parallel()

		var calls int
		result, err := callWithRetry(context.Background(), cfg, func() (string, error) {
			calls++
			if calls < 3 {
				return "", &httpStatusError{StatusCode: 429, Body: "rate limited"}
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-listed status fails immediately", func(t *testing.T) {
		t.Parallel()

		var calls int
		_, err := callWithRetry(context.Background(), cfg, func() (string, error) {
			calls++
			return "", &httpStatusError{StatusCode: 401, Body: "unauthorized"}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("non-http error fails immediately", func(t *testing.T) {
		t.Parallel()

		var calls int
		_, err := callWithRetry(context.Background(), cfg, func() (string, error) {
			calls++
			return "", assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausted retries return last error", func(t *testing.T) {
		t.Parallel()

		var calls int
		_, err := callWithRetry(context.Background(), cfg, func() (string, error) {
			calls++
			return "", &httpStatusError{StatusCode: 503, Body: "unavailable"}
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no providers configured", func(t *testing.T) {
		t.Parallel()

		_, err := Run(context.Background(), planningDirFixture(t), testSession(t, pluginRootFixture(t)), 1, envMap(nil))
		require.ErrorIs(t, err, dperrors.ErrNoProvidersAvailable)
	})

	t.Run("missing plan file", func(t *testing.T) {
		t.Parallel()

		_, err := Run(context.Background(), t.TempDir(), testSession(t, pluginRootFixture(t)), 1, envMap(nil))
		require.ErrorIs(t, err, dperrors.ErrPlanNotFound)
	})

	t.Run("both providers run and write files", func(t *testing.T) {
		t.Parallel()

		var geminiCalls, openaiCalls atomic.Int32

		geminiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			geminiCalls.Add(1)
			_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "gemini analysis"}]}}]}`))
		}))
		defer geminiSrv.Close()

		openaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			openaiCalls.Add(1)
			_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "openai analysis"}}]}`))
		}))
		defer openaiSrv.Close()

		env := envMap(map[string]string{
			"GEMINI_API_KEY":  "test-key",
			"GEMINI_BASE_URL": geminiSrv.URL,
			"OPENAI_API_KEY":  "test-key",
			"OPENAI_BASE_URL": openaiSrv.URL,
		})

		planningDir := planningDirFixture(t)
		summary, err := Run(context.Background(), planningDir, testSession(t, pluginRootFixture(t)), 2, env)
		require.NoError(t, err)

		assert.True(t, summary.GeminiAvailable)
		assert.True(t, summary.OpenAIAvailable)
		assert.False(t, summary.AllFailed())
		assert.Equal(t, int32(1), geminiCalls.Load())
		assert.Equal(t, int32(1), openaiCalls.Load())

		require.Len(t, summary.Reviews, 2)
		assert.Equal(t, "gemini analysis", summary.Reviews["gemini"].Analysis)
		assert.Equal(t, "openai analysis", summary.Reviews["openai"].Analysis)

		require.Len(t, summary.FilesWritten, 2)
		for _, path := range summary.FilesWritten {
			assert.FileExists(t, path)
		}
		assert.FileExists(t, filepath.Join(planningDir, constants.ReviewsDirName, "iteration-2-gemini.md"))
		assert.FileExists(t, filepath.Join(planningDir, constants.ReviewsDirName, "iteration-2-openai.md"))
	})

	t.Run("one provider failing does not abort the other", func(t *testing.T) {
		t.Parallel()

		geminiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "bad key"}`))
		}))
		defer geminiSrv.Close()

		openaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "still fine"}}]}`))
		}))
		defer openaiSrv.Close()

		env := envMap(map[string]string{
			"GEMINI_API_KEY":  "bad-key",
			"GEMINI_BASE_URL": geminiSrv.URL,
			"OPENAI_API_KEY":  "test-key",
			"OPENAI_BASE_URL": openaiSrv.URL,
		})

		summary, err := Run(context.Background(), planningDirFixture(t), testSession(t, pluginRootFixture(t)), 1, env)
		require.NoError(t, err)

		assert.False(t, summary.Reviews["gemini"].Success)
		assert.NotEmpty(t, summary.Reviews["gemini"].Error)
		assert.True(t, summary.Reviews["openai"].Success)
		assert.False(t, summary.AllFailed())
	})

	t.Run("all providers failing is reported", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		env := envMap(map[string]string{
			"GEMINI_API_KEY":  "bad",
			"GEMINI_BASE_URL": srv.URL,
			"OPENAI_API_KEY":  "bad",
			"OPENAI_BASE_URL": srv.URL,
		})

		summary, err := Run(context.Background(), planningDirFixture(t), testSession(t, pluginRootFixture(t)), 1, env)
		require.NoError(t, err)
		assert.True(t, summary.AllFailed())
	})
}
