// Package review runs external LLM plan reviews. Available providers
// (Gemini, OpenAI-compatible) review claude-plan.md concurrently and their
// analyses land as markdown files under <planning_dir>/reviews/.
package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/deepplan/internal/config"
	"github.com/mrz1836/deepplan/internal/constants"
	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

// Env resolves environment variables with DEEPPLAN_ override precedence:
// DEEPPLAN_<NAME> wins over <NAME>, so plugin users can scope credentials
// to this tool without disturbing their global environment.
type Env func(name string) string

// OSEnv returns an Env backed by the process environment.
func OSEnv() Env {
	return func(name string) string {
		if v := os.Getenv("DEEPPLAN_" + name); v != "" {
			return v
		}
		return os.Getenv(name)
	}
}

// Result is one provider's review outcome.
type Result struct {
	Success    bool   `json:"success"`
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	AuthMethod string `json:"auth_method,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	Analysis   string `json:"analysis,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Summary aggregates the whole review run.
type Summary struct {
	Reviews         map[string]Result `json:"reviews"`
	FilesWritten    []string          `json:"files_written"`
	GeminiAvailable bool              `json:"gemini_available"`
	OpenAIAvailable bool              `json:"openai_available"`
}

// AllFailed reports whether every attempted review failed.
func (s *Summary) AllFailed() bool {
	for _, r := range s.Reviews {
		if r.Success {
			return false
		}
	}
	return true
}

// provider is one review backend.
type provider interface {
	Name() string
	Review(ctx context.Context, prompts Prompts) Result
}

// Run reviews the plan in planningDir with every available provider.
// Providers run concurrently with a worker cap of 2; one provider failing
// does not abort the other, and the run errors only when no provider is
// available or configured at all.
func Run(ctx context.Context, planningDir string, session *config.Session, iteration int, env Env) (*Summary, error) {
	planPath := filepath.Join(planningDir, constants.PlanFileName)
	planContent, err := os.ReadFile(planPath) //#nosec G304 -- path is derived from the caller's planning dir
	if err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrPlanNotFound, planPath)
	}

	prompts, err := LoadPrompts(session.PluginRoot, string(planContent))
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Reviews:      make(map[string]Result),
		FilesWritten: []string{},
	}

	var providers []provider
	if gemini := newGeminiProvider(session, env); gemini != nil {
		providers = append(providers, gemini)
		summary.GeminiAvailable = true
	}
	if openai := newOpenAIProvider(session, env); openai != nil {
		providers = append(providers, openai)
		summary.OpenAIAvailable = true
	}
	if len(providers) == 0 {
		return nil, dperrors.ErrNoProvidersAvailable
	}

	results := make([]Result, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			results[i] = p.Review(gctx, prompts)
			return nil
		})
	}
	_ = g.Wait()

	reviewsDir := filepath.Join(planningDir, constants.ReviewsDirName)
	for _, result := range results {
		summary.Reviews[result.Provider] = result
		path, writeErr := writeReviewFile(reviewsDir, result.Provider, iteration, result)
		if writeErr != nil {
			return nil, writeErr
		}
		summary.FilesWritten = append(summary.FilesWritten, path)
	}

	return summary, nil
}

// writeReviewFile renders one provider's result as markdown under the
// reviews dir, named iteration-<n>-<provider>.md.
func writeReviewFile(reviewsDir, providerName string, iteration int, result Result) (string, error) {
	if err := os.MkdirAll(reviewsDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create reviews dir: %w", err)
	}

	path := filepath.Join(reviewsDir, fmt.Sprintf("iteration-%d-%s.md", iteration, providerName))
	title := strings.ToUpper(providerName[:1]) + providerName[1:]

	var content string
	if result.Success {
		model := result.Model
		if model == "" {
			model = "unknown"
		}
		content = fmt.Sprintf("# %s Review\n\n**Model:** %s\n**Generated:** %s\n\n---\n\n%s\n",
			title, model, time.Now().Format(time.RFC3339), result.Analysis)
	} else {
		errMsg := result.Error
		if errMsg == "" {
			errMsg = "unknown error"
		}
		content = fmt.Sprintf("# %s Review - FAILED\n\n**Error:** %s\n**Generated:** %s\n",
			title, errMsg, time.Now().Format(time.RFC3339))
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write review file: %w", err)
	}
	return path, nil
}
