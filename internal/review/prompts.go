package review

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

// Prompts carries the rendered reviewer prompts. The system prompt frames
// the reviewer role; the user prompt embeds the plan content.
type Prompts struct {
	System string
	User   string
}

// LoadPrompts reads the plan-reviewer prompt pair from the plugin root
// (prompts/plan_reviewer/{system,user}.md) and fills the {PLAN_CONTENT}
// placeholder in the user template.
func LoadPrompts(pluginRoot, planContent string) (Prompts, error) {
	dir := filepath.Join(pluginRoot, "prompts", "plan_reviewer")

	system, err := readPromptFile(filepath.Join(dir, "system.md"))
	if err != nil {
		return Prompts{}, err
	}
	userTemplate, err := readPromptFile(filepath.Join(dir, "user.md"))
	if err != nil {
		return Prompts{}, err
	}

	return Prompts{
		System: system,
		User:   strings.ReplaceAll(userTemplate, "{PLAN_CONTENT}", planContent),
	}, nil
}

func readPromptFile(path string) (string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is derived from the caller's plugin root
	if err != nil {
		return "", fmt.Errorf("%w: %s", dperrors.ErrPromptTemplateNotFound, path)
	}
	return strings.TrimSpace(string(data)), nil
}
