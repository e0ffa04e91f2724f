package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/deepplan/internal/config"
)

// contextPromptOption is one choice offered to the user by the context
// prompt.
type contextPromptOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// contextPrompt is the message and options the host agent presents.
type contextPrompt struct {
	Message string                `json:"message"`
	Options []contextPromptOption `json:"options"`
}

// contextCheckResult is the output of the context-check command.
type contextCheckResult struct {
	Action       string         `json:"action"`
	Reason       string         `json:"reason"`
	CheckEnabled bool           `json:"check_enabled"`
	Prompt       *contextPrompt `json:"prompt,omitempty"`
}

// AddContextCheckCommand adds the context-check command to the parent
// command.
func AddContextCheckCommand(parent *cobra.Command) {
	var planningDir, upcomingOperation string

	cmd := &cobra.Command{
		Use:   "context-check",
		Short: "Decide whether to prompt about context before a heavy operation",
		Long: `Context-check reads the session config toggle and returns either a prompt
action with the message to present, or a skip action. Any config error
defaults to prompting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runContextCheck(cmd, planningDir, upcomingOperation)
		},
	}

	cmd.Flags().StringVar(&planningDir, "planning-dir", "", "path to planning directory")
	cmd.Flags().StringVar(&upcomingOperation, "upcoming-operation", "", "name of the upcoming operation")
	_ = cmd.MarkFlagRequired("planning-dir")
	_ = cmd.MarkFlagRequired("upcoming-operation")

	parent.AddCommand(cmd)
}

func runContextCheck(cmd *cobra.Command, planningDir, upcomingOperation string) error {
	stdout := cmd.OutOrStdout()

	prompt := &contextPrompt{
		Message: fmt.Sprintf(
			"Context check before: %s\n\n"+
				"Note: Compaction (manual or auto) may cause workflow instruction loss. "+
				"If the agent gets confused after compacting, /clear + re-run /deep-plan is the cleanest recovery - "+
				"your progress is preserved in planning files.",
			upcomingOperation),
		Options: []contextPromptOption{
			{
				Label:       "Continue",
				Description: "Proceed with current context (auto-compact triggers at ~95% if needed)",
			},
			{
				Label:       "/clear + re-run",
				Description: "Cleanest recovery if context is critical - fresh window with file-based resume",
			},
		},
	}

	session, err := config.LoadSession(planningDir)
	if err != nil {
		// A broken config must not silently disable the check.
		return printResult(stdout, contextCheckResult{
			Action:       "prompt",
			Reason:       fmt.Sprintf("Config error (%s), defaulting to prompt", err),
			CheckEnabled: true,
			Prompt:       prompt,
		})
	}

	if !session.Context.CheckEnabled {
		return printResult(stdout, contextCheckResult{
			Action:       "skip",
			Reason:       "Context prompts disabled in config",
			CheckEnabled: false,
		})
	}

	return printResult(stdout, contextCheckResult{
		Action:       "prompt",
		Reason:       "Context prompts enabled",
		CheckEnabled: true,
		Prompt:       prompt,
	})
}
