package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/deepplan/internal/config"
	dperrors "github.com/mrz1836/deepplan/internal/errors"
	"github.com/mrz1836/deepplan/internal/review"
)

// reviewError is the output shape when the review run cannot start.
type reviewError struct {
	Error string `json:"error"`
}

// AddReviewCommand adds the review command to the parent command.
func AddReviewCommand(parent *cobra.Command) {
	var planningDir string
	var iteration int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run external LLM reviews of the implementation plan",
		Long: `Review sends the implementation plan to every available LLM provider
(Gemini, OpenAI) concurrently and writes each analysis to the reviews
directory. The command fails only when every attempted provider fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReview(cmd, planningDir, iteration)
		},
	}

	cmd.Flags().StringVar(&planningDir, "planning-dir", "", "path to planning directory")
	cmd.Flags().IntVar(&iteration, "iteration", 1, "review iteration number")
	_ = cmd.MarkFlagRequired("planning-dir")

	parent.AddCommand(cmd)
}

func runReview(cmd *cobra.Command, planningDir string, iteration int) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	logger := GetLogger()

	session, err := config.LoadSession(planningDir)
	if err != nil {
		return failResult(stdout, reviewError{
			Error: fmt.Sprintf("Session config error: %s", err),
		})
	}

	summary, err := review.Run(ctx, planningDir, session, iteration, review.OSEnv())
	if err != nil {
		if errors.Is(err, dperrors.ErrNoProvidersAvailable) {
			return failResult(stdout, reviewError{Error: "No LLM providers available"})
		}
		return failResult(stdout, reviewError{Error: err.Error()})
	}

	logger.Info().
		Int("providers", len(summary.Reviews)).
		Int("files_written", len(summary.FilesWritten)).
		Msg("review run finished")

	if summary.AllFailed() {
		return failResult(stdout, summary)
	}
	return printResult(stdout, summary)
}
