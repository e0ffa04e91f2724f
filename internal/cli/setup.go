package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/deepplan/internal/config"
	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
	"github.com/mrz1836/deepplan/internal/planning"
	"github.com/mrz1836/deepplan/internal/tasklist"
	"github.com/mrz1836/deepplan/internal/transcript"
	"github.com/mrz1836/deepplan/internal/workflow"
)

// setupOptions holds the setup command's flag values.
type setupOptions struct {
	File       string
	PluginRoot string
	ReviewMode string
	Force      bool
	SessionID  string
}

// setupResult is the success-path output of the setup command.
type setupResult struct {
	Success        bool     `json:"success"`
	Mode           string   `json:"mode"`
	PlanningDir    string   `json:"planning_dir"`
	InitialFile    string   `json:"initial_file"`
	PluginRoot     string   `json:"plugin_root"`
	ReviewMode     string   `json:"review_mode"`
	ResumeFromStep *int     `json:"resume_from_step"`
	Message        string   `json:"message"`
	FilesFound     []string `json:"files_found"`

	TaskListID       string `json:"task_list_id"`
	TaskListSource   string `json:"task_list_source"`
	SessionIDMatched *bool  `json:"session_id_matched"`
	TasksWritten     int    `json:"tasks_written"`

	TranscriptValidation *transcriptSummary `json:"transcript_validation"`
	TaskWriteError       string             `json:"task_write_error,omitempty"`
}

// transcriptSummary is the condensed transcript validation report included
// in a successful setup result.
type transcriptSummary struct {
	Valid             bool     `json:"valid"`
	LineCount         int      `json:"line_count"`
	UserMessages      int      `json:"user_messages"`
	AssistantMessages int      `json:"assistant_messages"`
	Warnings          []string `json:"warnings"`
}

// setupError is the output shape for spec-file and config failures.
type setupError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Mode    string `json:"mode"`
}

// transcriptFormatError is the output shape when the host transcript no
// longer matches our parsing assumptions.
type transcriptFormatError struct {
	Success      bool              `json:"success"`
	Mode         string            `json:"mode"`
	Error        string            `json:"error"`
	ErrorDetails transcriptDetails `json:"error_details"`
}

type transcriptDetails struct {
	Cause           string   `json:"cause"`
	TranscriptPath  string   `json:"transcript_path"`
	LineCount       int      `json:"line_count"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	Troubleshooting []string `json:"troubleshooting"`
}

// conflictResult is the output shape when a user-specified shared task list
// already holds foreign work and --force was not given.
type conflictResult struct {
	Success        bool                   `json:"success"`
	Mode           string                 `json:"mode"`
	PlanningDir    string                 `json:"planning_dir"`
	InitialFile    string                 `json:"initial_file"`
	PluginRoot     string                 `json:"plugin_root"`
	TaskListID     string                 `json:"task_list_id"`
	TaskListSource string                 `json:"task_list_source"`
	TasksWritten   int                    `json:"tasks_written"`
	Conflict       *tasklist.ConflictInfo `json:"conflict"`
	Message        string                 `json:"message"`
}

// noTaskListResult is the output shape when no task list ID is available.
type noTaskListResult struct {
	Success      bool           `json:"success"`
	Mode         string         `json:"mode"`
	PlanningDir  string         `json:"planning_dir"`
	InitialFile  string         `json:"initial_file"`
	PluginRoot   string         `json:"plugin_root"`
	Error        string         `json:"error"`
	ErrorDetails noTaskListInfo `json:"error_details"`
}

type noTaskListInfo struct {
	Cause           string   `json:"cause"`
	LikelyReason    string   `json:"likely_reason"`
	Troubleshooting []string `json:"troubleshooting"`
}

// AddSetupCommand adds the setup command to the parent command.
func AddSetupCommand(parent *cobra.Command) {
	opts := &setupOptions{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set up or resume a planning session",
		Long: `Setup validates the spec file, creates or loads the session config,
infers the resume point from planning-directory evidence, and writes the
reconciled task list directly to task storage.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "path to spec file (planning dir is its parent)")
	cmd.Flags().StringVar(&opts.PluginRoot, "plugin-root", "", "path to plugin root directory")
	cmd.Flags().StringVar(&opts.ReviewMode, "review-mode", string(constants.ReviewModeExternalLLM),
		"how plan review is performed (external_llm|opus_subagent|skip)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite a shared task list that has existing tasks")
	cmd.Flags().StringVar(&opts.SessionID, "session-id", "", "session ID from the hook's additionalContext")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("plugin-root")

	parent.AddCommand(cmd)
}

//nolint:gocognit,gocyclo,funlen // Mirrors the full setup pipeline in one pass
func runSetup(cmd *cobra.Command, opts *setupOptions) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	logger := GetLogger()

	if !constants.ReviewMode(opts.ReviewMode).IsValid() {
		return failResult(stdout, setupError{
			Error: fmt.Sprintf("Invalid review mode: %s", opts.ReviewMode),
			Mode:  "error",
		})
	}

	specPath, err := filepath.Abs(opts.File)
	if err != nil {
		specPath = opts.File
	}

	// Validate the transcript first so a format drift fails fast, before
	// any filesystem changes.
	var tv *transcriptSummary
	if transcriptPath := os.Getenv(constants.EnvTranscriptPath); transcriptPath != "" {
		validation := transcript.ValidateFormat(transcriptPath)
		if !validation.Valid {
			logger.Error().Str("transcript", transcriptPath).
				Strs("errors", validation.Errors).
				Msg("transcript format validation failed")
			return failResult(stdout, transcriptFormatError{
				Mode:  "transcript_format_error",
				Error: "Transcript format validation failed - host transcript format may have changed",
				ErrorDetails: transcriptDetails{
					Cause:          "Our parsing assumptions no longer match the actual transcript format",
					TranscriptPath: validation.TranscriptPath,
					LineCount:      validation.LineCount,
					Errors:         validation.Errors,
					Warnings:       validation.Warnings,
					Troubleshooting: []string{
						"Check if the host agent was updated recently",
						fmt.Sprintf("Examine transcript file manually: %s", transcriptPath),
						"Update the transcript validator and parsing code",
					},
				},
			})
		}
		tv = &transcriptSummary{
			Valid:             true,
			LineCount:         validation.LineCount,
			UserMessages:      validation.UserMessages,
			AssistantMessages: validation.AssistantMessages,
			Warnings:          validation.Warnings,
		}
	}

	info, err := os.Stat(specPath)
	switch {
	case os.IsNotExist(err):
		return failResult(stdout, setupError{
			Error: fmt.Sprintf("Spec file not found: %s", specPath),
			Mode:  "error",
		})
	case err != nil:
		return failResult(stdout, setupError{
			Error: fmt.Sprintf("Cannot read spec file: %s", err),
			Mode:  "error",
		})
	case info.IsDir():
		return failResult(stdout, setupError{
			Error: fmt.Sprintf("Expected a spec file, got a directory: %s", specPath),
			Mode:  "error",
		})
	case info.Size() == 0:
		return failResult(stdout, setupError{
			Error: fmt.Sprintf("Spec file is empty: %s", specPath),
			Mode:  "error",
		})
	}

	// The planning dir is always the parent of the spec file.
	planningDir := filepath.Dir(specPath)

	tlc := tasklist.ResolveContext(opts.SessionID, os.Getenv)
	logger.Debug().
		Str("task_list_id", tlc.TaskListID).
		Str("source", string(tlc.Source)).
		Msg("resolved task list context")

	store, err := tasklist.NewStore(os.Getenv(constants.EnvTasksRoot))
	if err != nil {
		return failResult(stdout, setupError{
			Error: fmt.Sprintf("Task storage unavailable: %s", err),
			Mode:  "error",
		})
	}

	// Conflict check happens before any work so a shared list is never
	// touched without explicit consent.
	if tlc.TaskListID != "" && tlc.IsUserSpecified && !opts.Force {
		current, readErr := store.ReadCurrent(ctx, tlc.TaskListID)
		if readErr != nil {
			return failResult(stdout, setupError{
				Error: fmt.Sprintf("Cannot read task list: %s", readErr),
				Mode:  "error",
			})
		}
		if conflict := tasklist.CheckForConflict(tlc, current); conflict != nil {
			return failResult(stdout, conflictResult{
				Mode:           "conflict",
				PlanningDir:    planningDir,
				InitialFile:    specPath,
				PluginRoot:     opts.PluginRoot,
				TaskListID:     tlc.TaskListID,
				TaskListSource: string(tlc.Source),
				Conflict:       conflict,
				Message: fmt.Sprintf("%s has %d existing tasks. Use --force to overwrite.",
					constants.EnvUserTaskListID, conflict.ExistingTaskCount),
			})
		}
	}

	session, created, err := config.GetOrCreateSession(planningDir, opts.PluginRoot, specPath, opts.ReviewMode)
	if err != nil {
		return failResult(stdout, setupError{
			Error: fmt.Sprintf("Session config error: %s", err),
			Mode:  "error",
		})
	}

	// New sessions store the CLI review mode; resumed sessions keep the
	// stored value so mid-workflow flag changes cannot flip the mode.
	reviewMode := opts.ReviewMode
	if !created && session.ReviewMode != "" {
		reviewMode = session.ReviewMode
	}

	files := planning.Scan(planningDir)
	progress := planning.CheckProgress(planningDir)
	resumeStep, lastCompleted := planning.InferResumeStep(files, progress)
	filesSummary := files.Summary(progress)

	var mode string
	switch {
	case resumeStep == planning.ResumeComplete:
		mode = "complete"
	case resumeStep == constants.FirstWorkflowStep && len(filesSummary) == 0:
		mode = "new"
	default:
		mode = "resume"
	}

	var message string
	switch mode {
	case "resume":
		stepName, ok := workflow.StepNames[resumeStep]
		if !ok {
			stepName = fmt.Sprintf("Step %d", resumeStep)
		}
		message = fmt.Sprintf("Resuming from step %d (%s). Last completed: %s", resumeStep, stepName, lastCompleted)
	case "complete":
		message = "Planning workflow complete - all sections written"
	default:
		message = fmt.Sprintf("Starting new planning session in: %s", planningDir)
	}

	logger.Info().Str("mode", mode).Int("resume_step", resumeStep).Msg(message)

	currentStep := resumeStep
	if resumeStep == planning.ResumeComplete {
		currentStep = constants.LastWorkflowStep
	}

	params := workflow.SessionParams{
		PluginRoot:  opts.PluginRoot,
		PlanningDir: planningDir,
		InitialFile: specPath,
		ReviewMode:  constants.ReviewMode(reviewMode),
	}
	expected := workflow.GenerateExpectedTasks(currentStep, params)

	var set workflow.SectionTaskSet
	if files.SectionsIndex {
		set = workflow.GenerateSectionTasks(progress, constants.SectionInsertPosition)
	}
	sectionCount := set.Count()
	useSectionInsert := files.SectionsIndex && sectionCount > 0

	positions := workflow.CalculatePositions(sectionCount)
	for id, pos := range set.Positions {
		positions[id] = pos
	}

	// Fixed backbone up to the insert point; the full backbone when no
	// section tasks replace the write-sections placeholder.
	stopPosition := domain.Position(constants.LastWorkflowStep - 1)
	if useSectionInsert {
		stopPosition = constants.SectionInsertPosition - 1
	}

	var tasks []domain.Task
	for i, exp := range expected {
		position := domain.Position(i + 1)
		if position > stopPosition {
			break
		}
		status := exp.Status
		// Generate-section-tasks is done once section tasks are being
		// spliced in; its position must not read in_progress.
		if useSectionInsert && position == constants.SectionInsertPosition-1 {
			status = constants.TaskStatusCompleted
		}
		tasks = append(tasks, domain.Task{
			Position:    position,
			Subject:     exp.Subject,
			Description: exp.Description,
			ActiveForm:  exp.ActiveForm,
			Status:      status,
		})
	}

	allDeps := make(map[domain.SemanticID][]domain.SemanticID, len(workflow.Dependencies)+len(set.Dependencies))
	for id, deps := range workflow.Dependencies {
		allDeps[id] = deps
	}

	if useSectionInsert {
		tasks = append(tasks, set.Tasks...)

		for _, id := range []domain.SemanticID{"final-verification", "output-summary"} {
			def := workflow.Definitions[id]
			tasks = append(tasks, domain.Task{
				Position:    positions[id],
				Subject:     def.Subject,
				Description: def.Description,
				ActiveForm:  def.ActiveForm,
				Status:      constants.TaskStatusPending,
			})
		}

		for id, deps := range set.Dependencies {
			allDeps[id] = deps
		}
		for id, deps := range workflow.ShiftedDependencies(set.NumBatches) {
			allDeps[id] = deps
		}
	}

	graph := tasklist.BuildDependencyGraph(tasks, allDeps, positions)

	if tlc.TaskListID == "" {
		return failResult(stdout, noTaskListResult{
			Mode:        "no_task_list",
			PlanningDir: planningDir,
			InitialFile: specPath,
			PluginRoot:  opts.PluginRoot,
			Error:       "No task list ID available. Cannot write tasks.",
			ErrorDetails: noTaskListInfo{
				Cause: fmt.Sprintf("Neither %s nor %s is set.",
					constants.EnvUserTaskListID, constants.EnvSessionID),
				LikelyReason: "The SessionStart hook did not run or failed to capture the session ID.",
				Troubleshooting: []string{
					"1. Verify the plugin is loaded: check that the deep-plan skill is available",
					"2. Check hooks/hooks.json exists in the plugin directory",
					"3. Try starting a fresh session (the hook runs on session start)",
				},
			},
		})
	}

	tasksWritten := 0
	taskWriteError := ""
	writeResult, err := store.WriteTasks(ctx, tlc.TaskListID, tasks, graph)
	if err != nil {
		taskWriteError = err.Error()
		logger.Error().Err(err).Msg("task write failed")
	} else {
		tasksWritten = writeResult.TasksWritten
		logger.Debug().Int("tasks_written", tasksWritten).Str("dir", writeResult.TasksDir).Msg("tasks written")
	}

	var resumeFrom *int
	if resumeStep != planning.ResumeComplete {
		resumeFrom = &resumeStep
	}

	if filesSummary == nil {
		filesSummary = []string{}
	}

	return printResult(stdout, setupResult{
		Success:              true,
		Mode:                 mode,
		PlanningDir:          planningDir,
		InitialFile:          specPath,
		PluginRoot:           opts.PluginRoot,
		ReviewMode:           reviewMode,
		ResumeFromStep:       resumeFrom,
		Message:              message,
		FilesFound:           filesSummary,
		TaskListID:           tlc.TaskListID,
		TaskListSource:       string(tlc.Source),
		SessionIDMatched:     tlc.SessionIDMatched,
		TasksWritten:         tasksWritten,
		TranscriptValidation: tv,
		TaskWriteError:       taskWriteError,
	})
}
