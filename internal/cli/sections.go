package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
	"github.com/mrz1836/deepplan/internal/planning"
	"github.com/mrz1836/deepplan/internal/tasklist"
	"github.com/mrz1836/deepplan/internal/workflow"
)

// sectionStats summarizes section progress counts.
type sectionStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Missing   int `json:"missing"`
}

// sectionsResult is the output of the sections command.
type sectionsResult struct {
	TaskListID       string       `json:"task_list_id"`
	TaskListSource   string       `json:"task_list_source"`
	SessionIDMatched *bool        `json:"session_id_matched"`
	State            string       `json:"state"`
	Success          bool         `json:"success"`
	Error            string       `json:"error"`
	TasksWritten     int          `json:"tasks_written"`
	Stats            sectionStats `json:"stats"`
	Message          string       `json:"message,omitempty"`
}

// AddSectionsCommand adds the sections command to the parent command.
func AddSectionsCommand(parent *cobra.Command) {
	var planningDir, sessionID string

	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Generate and write section tasks from the section index",
		Long: `Sections reads the manifest from sections/index.md, generates one batch
task per group of sections plus one task per section, splices them into the
task list at the insert position, and shifts the trailing fixed tasks.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSections(cmd, planningDir, sessionID)
		},
	}

	cmd.Flags().StringVar(&planningDir, "planning-dir", "", "path to planning directory")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session ID from the hook's additionalContext")
	_ = cmd.MarkFlagRequired("planning-dir")

	parent.AddCommand(cmd)
}

func runSections(cmd *cobra.Command, planningDir, sessionID string) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	logger := GetLogger()

	tlc := tasklist.ResolveContext(sessionID, os.Getenv)
	progress := planning.CheckProgress(planningDir)

	base := sectionsResult{
		TaskListID:       tlc.TaskListID,
		TaskListSource:   string(tlc.Source),
		SessionIDMatched: tlc.SessionIDMatched,
		State:            string(progress.State),
		Stats: sectionStats{
			Total:     len(progress.DefinedSections),
			Completed: len(progress.CompletedSections),
			Missing:   len(progress.MissingSections),
		},
	}

	switch progress.State {
	case constants.SectionStateFresh:
		base.Error = "No sections/index.md found. Create the section index first (step 18)."
		return failResult(stdout, base)

	case constants.SectionStateInvalidIndex:
		base.Error = fmt.Sprintf("Invalid index.md: %s", progress.ParseError)
		return failResult(stdout, base)

	case constants.SectionStateComplete:
		base.Success = true
		base.Message = "All sections already complete. No tasks to write."
		return printResult(stdout, base)
	}

	if tlc.TaskListID == "" {
		base.Error = fmt.Sprintf("No %s available. Session hook may not have run.", constants.EnvSessionID)
		return failResult(stdout, base)
	}

	set := workflow.GenerateSectionTasks(progress, constants.SectionInsertPosition)
	if set.Count() == 0 {
		base.Success = true
		base.Message = "No section tasks to write."
		return printResult(stdout, base)
	}

	positions := workflow.CalculatePositions(set.Count())
	for id, pos := range set.Positions {
		positions[id] = pos
	}

	// The sections command only rewrites the tail of the list: the spliced
	// section tasks plus the shifted trailing fixed tasks. Its position map
	// needs the upstream anchors so batch-1's edge resolves.
	positions["create-section-index"] = constants.SectionInsertPosition - 2
	positions["generate-section-tasks"] = constants.SectionInsertPosition - 1

	tasks := make([]domain.Task, 0, set.Count()+2)
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

	allDeps := make(map[domain.SemanticID][]domain.SemanticID, len(set.Dependencies)+6)
	for id, deps := range set.Dependencies {
		allDeps[id] = deps
	}
	for id, deps := range workflow.ShiftedDependencies(set.NumBatches) {
		allDeps[id] = deps
	}

	graph := tasklist.BuildDependencyGraph(tasks, allDeps, positions)

	store, err := tasklist.NewStore(os.Getenv(constants.EnvTasksRoot))
	if err != nil {
		base.Error = fmt.Sprintf("Task storage unavailable: %s", err)
		return failResult(stdout, base)
	}

	writeResult, err := store.WriteTasks(ctx, tlc.TaskListID, tasks, graph)
	if err != nil {
		logger.Error().Err(err).Msg("section task write failed")
		base.Error = err.Error()
		return failResult(stdout, base)
	}

	logger.Info().Int("tasks_written", writeResult.TasksWritten).Msg("section tasks written")

	base.Success = true
	base.TasksWritten = writeResult.TasksWritten
	base.Message = fmt.Sprintf("%d section tasks written. Run TaskList to see them.", writeResult.TasksWritten)
	return printResult(stdout, base)
}
