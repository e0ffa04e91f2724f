package workflow

import (
	"fmt"

	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
)

// SessionParams carries the per-session values shown in context task
// subjects. They are threaded explicitly from the CLI — deep logic never
// reads them from the environment.
type SessionParams struct {
	PluginRoot  string
	PlanningDir string
	InitialFile string
	ReviewMode  constants.ReviewMode
}

// ExpectedTask is one entry of the expected task list, still addressed by
// semantic ID. Reconciliation translates the ordered list to positions.
type ExpectedTask struct {
	ID          domain.SemanticID
	Subject     string
	Description string
	ActiveForm  string
	Status      constants.TaskStatus
	BlockedBy   []domain.SemanticID
}

// ContextTasks creates the four context pseudo-tasks with session parameter
// values in their subject fields. All are blocked by output-summary so they
// stay pending until the workflow ends — a deliberate UX choice keeping
// session parameters inspectable for the whole run.
func ContextTasks(params SessionParams) []ExpectedTask {
	items := []struct {
		id    domain.SemanticID
		value string
	}{
		{ContextPluginRoot, fmt.Sprintf("plugin_root=%s", params.PluginRoot)},
		{ContextPlanningDir, fmt.Sprintf("planning_dir=%s", params.PlanningDir)},
		{ContextInitialFile, fmt.Sprintf("initial_file=%s", params.InitialFile)},
		{ContextReviewMode, fmt.Sprintf("review_mode=%s", params.ReviewMode)},
	}

	tasks := make([]ExpectedTask, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, ExpectedTask{
			ID:          item.id,
			Subject:     item.value,
			Description: "Session context item",
			ActiveForm:  "Context",
			Status:      constants.TaskStatusPending,
			BlockedBy:   Dependencies[item.id],
		})
	}
	return tasks
}

// GenerateExpectedTasks returns the full expected task list for a session:
// the four context tasks followed by every workflow task in step order.
// Status derives from resumeStep (itself inferred from file evidence):
// steps before it are completed, the step equal to it is in_progress, steps
// after are pending. Context tasks are always pending.
func GenerateExpectedTasks(resumeStep int, params SessionParams) []ExpectedTask {
	expected := ContextTasks(params)

	for _, step := range SortedSteps() {
		id := StepIDs[step]
		def := Definitions[id]

		var status constants.TaskStatus
		switch {
		case step < resumeStep:
			status = constants.TaskStatusCompleted
		case step == resumeStep:
			status = constants.TaskStatusInProgress
		default:
			status = constants.TaskStatusPending
		}

		expected = append(expected, ExpectedTask{
			ID:          id,
			Subject:     def.Subject,
			Description: def.Description,
			ActiveForm:  def.ActiveForm,
			Status:      status,
			BlockedBy:   Dependencies[id],
		})
	}

	return expected
}
