package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
)

func TestCalculatePositionsNoSections(t *testing.T) {
	t.Parallel()

	positions := CalculatePositions(0)

	assert.Equal(t, domain.Position(1), positions[ContextPluginRoot])
	assert.Equal(t, domain.Position(4), positions[ContextReviewMode])
	assert.Equal(t, domain.Position(5), positions["research-decision"])
	assert.Equal(t, domain.Position(17), positions["create-section-index"])
	assert.Equal(t, domain.Position(18), positions["generate-section-tasks"])
	assert.Equal(t, domain.Position(19), positions["write-sections"])
	assert.Equal(t, domain.Position(20), positions["final-verification"])
	assert.Equal(t, domain.Position(21), positions["output-summary"])
}

func TestCalculatePositionsWithSections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		sectionTaskCount int
		wantFinalVer     domain.Position
		wantSummary      domain.Position
	}{
		{"single batch of three", 4, 23, 24},         // 1 batch + 3 sections
		{"full batch", 8, 27, 28},                    // 1 batch + 7 sections
		{"two batches of ten sections", 12, 31, 32},  // 2 batches + 10 sections
		{"three batches of fifteen", 18, 37, 38},     // 3 batches + 15 sections
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			positions := CalculatePositions(tt.sectionTaskCount)

			assert.Equal(t, tt.wantFinalVer, positions["final-verification"])
			assert.Equal(t, tt.wantSummary, positions["output-summary"])

			// The placeholder is replaced, not kept alongside.
			_, hasPlaceholder := positions["write-sections"]
			assert.False(t, hasPlaceholder)

			// The fixed backbone never moves.
			assert.Equal(t, domain.Position(18), positions["generate-section-tasks"])
		})
	}
}

func TestCalculatePositionsShiftProperty(t *testing.T) {
	t.Parallel()

	// final-verification always lands directly after the last generated
	// task; output-summary directly after that.
	for count := 1; count <= 40; count++ {
		positions := CalculatePositions(count)
		wantFinal := constants.SectionInsertPosition + domain.Position(count)
		require.Equal(t, wantFinal, positions["final-verification"], "count=%d", count)
		require.Equal(t, wantFinal+1, positions["output-summary"], "count=%d", count)
	}
}

func TestGenerateExpectedTasksStatuses(t *testing.T) {
	t.Parallel()

	params := SessionParams{
		PluginRoot:  "/plugin",
		PlanningDir: "/plan",
		InitialFile: "/plan/spec.md",
		ReviewMode:  constants.ReviewModeExternalLLM,
	}

	expected := GenerateExpectedTasks(11, params)
	require.Len(t, expected, constants.ContextTaskCount+len(SortedSteps()))

	// Context tasks stay pending for the whole run.
	for i := 0; i < constants.ContextTaskCount; i++ {
		assert.Equal(t, constants.TaskStatusPending, expected[i].Status)
	}
	assert.Equal(t, "plugin_root=/plugin", expected[0].Subject)
	assert.Equal(t, "review_mode=external_llm", expected[3].Subject)

	for _, task := range expected[constants.ContextTaskCount:] {
		var step int
		for s, id := range StepIDs {
			if id == task.ID {
				step = s
				break
			}
		}
		switch {
		case step < 11:
			assert.Equal(t, constants.TaskStatusCompleted, task.Status, "step %d", step)
		case step == 11:
			assert.Equal(t, constants.TaskStatusInProgress, task.Status, "step %d", step)
		default:
			assert.Equal(t, constants.TaskStatusPending, task.Status, "step %d", step)
		}
	}
}

func TestDependenciesFormLinearChain(t *testing.T) {
	t.Parallel()

	// Every workflow step except the first is blocked by exactly the
	// previous step.
	steps := SortedSteps()
	for i, step := range steps {
		id := StepIDs[step]
		deps := Dependencies[id]
		if i == 0 {
			assert.Empty(t, deps)
			continue
		}
		require.Len(t, deps, 1, "step %d", step)
		assert.Equal(t, StepIDs[steps[i-1]], deps[0], "step %d", step)
	}

	for _, ctx := range ContextTaskIDs {
		assert.Equal(t, []domain.SemanticID{"output-summary"}, Dependencies[ctx])
	}
}
