package workflow

import (
	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
)

// CalculatePositions computes the semantic-ID to position mapping for a run
// with the given number of generated section tasks (batches + sections).
//
// Layout:
//   - Positions 1-4: context tasks (fixed)
//   - Positions 5-18: workflow steps 6-19 (position = step - 1, fixed)
//   - Position 19+: either the write-sections placeholder, or the generated
//     batch/section tasks spliced in at the insert position
//   - final-verification / output-summary: 20/21 when no sections, otherwise
//     pushed to 19+count and 19+count+1
//
// When sectionTaskCount > 0 the write-sections placeholder is omitted from
// the mapping entirely — it is replaced by the generated tasks. This is THE
// single shifting rule; every call site that needs positions must go through
// this function, because two call sites disagreeing about the same count
// silently miswires dependency edges.
func CalculatePositions(sectionTaskCount int) map[domain.SemanticID]domain.Position {
	positions := make(map[domain.SemanticID]domain.Position, len(StepIDs)+constants.ContextTaskCount)

	for i, id := range ContextTaskIDs {
		positions[id] = domain.Position(i + 1)
	}

	// Steps 6-19 occupy positions 5-18 regardless of section count.
	for _, step := range SortedSteps() {
		if step <= constants.StepGenerateSectionTasks {
			positions[StepIDs[step]] = domain.Position(step - 1)
		}
	}

	if sectionTaskCount == 0 {
		positions["write-sections"] = constants.SectionInsertPosition
		positions["final-verification"] = constants.SectionInsertPosition + 1
		positions["output-summary"] = constants.SectionInsertPosition + 2
		return positions
	}

	positions["final-verification"] = domain.Position(constants.SectionInsertPosition + sectionTaskCount)
	positions["output-summary"] = domain.Position(constants.SectionInsertPosition + sectionTaskCount + 1)
	return positions
}
