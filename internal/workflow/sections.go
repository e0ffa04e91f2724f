package workflow

import (
	"fmt"

	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
	"github.com/mrz1836/deepplan/internal/planning"
)

// SectionTaskSet is the result of generating batch and section tasks for
// the current manifest: the positioned tasks, their semantic dependencies,
// and the batch count needed to wire the shifted trailing tasks.
type SectionTaskSet struct {
	// Tasks holds batch and section tasks in position order.
	Tasks []domain.Task

	// Dependencies maps each generated task's semantic ID to the semantic
	// IDs blocking it.
	Dependencies map[domain.SemanticID][]domain.SemanticID

	// Positions maps each generated task's semantic ID to its position,
	// for merging into the run's position map.
	Positions map[domain.SemanticID]domain.Position

	// NumBatches is the number of batch coordination tasks generated.
	NumBatches int
}

// Count returns the total number of generated tasks (batches + sections).
func (s SectionTaskSet) Count() int {
	return len(s.Tasks)
}

// BatchID returns the semantic ID of batch n (1-indexed).
func BatchID(n int) domain.SemanticID {
	return domain.SemanticID(fmt.Sprintf("batch-%d", n))
}

// SectionID returns the semantic ID of the section task at a position.
// Section tasks have no stable cross-run name, so the position doubles as
// the semantic ID for this run only.
func SectionID(pos domain.Position) domain.SemanticID {
	return domain.SemanticID(fmt.Sprintf("section-%d", pos))
}

// NumBatches returns how many batches cover n sections.
func NumBatches(n int) int {
	return (n + constants.BatchSize - 1) / constants.BatchSize
}

// BatchSections returns the slice of defined sections belonging to batch n
// (1-indexed). Batch membership depends only on manifest order: completing
// sections never renumbers batches.
func BatchSections(defined []string, batchNum int) []string {
	start := (batchNum - 1) * constants.BatchSize
	if start >= len(defined) {
		return nil
	}
	end := start + constants.BatchSize
	if end > len(defined) {
		end = len(defined)
	}
	return defined[start:end]
}

// GenerateSectionTasks generates one batch coordination task per group of up
// to BatchSize sections plus one task per section, spliced in starting at
// startPosition (normally the section insert position, replacing the
// write-sections placeholder).
//
// Position layout per batch: the batch task, then its sections, so batch N
// sits at startPosition + (N-1)*(BatchSize+1) with its sections directly
// after it. All sections of a batch are blocked by their batch task and run
// in parallel; batch N is blocked by batch N-1 (batch 1 by
// create-section-index).
//
// Returns an empty set when the section state is fresh, invalid_index, or
// complete — those states have nothing to splice.
func GenerateSectionTasks(progress planning.Progress, startPosition domain.Position) SectionTaskSet {
	set := SectionTaskSet{
		Dependencies: make(map[domain.SemanticID][]domain.SemanticID),
		Positions:    make(map[domain.SemanticID]domain.Position),
	}

	switch progress.State {
	case constants.SectionStateFresh, constants.SectionStateInvalidIndex, constants.SectionStateComplete:
		return set
	}

	defined := progress.DefinedSections
	set.NumBatches = NumBatches(len(defined))

	prevBatchesComplete := true
	for batchNum := 1; batchNum <= set.NumBatches; batchNum++ {
		batchPos := startPosition + domain.Position((batchNum-1)*(constants.BatchSize+1))
		sections := BatchSections(defined, batchNum)

		batchComplete := true
		for _, s := range sections {
			if !progress.IsCompleted(s) {
				batchComplete = false
				break
			}
		}

		var batchStatus constants.TaskStatus
		switch {
		case batchComplete:
			batchStatus = constants.TaskStatusCompleted
		case prevBatchesComplete:
			// The first incomplete batch is the one in flight.
			batchStatus = constants.TaskStatusInProgress
		default:
			batchStatus = constants.TaskStatusPending
		}

		batchID := BatchID(batchNum)
		set.Tasks = append(set.Tasks, domain.Task{
			Position:    batchPos,
			Subject:     fmt.Sprintf("Run batch %d section subagents", batchNum),
			Description: fmt.Sprintf("Launch parallel subagents for batch %d sections (%d sections)", batchNum, len(sections)),
			ActiveForm:  fmt.Sprintf("Running batch %d subagents", batchNum),
			Status:      batchStatus,
		})

		set.Positions[batchID] = batchPos
		if batchNum == 1 {
			set.Dependencies[batchID] = []domain.SemanticID{"create-section-index"}
		} else {
			set.Dependencies[batchID] = []domain.SemanticID{BatchID(batchNum - 1)}
		}

		for i, name := range sections {
			sectionPos := batchPos + 1 + domain.Position(i)
			filename := name + ".md"

			var sectionStatus constants.TaskStatus
			switch {
			case progress.IsCompleted(name):
				sectionStatus = constants.TaskStatusCompleted
			case batchStatus == constants.TaskStatusInProgress:
				// Sections within the in-flight batch run in parallel.
				sectionStatus = constants.TaskStatusInProgress
			default:
				sectionStatus = constants.TaskStatusPending
			}

			set.Tasks = append(set.Tasks, domain.Task{
				Position:    sectionPos,
				Subject:     "Write " + filename,
				Description: "Write section file: " + filename,
				ActiveForm:  "Writing " + filename,
				Status:      sectionStatus,
			})
			set.Positions[SectionID(sectionPos)] = sectionPos
			set.Dependencies[SectionID(sectionPos)] = []domain.SemanticID{batchID}
		}

		if !batchComplete {
			prevBatchesComplete = false
		}
	}

	return set
}

// ShiftedDependencies rewires the trailing fixed tasks after section
// insertion: final-verification hangs off the last batch instead of the
// (removed) write-sections placeholder, output-summary off final
// verification, and the context tasks off output-summary. Merge the result
// over Dependencies to get the complete graph for the run.
func ShiftedDependencies(numBatches int) map[domain.SemanticID][]domain.SemanticID {
	deps := make(map[domain.SemanticID][]domain.SemanticID)
	if numBatches == 0 {
		return deps
	}

	deps["final-verification"] = []domain.SemanticID{BatchID(numBatches)}
	deps["output-summary"] = []domain.SemanticID{"final-verification"}
	for _, ctx := range ContextTaskIDs {
		deps[ctx] = []domain.SemanticID{"output-summary"}
	}
	return deps
}
