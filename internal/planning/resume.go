package planning

import (
	"fmt"

	"github.com/mrz1836/deepplan/internal/constants"
)

// ResumeComplete is the resume step value meaning the workflow is finished.
const ResumeComplete = 0

// InferResumeStep maps filesystem evidence to the workflow step the session
// should resume at, together with a human-readable reason.
//
// The decision table is evaluated from the latest workflow stage backward.
// Before resuming at a later step it verifies that the immediate
// prerequisite artifact exists; a missing prerequisite redirects to the step
// that produces it, with an explicit MISSING PREREQUISITE reason naming the
// artifact that will be overwritten. Prerequisite violations always win over
// a "looks complete" classification — a workflow that advanced out of order
// must not be treated as further along than it safely is.
//
// Returns ResumeComplete (0) when every manifest-declared section is written.
func InferResumeStep(files Artifacts, progress Progress) (int, string) {
	// Section index present: the final stage. Sections require the TDD plan.
	if files.SectionsIndex {
		if !files.PlanTDD {
			return constants.StepApplyTDD, missingPrereq(constants.PlanTDDFileName, "sections/")
		}

		switch progress.State {
		case constants.SectionStateComplete:
			return ResumeComplete, "complete"
		case constants.SectionStatePartial, constants.SectionStateHasIndex:
			return constants.StepGenerateSectionTasks,
				fmt.Sprintf("sections %s, next: %s", progress.Ratio(), progress.NextSection)
		}
		// invalid_index falls through to the pre-section checks below so a
		// malformed manifest surfaces via the section-task path, not here.
	}

	// Loose section files without an index.
	if len(files.Sections) > 0 {
		if !files.PlanTDD {
			return constants.StepApplyTDD, missingPrereq(constants.PlanTDDFileName, "sections/")
		}
		return constants.StepCreateSectionIndex, "section files exist but no index"
	}

	if files.PlanTDD {
		return constants.StepContextCheckSplit, "TDD plan complete"
	}

	if files.IntegrationNotes {
		if !files.Plan {
			return constants.StepGeneratePlan, missingPrereq(constants.PlanFileName, constants.IntegrationNotesFileName)
		}
		return constants.StepUserReview, "feedback integrated"
	}

	if len(files.Reviews) > 0 {
		if !files.Plan {
			return constants.StepGeneratePlan, missingPrereq(constants.PlanFileName, "reviews/")
		}
		return constants.StepIntegrateFeedback, "external review complete"
	}

	if files.Plan {
		if !files.Spec {
			return constants.StepWriteSpec, missingPrereq(constants.SpecFileName, constants.PlanFileName)
		}
		return constants.StepContextCheckReview, "implementation plan complete"
	}

	if files.Spec {
		if !files.Interview {
			return constants.StepSaveInterview, missingPrereq(constants.InterviewFileName, constants.SpecFileName)
		}
		return constants.StepGeneratePlan, "spec complete"
	}

	if files.Interview {
		// Research is optional, so no prerequisite check here.
		return constants.StepWriteSpec, "interview complete"
	}

	if files.Research {
		return constants.StepDetailedInterview, "research complete"
	}

	return constants.FirstWorkflowStep, "none"
}

// missingPrereq formats the prerequisite-violation reason. The caller is
// never surprised by an overwrite: the reason names the missing artifact and
// what will be overwritten after it is recreated.
func missingPrereq(missing, overwrite string) string {
	return fmt.Sprintf("MISSING PREREQUISITE: %s - OVERWRITE %s after creating %s", missing, overwrite, missing)
}
