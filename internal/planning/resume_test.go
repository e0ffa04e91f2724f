package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/deepplan/internal/constants"
)

func TestInferResumeStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		files      Artifacts
		progress   Progress
		wantStep   int
		wantReason string
	}{
		{
			name:       "fresh start",
			files:      Artifacts{},
			wantStep:   constants.FirstWorkflowStep,
			wantReason: "none",
		},
		{
			name:       "research complete",
			files:      Artifacts{Research: true},
			wantStep:   constants.StepDetailedInterview,
			wantReason: "research complete",
		},
		{
			name:       "interview complete",
			files:      Artifacts{Research: true, Interview: true},
			wantStep:   constants.StepWriteSpec,
			wantReason: "interview complete",
		},
		{
			name:       "interview without research is fine",
			files:      Artifacts{Interview: true},
			wantStep:   constants.StepWriteSpec,
			wantReason: "interview complete",
		},
		{
			name:       "spec complete",
			files:      Artifacts{Interview: true, Spec: true},
			wantStep:   constants.StepGeneratePlan,
			wantReason: "spec complete",
		},
		{
			name:       "spec without interview redirects",
			files:      Artifacts{Spec: true},
			wantStep:   constants.StepSaveInterview,
			wantReason: "MISSING PREREQUISITE: claude-interview.md - OVERWRITE claude-spec.md after creating claude-interview.md",
		},
		{
			name:       "plan complete",
			files:      Artifacts{Interview: true, Spec: true, Plan: true},
			wantStep:   constants.StepContextCheckReview,
			wantReason: "implementation plan complete",
		},
		{
			name:       "plan without spec redirects",
			files:      Artifacts{Plan: true},
			wantStep:   constants.StepWriteSpec,
			wantReason: "MISSING PREREQUISITE: claude-spec.md - OVERWRITE claude-plan.md after creating claude-spec.md",
		},
		{
			name:       "reviews complete",
			files:      Artifacts{Spec: true, Plan: true, Reviews: []string{"iteration-1-gemini.md"}},
			wantStep:   constants.StepIntegrateFeedback,
			wantReason: "external review complete",
		},
		{
			name:       "reviews without plan redirect",
			files:      Artifacts{Reviews: []string{"iteration-1-gemini.md"}},
			wantStep:   constants.StepGeneratePlan,
			wantReason: "MISSING PREREQUISITE: claude-plan.md - OVERWRITE reviews/ after creating claude-plan.md",
		},
		{
			name:       "feedback integrated",
			files:      Artifacts{Plan: true, IntegrationNotes: true},
			wantStep:   constants.StepUserReview,
			wantReason: "feedback integrated",
		},
		{
			name:       "integration notes without plan redirect",
			files:      Artifacts{IntegrationNotes: true},
			wantStep:   constants.StepGeneratePlan,
			wantReason: "MISSING PREREQUISITE: claude-plan.md - OVERWRITE claude-integration-notes.md after creating claude-plan.md",
		},
		{
			name:       "TDD plan complete",
			files:      Artifacts{PlanTDD: true},
			wantStep:   constants.StepContextCheckSplit,
			wantReason: "TDD plan complete",
		},
		{
			name:       "section files without index",
			files:      Artifacts{PlanTDD: true, Sections: []string{"section-01-a.md"}},
			wantStep:   constants.StepCreateSectionIndex,
			wantReason: "section files exist but no index",
		},
		{
			name:       "section files without TDD plan redirect",
			files:      Artifacts{Sections: []string{"section-01-a.md"}},
			wantStep:   constants.StepApplyTDD,
			wantReason: "MISSING PREREQUISITE: claude-plan-tdd.md - OVERWRITE sections/ after creating claude-plan-tdd.md",
		},
		{
			name:  "index with partial sections",
			files: Artifacts{PlanTDD: true, SectionsIndex: true, Sections: []string{"section-01-a.md"}},
			progress: Progress{
				State:             constants.SectionStatePartial,
				DefinedSections:   []string{"section-01-a", "section-02-b"},
				CompletedSections: []string{"section-01-a"},
				MissingSections:   []string{"section-02-b"},
				NextSection:       "section-02-b",
			},
			wantStep:   constants.StepGenerateSectionTasks,
			wantReason: "sections 1/2, next: section-02-b",
		},
		{
			name:  "index with no section files",
			files: Artifacts{PlanTDD: true, SectionsIndex: true},
			progress: Progress{
				State:           constants.SectionStateHasIndex,
				DefinedSections: []string{"section-01-a"},
				MissingSections: []string{"section-01-a"},
				NextSection:     "section-01-a",
			},
			wantStep:   constants.StepGenerateSectionTasks,
			wantReason: "sections 0/1, next: section-01-a",
		},
		{
			name:       "index without TDD plan redirects",
			files:      Artifacts{SectionsIndex: true},
			progress:   Progress{State: constants.SectionStateHasIndex},
			wantStep:   constants.StepApplyTDD,
			wantReason: "MISSING PREREQUISITE: claude-plan-tdd.md - OVERWRITE sections/ after creating claude-plan-tdd.md",
		},
		{
			name:  "all sections complete",
			files: Artifacts{PlanTDD: true, SectionsIndex: true, Sections: []string{"section-01-a.md"}},
			progress: Progress{
				State:             constants.SectionStateComplete,
				DefinedSections:   []string{"section-01-a"},
				CompletedSections: []string{"section-01-a"},
			},
			wantStep:   ResumeComplete,
			wantReason: "complete",
		},
		{
			name:     "invalid index falls through to TDD check",
			files:    Artifacts{PlanTDD: true, SectionsIndex: true},
			progress: Progress{State: constants.SectionStateInvalidIndex},
			// Malformed manifest surfaces via the section-task path, so
			// resume lands on the pre-split context check.
			wantStep:   constants.StepContextCheckSplit,
			wantReason: "TDD plan complete",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			step, reason := InferResumeStep(tt.files, tt.progress)
			assert.Equal(t, tt.wantStep, step)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestInferResumeStepPrerequisiteWinsOverLooksComplete(t *testing.T) {
	t.Parallel()

	// Everything section-side looks complete but the TDD plan is missing:
	// the prerequisite violation must win over the complete classification.
	files := Artifacts{SectionsIndex: true, Sections: []string{"section-01-a.md"}}
	progress := Progress{
		State:             constants.SectionStateComplete,
		DefinedSections:   []string{"section-01-a"},
		CompletedSections: []string{"section-01-a"},
	}

	step, reason := InferResumeStep(files, progress)
	assert.Equal(t, constants.StepApplyTDD, step)
	assert.Contains(t, reason, "MISSING PREREQUISITE")
}
