// Package workflow defines the deep-planning workflow's task model: the
// fixed backbone of steps 6-22, the semantic dependency graph between them,
// the position allocator that splices variable-length section tasks into the
// fixed layout, and the generators for expected, batch, and section tasks.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors,
//     internal/planning, std lib
//   - MUST NOT import: internal/tasklist, internal/cli
package workflow

import (
	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
)

// Semantic IDs of the four context pseudo-tasks. Their subjects carry
// key=value session parameters so the values stay human-visible in the task
// list even after transcript truncation.
const (
	ContextPluginRoot  domain.SemanticID = "context-plugin-root"
	ContextPlanningDir domain.SemanticID = "context-planning-dir"
	ContextInitialFile domain.SemanticID = "context-initial-file"
	ContextReviewMode  domain.SemanticID = "context-review-mode"
)

// ContextTaskIDs lists the context pseudo-tasks in position order (1-4).
//
//nolint:gochecknoglobals // Read-only ordered lookup table
var ContextTaskIDs = []domain.SemanticID{
	ContextPluginRoot,
	ContextPlanningDir,
	ContextInitialFile,
	ContextReviewMode,
}

// Definition holds the human-readable metadata of a workflow task.
type Definition struct {
	Subject     string
	Description string
	ActiveForm  string
}

// StepIDs maps workflow step numbers (6-22) to semantic task IDs.
// Steps 0-4 are setup and are not tracked as tasks.
//
//nolint:gochecknoglobals // Read-only lookup table
var StepIDs = map[int]domain.SemanticID{
	6:  "research-decision",
	7:  "execute-research",
	8:  "detailed-interview",
	9:  "save-interview",
	10: "write-spec",
	11: "generate-plan",
	12: "context-check-pre-review",
	13: "external-review",
	14: "integrate-feedback",
	15: "user-review",
	16: "apply-tdd",
	17: "context-check-pre-split",
	18: "create-section-index",
	19: "generate-section-tasks",
	20: "write-sections",
	21: "final-verification",
	22: "output-summary",
}

// StepNames maps step numbers to display names, including the untracked
// setup steps so resume messages can name any step.
//
//nolint:gochecknoglobals // Read-only lookup table
var StepNames = map[int]string{
	0:  "Context check",
	1:  "Print intro and validate environment",
	2:  "Handle environment errors",
	3:  "Validate spec file input",
	4:  "Setup planning session",
	6:  "Research decision",
	7:  "Execute research",
	8:  "Detailed interview",
	9:  "Save interview transcript",
	10: "Write initial spec",
	11: "Generate implementation plan",
	12: "Context check (pre-review)",
	13: "External LLM review",
	14: "Integrate external feedback",
	15: "User review of integrated plan",
	16: "Apply TDD approach",
	17: "Context check (pre-split)",
	18: "Create section index",
	19: "Generate section tasks",
	20: "Write section files",
	21: "Final status and cleanup",
	22: "Output summary",
}

// Dependencies is the semantic dependency graph: each task lists the tasks
// it is blocked by. The workflow is a linear chain; the context tasks fan in
// at the end, each blocked only by output-summary so they remain pending
// (and visible) for the whole run.
//
//nolint:gochecknoglobals // Read-only lookup table
var Dependencies = map[domain.SemanticID][]domain.SemanticID{
	ContextPluginRoot:  {"output-summary"},
	ContextPlanningDir: {"output-summary"},
	ContextInitialFile: {"output-summary"},
	ContextReviewMode:  {"output-summary"},

	"research-decision":        {},
	"execute-research":         {"research-decision"},
	"detailed-interview":       {"execute-research"},
	"save-interview":           {"detailed-interview"},
	"write-spec":               {"save-interview"},
	"generate-plan":            {"write-spec"},
	"context-check-pre-review": {"generate-plan"},
	"external-review":          {"context-check-pre-review"},
	"integrate-feedback":       {"external-review"},
	"user-review":              {"integrate-feedback"},
	"apply-tdd":                {"user-review"},
	"context-check-pre-split":  {"apply-tdd"},
	"create-section-index":     {"context-check-pre-split"},
	"generate-section-tasks":   {"create-section-index"},
	"write-sections":           {"generate-section-tasks"},
	"final-verification":       {"write-sections"},
	"output-summary":           {"final-verification"},
}

// Definitions holds the static metadata for each workflow task. Context
// tasks are not here — their subjects are generated per session by
// ContextTasks.
//
//nolint:gochecknoglobals // Read-only lookup table
var Definitions = map[domain.SemanticID]Definition{
	"research-decision": {
		Subject:     "Research Decision",
		Description: "Read research-protocol.md and decide on research approach",
		ActiveForm:  "Deciding on research approach",
	},
	"execute-research": {
		Subject:     "Execute Research",
		Description: "Launch research subagents based on decisions from previous step",
		ActiveForm:  "Executing research",
	},
	"detailed-interview": {
		Subject:     "Detailed Interview",
		Description: "Read interview-protocol.md and conduct stakeholder interview",
		ActiveForm:  "Conducting detailed interview",
	},
	"save-interview": {
		Subject:     "Save Interview Transcript",
		Description: "Write Q&A to " + constants.InterviewFileName,
		ActiveForm:  "Saving interview transcript",
	},
	"write-spec": {
		Subject:     "Write Initial Spec",
		Description: "Combine input, research, and interview into " + constants.SpecFileName,
		ActiveForm:  "Writing initial spec",
	},
	"generate-plan": {
		Subject:     "Generate Implementation Plan",
		Description: "Create detailed plan in " + constants.PlanFileName + ". Write for unfamiliar reader.",
		ActiveForm:  "Generating implementation plan",
	},
	"context-check-pre-review": {
		Subject:     "Context Check (Pre-Review)",
		Description: "Run deepplan context-check before external review",
		ActiveForm:  "Checking context (pre-review)",
	},
	"external-review": {
		Subject:     "External LLM Review",
		Description: "Read external-review.md and run review based on review_mode",
		ActiveForm:  "Running external LLM review",
	},
	"integrate-feedback": {
		Subject:     "Integrate External Feedback",
		Description: "Write integration notes and update " + constants.PlanFileName,
		ActiveForm:  "Integrating external feedback",
	},
	"user-review": {
		Subject:     "User Review of Integrated Plan",
		Description: "Wait for user to review and approve " + constants.PlanFileName,
		ActiveForm:  "Waiting for user review",
	},
	"apply-tdd": {
		Subject:     "Apply TDD Approach",
		Description: "Read tdd-approach.md and create " + constants.PlanTDDFileName,
		ActiveForm:  "Applying TDD approach",
	},
	"context-check-pre-split": {
		Subject:     "Context Check (Pre-Split)",
		Description: "Run deepplan context-check before section splitting",
		ActiveForm:  "Checking context (pre-split)",
	},
	"create-section-index": {
		Subject:     "Create Section Index",
		Description: "Read section-index.md and create sections/index.md with SECTION_MANIFEST",
		ActiveForm:  "Creating section index",
	},
	"generate-section-tasks": {
		Subject:     "Generate Section Tasks",
		Description: "Run deepplan sections to get batch task operations",
		ActiveForm:  "Generating section tasks",
	},
	"write-sections": {
		Subject:     "Write Section Files",
		Description: "Read section-splitting.md and execute batch loop with subagents",
		ActiveForm:  "Writing section files",
	},
	"final-verification": {
		Subject:     "Final Verification",
		Description: "Verify all sections complete",
		ActiveForm:  "Running final verification",
	},
	"output-summary": {
		Subject:     "Output Summary",
		Description: "Print generated files and next steps",
		ActiveForm:  "Outputting summary",
	},
}

// SortedSteps returns the tracked workflow step numbers in ascending order.
func SortedSteps() []int {
	steps := make([]int, 0, len(StepIDs))
	for s := constants.FirstWorkflowStep; s <= constants.LastWorkflowStep; s++ {
		if _, ok := StepIDs[s]; ok {
			steps = append(steps, s)
		}
	}
	return steps
}
