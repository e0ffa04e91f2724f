package constants

// TaskStatus represents the state of a persisted task record.
// Status values use snake_case for host task-file compatibility.
type TaskStatus string

// Task status constants define the valid states a task record can be in.
// Unlike internal workflow state, these are the only three values the host
// agent's task list understands.
const (
	// TaskStatusPending indicates a task has not been started.
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusInProgress indicates the workflow is currently on this task.
	TaskStatusInProgress TaskStatus = "in_progress"

	// TaskStatusCompleted indicates the task is finished (or retired).
	TaskStatusCompleted TaskStatus = "completed"
)

// IsValid reports whether s is one of the three host-recognized statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// SectionState classifies overall section-writing progress.
type SectionState string

// Section progress states, derived from the section index and which
// section files exist on disk.
const (
	// SectionStateFresh indicates no section index exists yet.
	SectionStateFresh SectionState = "fresh"

	// SectionStateInvalidIndex indicates the index exists but its
	// manifest block is missing or malformed.
	SectionStateInvalidIndex SectionState = "invalid_index"

	// SectionStateHasIndex indicates the index exists but no section
	// files have been written.
	SectionStateHasIndex SectionState = "has_index"

	// SectionStatePartial indicates some but not all sections are written.
	SectionStatePartial SectionState = "partial"

	// SectionStateComplete indicates every defined section has a file.
	SectionStateComplete SectionState = "complete"
)

// ReviewMode controls how the plan review step is performed.
type ReviewMode string

// Review mode constants.
const (
	// ReviewModeExternalLLM runs external LLM reviews (Gemini/OpenAI).
	ReviewModeExternalLLM ReviewMode = "external_llm"

	// ReviewModeOpusSubagent delegates review to an Opus subagent.
	ReviewModeOpusSubagent ReviewMode = "opus_subagent"

	// ReviewModeSkip skips the review step entirely.
	ReviewModeSkip ReviewMode = "skip"
)

// IsValid reports whether m is a recognized review mode.
func (m ReviewMode) IsValid() bool {
	switch m {
	case ReviewModeExternalLLM, ReviewModeOpusSubagent, ReviewModeSkip:
		return true
	default:
		return false
	}
}
