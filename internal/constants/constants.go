// Package constants defines shared constants for deepplan.
// This package MUST NOT import any other internal packages.
package constants

// BatchSize is the maximum number of section-writer subagents the host
// agent can run concurrently, and therefore the maximum number of sections
// per batch.
const BatchSize = 7

// ObsoleteSubject is the sentinel subject marking a retired task record.
// A record with this subject and status "completed" must never be recreated
// or re-marked.
const ObsoleteSubject = "[obsolete]"

// Position layout of the fixed task backbone.
const (
	// ContextTaskCount is the number of context pseudo-tasks at the head
	// of the task list (positions 1 through ContextTaskCount).
	ContextTaskCount = 4

	// SectionInsertPosition is the position where generated batch/section
	// tasks are spliced in, replacing the "Write Section Files" placeholder.
	SectionInsertPosition = 19

	// FirstWorkflowStep is the first tracked workflow step number.
	FirstWorkflowStep = 6

	// LastWorkflowStep is the final workflow step number (output summary).
	LastWorkflowStep = 22
)

// Workflow step numbers that resume inference jumps to. These mirror the
// step-to-artifact mapping in the planning skill.
const (
	StepExecuteResearch      = 7
	StepDetailedInterview    = 8
	StepSaveInterview        = 9
	StepWriteSpec            = 10
	StepGeneratePlan         = 11
	StepContextCheckReview   = 12
	StepExternalReview       = 13
	StepIntegrateFeedback    = 14
	StepUserReview           = 15
	StepApplyTDD             = 16
	StepContextCheckSplit    = 17
	StepCreateSectionIndex   = 18
	StepGenerateSectionTasks = 19
	StepWriteSections        = 20
)

// Planning directory artifact filenames.
const (
	ResearchFileName         = "claude-research.md"
	InterviewFileName        = "claude-interview.md"
	SpecFileName             = "claude-spec.md"
	PlanFileName             = "claude-plan.md"
	IntegrationNotesFileName = "claude-integration-notes.md"
	PlanTDDFileName          = "claude-plan-tdd.md"

	// ReviewsDirName holds external review output files.
	ReviewsDirName = "reviews"

	// SectionsDirName holds the section index and section files.
	SectionsDirName = "sections"

	// SectionIndexFileName is the section index inside SectionsDirName.
	SectionIndexFileName = "index.md"

	// SectionFilePrefix is the filename prefix of individual section files.
	SectionFilePrefix = "section-"

	// PromptsDirName is the hidden directory for generated subagent prompts.
	PromptsDirName = ".prompts"
)

// Section manifest delimiters, embedded in the section index as an HTML
// comment so the index stays renderable markdown.
const (
	ManifestOpen  = "<!-- SECTION_MANIFEST"
	ManifestClose = "END_MANIFEST -->"
)

// Configuration file names.
const (
	// GlobalConfigName is the plugin-wide config file in the plugin root.
	GlobalConfigName = "config.json"

	// SessionConfigName is the per-session config file in the planning
	// directory. It is a superset copy of the global config.
	SessionConfigName = "deep_plan_config.json"
)

// Environment variable names for task-list identity resolution.
const (
	// EnvUserTaskListID is the user-specified shared task list ID.
	EnvUserTaskListID = "CLAUDE_CODE_TASK_LIST_ID"

	// EnvSessionID is the session ID captured by the SessionStart hook.
	// May be stale after a context reset.
	EnvSessionID = "CLAUDE_SESSION_ID"

	// EnvTranscriptPath is the path to the host agent's session transcript.
	EnvTranscriptPath = "CLAUDE_TRANSCRIPT_PATH"

	// EnvTasksRoot overrides the default task storage root (~/.claude/tasks).
	EnvTasksRoot = "DEEPPLAN_TASKS_ROOT"

	// EnvHome overrides the deepplan home directory (~/.deepplan).
	EnvHome = "DEEPPLAN_HOME"
)

// DeepplanHome is the default deepplan home directory name under $HOME.
const DeepplanHome = ".deepplan"

// TasksRootDir is the default task storage root relative to $HOME.
// Task files for list <id> live at <root>/<id>/<position>.json.
const TasksRootDir = ".claude/tasks"

// Log file names and rotation settings.
const (
	// LogsDir is the log directory under the deepplan home.
	LogsDir = "logs"

	// CLILogFileName is the global CLI log file name.
	CLILogFileName = "deepplan.log"

	// LogMaxSizeMB is the maximum size of a log file before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated log files.
	LogMaxAgeDays = 30

	// LogCompress enables compression of rotated log files.
	LogCompress = true
)
