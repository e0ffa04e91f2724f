// Package errors provides centralized error handling for deepplan.
//
// This package defines sentinel errors used for programmatic error
// categorization throughout the application. All error types can be checked
// using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrSpecFileNotFound indicates the input spec file does not exist.
	ErrSpecFileNotFound = errors.New("spec file not found")

	// ErrSpecFileIsDir indicates a directory was passed where a spec file
	// was expected.
	ErrSpecFileIsDir = errors.New("expected a spec file, got a directory")

	// ErrSpecFileEmpty indicates the input spec file has no content.
	ErrSpecFileEmpty = errors.New("spec file is empty")

	// ErrManifestMissing indicates the section index has no manifest block.
	ErrManifestMissing = errors.New("section manifest block not found")

	// ErrManifestEmpty indicates the manifest block declares no sections.
	ErrManifestEmpty = errors.New("section manifest block is empty")

	// ErrConfigNotFound indicates a required config file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates a config file failed to parse or validate.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrConfigMissingKeys indicates a session config lacks required keys.
	ErrConfigMissingKeys = errors.New("session config missing required keys")

	// ErrNoTaskListID indicates no usable task-list identifier could be
	// resolved from arguments or the environment.
	ErrNoTaskListID = errors.New("no task list ID available")

	// ErrTaskListConflict indicates a user-specified shared task list
	// already holds foreign, non-obsolete task records.
	ErrTaskListConflict = errors.New("task list has existing tasks")

	// ErrTaskWrite indicates task files could not be written to disk.
	ErrTaskWrite = errors.New("task write failed")

	// ErrInvalidBatchNumber indicates a batch number outside the valid range.
	ErrInvalidBatchNumber = errors.New("invalid batch number")

	// ErrNoSectionsDefined indicates the index defines no sections.
	ErrNoSectionsDefined = errors.New("no sections defined in index")

	// ErrPromptTemplateNotFound indicates the section-writer prompt
	// template is missing from the plugin root.
	ErrPromptTemplateNotFound = errors.New("prompt template not found")

	// ErrPluginRootNotFound indicates the configured plugin root does not exist.
	ErrPluginRootNotFound = errors.New("plugin root not found")

	// ErrTranscriptFormat indicates the host transcript no longer matches
	// our parsing assumptions.
	ErrTranscriptFormat = errors.New("transcript format validation failed")

	// ErrNoProvidersAvailable indicates no LLM review provider has usable
	// credentials.
	ErrNoProvidersAvailable = errors.New("no LLM providers available")

	// ErrAllProvidersFailed indicates every attempted review provider failed.
	ErrAllProvidersFailed = errors.New("all review providers failed")

	// ErrPlanNotFound indicates the plan file required for review is missing.
	ErrPlanNotFound = errors.New("plan file not found")

	// ErrLockTimeout indicates a file lock could not be acquired within the
	// timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")
)
