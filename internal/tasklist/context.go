// Package tasklist persists and reconciles the position-keyed task records
// consumed by the host agent. It owns task-list identity resolution, the
// flat-file task store, conflict detection, and the position-based diff
// engine.
//
// Position-based reconciliation: tasks are matched by numeric position
// (1, 2, 3...), never by subject. Position N corresponds to file N.json.
// Existing positions are transformed via updates; positions beyond the
// existing range are created; extra existing positions are retired with the
// obsolete sentinel.
package tasklist

import (
	"github.com/google/uuid"

	"github.com/mrz1836/deepplan/internal/constants"
)

// Source identifies where the task list ID came from.
type Source string

// Task list ID sources, in priority order.
const (
	// SourceContext means the ID came from an explicit --session-id
	// argument (the hook's additionalContext). Most trustworthy: it
	// survives a context-clearing event.
	SourceContext Source = "context"

	// SourceUserEnv means the user set a shared task list ID explicitly
	// (opt-in sharing across sessions).
	SourceUserEnv Source = "user_env"

	// SourceSession means the ID came from the environment-captured
	// session ID, which may be stale after a context reset.
	SourceSession Source = "session"

	// SourceNone means no task list ID is available.
	SourceNone Source = "none"
)

// Environ looks up an environment variable. Deep logic never calls
// os.Getenv directly; the CLI passes os.Getenv here once per invocation.
type Environ func(key string) string

// Context describes which task list this run addresses and how that was
// decided. It is computed once per invocation and threaded explicitly;
// it is never persisted.
type Context struct {
	// TaskListID addresses the task storage, empty when none is available.
	TaskListID string

	// Source records which input supplied the ID.
	Source Source

	// IsUserSpecified is true when the ID came from the user's shared
	// task list variable. Only user-specified lists can conflict.
	IsUserSpecified bool

	// SessionIDMatched is a diagnostic: when both an explicit token and an
	// environment session ID are present, did they match? Nil when the
	// comparison could not be made. A mismatch is recorded, not an error —
	// it supports debugging stale-identifier bugs.
	SessionIDMatched *bool
}

// ResolveContext determines the task list ID for this run.
//
// Priority: explicit token (survives context clearing) > user-specified
// shared list > environment session ID (may be stale) > none.
func ResolveContext(contextSessionID string, env Environ) Context {
	envSessionID := env(constants.EnvSessionID)
	userSpecified := env(constants.EnvUserTaskListID)

	var matched *bool
	if contextSessionID != "" && envSessionID != "" {
		m := contextSessionID == envSessionID
		matched = &m
	}

	if contextSessionID != "" {
		return Context{
			TaskListID:       contextSessionID,
			Source:           SourceContext,
			SessionIDMatched: matched,
		}
	}

	if userSpecified != "" {
		return Context{
			TaskListID:      userSpecified,
			Source:          SourceUserEnv,
			IsUserSpecified: true,
		}
	}

	if envSessionID != "" {
		return Context{
			TaskListID: envSessionID,
			Source:     SourceSession,
		}
	}

	return Context{Source: SourceNone}
}

// IsSessionToken reports whether an identifier looks like a host session ID
// (UUID). User-specified shared list names are arbitrary strings; hook-
// captured session IDs are always UUIDs, so this distinguishes a plausible
// captured token from garbage.
func IsSessionToken(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
