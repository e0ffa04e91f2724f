// Package domain provides shared domain types for the deepplan workflow
// orchestrator. These types are used across all internal packages to ensure
// consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// JSON field names follow the host agent's task-file format (camelCase)
// where host compatibility matters, snake_case elsewhere.
package domain

import (
	"strconv"

	"github.com/mrz1836/deepplan/internal/constants"
)

// Position is the numeric, file-backed identity of a persisted task record.
// Position N always corresponds to file N.json; the meaning assigned to a
// position can change across runs (during batch insertion all downstream
// positions shift). Position is deliberately a distinct type from workflow
// step numbers — conflating the two is the highest-risk bug class in this
// system.
type Position int

// String returns the position as the decimal string used in task files'
// blocks/blockedBy arrays.
func (p Position) String() string {
	return strconv.Itoa(int(p))
}

// SemanticID is a stable human-readable task name (e.g.
// "create-section-index") used only to express the dependency graph. It is
// translated to a Position per run and never persisted.
type SemanticID string

// Task is a task record prepared for writing at a specific position.
type Task struct {
	Position    Position
	Subject     string
	Description string
	ActiveForm  string
	Status      constants.TaskStatus

	// Blocks and BlockedBy hold position strings. They are normally
	// derived from the dependency graph at write time, overriding any
	// values set here.
	Blocks    []string
	BlockedBy []string
}

// Record is a task record read back from disk, keyed by its position.
type Record struct {
	Position    Position
	Subject     string
	Description string
	ActiveForm  string
	Status      string
	Blocks      []string
	BlockedBy   []string
}

// IsObsolete reports whether the record carries the retirement sentinel.
// Obsolete records must never be recreated or re-marked.
func (r Record) IsObsolete() bool {
	return r.Subject == constants.ObsoleteSubject && r.Status == string(constants.TaskStatusCompleted)
}

// TaskFile is the on-disk JSON shape of a task record. The id field always
// equals the filename stem; the host agent reads both.
type TaskFile struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	ActiveForm  string   `json:"activeForm"`
	Status      string   `json:"status"`
	Blocks      []string `json:"blocks"`
	BlockedBy   []string `json:"blockedBy"`
}

// File converts the task to its on-disk representation.
func (t Task) File() TaskFile {
	blocks := t.Blocks
	if blocks == nil {
		blocks = []string{}
	}
	blockedBy := t.BlockedBy
	if blockedBy == nil {
		blockedBy = []string{}
	}
	return TaskFile{
		ID:          t.Position.String(),
		Subject:     t.Subject,
		Description: t.Description,
		ActiveForm:  t.ActiveForm,
		Status:      string(t.Status),
		Blocks:      blocks,
		BlockedBy:   blockedBy,
	}
}

// DependencyEdges is the per-position pair of blocks/blockedBy arrays
// produced by the graph builder.
type DependencyEdges struct {
	Blocks    []string
	BlockedBy []string
}

// DependencyGraph maps each position to its dependency edges for one run.
// It is rebuilt from the semantic graph on every run and never cached.
type DependencyGraph map[Position]DependencyEdges
