package tasklist

import (
	"fmt"
	"sort"

	"github.com/mrz1836/deepplan/internal/constants"
	"github.com/mrz1836/deepplan/internal/domain"
	"github.com/mrz1836/deepplan/internal/workflow"
)

// Operation tool names. The host agent executes these against its own task
// tools; "describe operations" mode only ever emits these two.
const (
	ToolTaskCreate = "TaskCreate"
	ToolTaskUpdate = "TaskUpdate"
)

// Operation is one abstract task operation for the host agent to execute.
type Operation struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
	Reason string         `json:"reason"`

	// Then is a follow-up operation chained to this one. Creation always
	// defaults to pending, so a create with a non-pending expected status
	// carries a same-transaction status update here.
	Then map[string]any `json:"then,omitempty"`
}

// ComputeOperations diffs the expected task list against the current
// on-disk records using position-based matching and returns the minimal
// ordered operation list.
//
//   - Position exists: compare subject/status/description/activeForm
//     field-by-field and emit an update carrying only the fields that
//     differ. Unchanged fields are never rewritten, preserving host-side
//     metadata attached to unlisted fields.
//   - Position absent: emit a create (plus a chained status update when the
//     expected status is not pending).
//   - Positions beyond the expected count: retire with the obsolete
//     sentinel, skipping records already retired.
//
// Running the diff twice with no state change in between yields zero
// operations the second time.
func ComputeOperations(
	expected []workflow.ExpectedTask,
	current map[domain.Position]domain.Record,
) []Operation {
	var operations []Operation

	for i, exp := range expected {
		position := domain.Position(i + 1)

		description := exp.Description
		if description == "" {
			description = exp.Subject
		}

		record, exists := current[position]
		if exists {
			if op, changed := diffRecord(position, record, exp, description); changed {
				operations = append(operations, op)
			}
			continue
		}

		var then map[string]any
		if exp.Status != constants.TaskStatusPending {
			then = map[string]any{
				"tool": ToolTaskUpdate,
				"params": map[string]any{
					"status": string(exp.Status),
				},
				"note": "TaskCreate returns the new taskId - use it here",
			}
		}

		operations = append(operations, Operation{
			Tool: ToolTaskCreate,
			Params: map[string]any{
				"subject":     exp.Subject,
				"description": description,
				"activeForm":  exp.ActiveForm,
			},
			Reason: fmt.Sprintf("New task at position %d", position),
			Then:   then,
		})
	}

	// Retire extra existing positions beyond the expected count.
	extra := make([]domain.Position, 0)
	for position := range current {
		if int(position) > len(expected) {
			extra = append(extra, position)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	for _, position := range extra {
		record := current[position]
		if record.IsObsolete() {
			continue
		}
		operations = append(operations, Operation{
			Tool: ToolTaskUpdate,
			Params: map[string]any{
				"taskId":  position.String(),
				"subject": constants.ObsoleteSubject,
				"status":  string(constants.TaskStatusCompleted),
			},
			Reason: fmt.Sprintf("Mark position %d obsolete (beyond expected %d tasks)", position, len(expected)),
		})
	}

	return operations
}

// diffRecord compares one on-disk record against its expected task and
// builds an update operation carrying only the differing fields.
func diffRecord(
	position domain.Position,
	record domain.Record,
	exp workflow.ExpectedTask,
	description string,
) (Operation, bool) {
	params := map[string]any{"taskId": position.String()}

	if record.Subject != exp.Subject {
		params["subject"] = exp.Subject
	}
	if record.Status != string(exp.Status) {
		params["status"] = string(exp.Status)
	}
	if record.Description != description {
		params["description"] = description
	}
	if record.ActiveForm != exp.ActiveForm {
		params["activeForm"] = exp.ActiveForm
	}

	if len(params) == 1 {
		return Operation{}, false
	}

	return Operation{
		Tool:   ToolTaskUpdate,
		Params: params,
		Reason: fmt.Sprintf("Transform position %d: '%s' -> '%s'", position, truncate(record.Subject, 30), truncate(exp.Subject, 30)),
	}, true
}

// truncate shortens s to max runes with an ellipsis, for reason strings.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
