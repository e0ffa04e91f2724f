package tasklist

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchemaJSON is the strict schema for persisted task records. Records
// failing validation are treated as absent (skipped) rather than crashing,
// preserving the tolerant read behavior while making the contract explicit.
const recordSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "subject", "status"],
  "properties": {
    "id": {"type": "string", "pattern": "^[0-9]+$"},
    "subject": {"type": "string"},
    "description": {"type": "string"},
    "activeForm": {"type": "string"},
    "status": {"enum": ["pending", "in_progress", "completed"]},
    "blocks": {"type": "array", "items": {"type": "string"}},
    "blockedBy": {"type": "array", "items": {"type": "string"}}
  }
}`

// recordSchema is compiled once at startup; the schema is a constant, so
// compilation cannot fail at runtime.
//
//nolint:gochecknoglobals // Compiled schema for reuse across reads
var recordSchema = jsonschema.MustCompileString("task-record.json", recordSchemaJSON)

// validRecord reports whether raw task-file bytes satisfy the record schema.
func validRecord(data []byte) bool {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return false
	}
	return recordSchema.Validate(doc) == nil
}
