package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Validation reports whether a transcript matches the parsing assumptions
// the section-writer hook depends on. Run at setup time so a host format
// change fails fast instead of silently breaking section writing later.
type Validation struct {
	Valid             bool     `json:"valid"`
	TranscriptPath    string   `json:"transcript_path"`
	LineCount         int      `json:"line_count"`
	UserMessages      int      `json:"user_messages"`
	AssistantMessages int      `json:"assistant_messages"`
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
}

// ValidateFormat checks every transcript line against the expected schema:
// valid JSON, message entries shaped {role, content}, content either a
// string or an array of typed blocks, and at least one user or assistant
// message overall. Malformed JSON lines are warnings (partial writes are
// normal); structural mismatches are errors.
func ValidateFormat(path string) Validation {
	result := Validation{
		TranscriptPath: path,
		Errors:         []string{},
		Warnings:       []string{},
	}

	f, err := os.Open(path) //#nosec G304 -- path comes from the host environment
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Transcript not found: %s", path))
		return result
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result.LineCount++

		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Line %d: Malformed JSON (skipped): %v", lineNum, err))
			continue
		}

		messageRaw, ok := raw["message"]
		if !ok || string(messageRaw) == "null" {
			continue
		}

		var message map[string]json.RawMessage
		if err := json.Unmarshal(messageRaw, &message); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: 'message' is not an object", lineNum))
			continue
		}

		role := decodeString(message["role"])
		switch role {
		case "user":
			result.UserMessages++
		case "assistant":
			result.AssistantMessages++
		case "":
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("Line %d: Unexpected role: %s", lineNum, role))
		}

		if contentRaw, ok := message["content"]; ok && string(contentRaw) != "null" {
			if formatErr := validateContentFormat(contentRaw); formatErr != "" {
				result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %s", lineNum, formatErr))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read transcript: %v", err))
		return result
	}

	if result.LineCount == 0 {
		result.Errors = append(result.Errors, "Transcript is empty")
	} else if result.UserMessages == 0 && result.AssistantMessages == 0 {
		result.Errors = append(result.Errors, "No user or assistant messages found - format may have changed")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validateContentFormat checks content is a string or an array of objects
// each carrying a "type" field. Returns an error description or "".
func validateContentFormat(content json.RawMessage) string {
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return ""
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(content, &blocks); err != nil {
		return "content is neither string nor array"
	}
	for i, blockRaw := range blocks {
		var block map[string]json.RawMessage
		if err := json.Unmarshal(blockRaw, &block); err != nil {
			return fmt.Sprintf("content[%d] is not an object", i)
		}
		if _, ok := block["type"]; !ok {
			return fmt.Sprintf("content[%d] missing 'type' field", i)
		}
	}
	return ""
}

// decodeString decodes a raw JSON string, returning "" on any mismatch.
func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
