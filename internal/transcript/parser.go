// Package transcript parses host-agent JSONL transcripts. The workflow
// reads them in two places: early format validation at setup time and the
// section-writer stop hook, which extracts the finished section text from
// the subagent's conversation.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

// Entry is one transcript line. Lines without a message (progress entries,
// summaries) decode with a nil Message.
type Entry struct {
	Message *Message `json:"message"`
}

// Message is the role/content pair inside a transcript entry. Content is
// kept raw because the host emits both plain strings and block arrays.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// contentBlock is one element of an array-form content field.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// maxLineBytes bounds scanner buffers; transcript lines carry whole tool
// results and can run to megabytes.
const maxLineBytes = 16 * 1024 * 1024

// ReadEntries parses a JSONL transcript, skipping blank and malformed lines.
// Partial writes are normal while a session is live, so a bad line is never
// fatal.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the host environment
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return entries, nil
}

// ExtractText flattens a content field to plain text. Handles the string
// form, arrays of text blocks (non-text blocks skipped), and null/empty.
func ExtractText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}

	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// FindFirstUserMessage returns the text of the first user message, the one
// carrying the "Read <prompt>.md and execute" instruction.
func FindFirstUserMessage(path string) (string, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.Message == nil || entry.Message.Role != "user" {
			continue
		}
		if text := ExtractText(entry.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: no user message found in transcript", dperrors.ErrTranscriptFormat)
}

// FindLastAssistantText returns the text of the last assistant message that
// has text content. The subagent's final output follows its tool turns, so
// the last text turn is the section body.
func FindLastAssistantText(path string) (string, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return "", err
	}
	var last string
	for _, entry := range entries {
		if entry.Message == nil || entry.Message.Role != "assistant" {
			continue
		}
		if text := ExtractText(entry.Message.Content); text != "" {
			last = text
		}
	}
	if last == "" {
		return "", fmt.Errorf("%w: no assistant text message found in transcript", dperrors.ErrTranscriptFormat)
	}
	return last, nil
}

// promptPathPattern matches "Read /absolute/path/to/file.md and execute".
//
//nolint:gochecknoglobals // Compiled once for reuse
var promptPathPattern = regexp.MustCompile(`Read\s+(/[^\s]+\.md)\s+and execute`)

// ExtractPromptFilePath pulls the prompt file path out of the first user
// message text.
func ExtractPromptFilePath(userMessage string) (string, error) {
	match := promptPathPattern.FindStringSubmatch(userMessage)
	if match == nil {
		return "", fmt.Errorf("%w: could not find prompt file path in user message", dperrors.ErrTranscriptFormat)
	}
	return match[1], nil
}

// DeriveDestination maps a prompt file path to its sections directory and
// output filename:
//
//	<sections>/.prompts/section-01-foundation-prompt.md
//	-> (<sections>, section-01-foundation.md)
func DeriveDestination(promptFilePath string) (sectionsDir, filename string, err error) {
	dir := filepath.Dir(promptFilePath)
	if filepath.Base(dir) != ".prompts" {
		return "", "", fmt.Errorf("%w: expected prompt file in .prompts/ directory, got: %s", dperrors.ErrTranscriptFormat, dir)
	}

	stem := strings.TrimSuffix(filepath.Base(promptFilePath), ".md")
	if !strings.HasSuffix(stem, "-prompt") {
		return "", "", fmt.Errorf("%w: expected prompt filename to end with '-prompt', got: %s", dperrors.ErrTranscriptFormat, stem)
	}

	return filepath.Dir(dir), strings.TrimSuffix(stem, "-prompt") + ".md", nil
}
