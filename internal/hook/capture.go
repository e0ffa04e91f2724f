// Package hook implements the host-agent lifecycle hooks: session-id
// capture at session start and section-file writing when a section-writer
// subagent stops. Hooks never fail the session, so every error path here
// degrades to a silent no-op with a debug log line.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/deepplan/internal/tasklist"
)

// SessionStartPayload is the JSON the host pipes to a SessionStart hook.
type SessionStartPayload struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
}

// hookOutput is the session-start hook response envelope.
type hookOutput struct {
	HookSpecificOutput hookSpecificOutput `json:"hookSpecificOutput"`
}

type hookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// CaptureSession reads the SessionStart payload from stdin and surfaces the
// session id back to the agent as additionalContext. The env-file write is
// a secondary channel for shell commands; additionalContext is primary
// because the env file is not re-sourced after a context clear, leaving a
// stale session id behind.
//
// Always returns nil. Hook failures must not fail the session start.
func CaptureSession(stdin io.Reader, stdout io.Writer, env func(string) string, logger zerolog.Logger) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to read hook stdin")
		return nil
	}

	var payload SessionStartPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Debug().Err(err).Msg("hook stdin is not valid JSON")
		return nil
	}
	if payload.SessionID == "" {
		logger.Debug().Msg("no session_id in hook payload")
		return nil
	}
	// Host session ids are always UUIDs. Anything else must not be exported
	// into additionalContext or the env file.
	if !tasklist.IsSessionToken(payload.SessionID) {
		logger.Debug().Str("session_id", payload.SessionID).Msg("session_id is not a UUID, ignoring")
		return nil
	}

	out := hookOutput{
		HookSpecificOutput: hookSpecificOutput{
			HookEventName:     "SessionStart",
			AdditionalContext: fmt.Sprintf("DEEP_PLAN_SESSION_ID=%s", payload.SessionID),
		},
	}
	if encodeErr := json.NewEncoder(stdout).Encode(out); encodeErr != nil {
		logger.Debug().Err(encodeErr).Msg("failed to write hook output")
		return nil
	}

	appendEnvFile(env("CLAUDE_ENV_FILE"), payload, logger)
	return nil
}

// appendEnvFile appends export lines to the host env file, skipping lines
// already present so repeated session starts do not accumulate duplicates.
func appendEnvFile(envFile string, payload SessionStartPayload, logger zerolog.Logger) {
	if envFile == "" {
		return
	}

	existing := ""
	if data, err := os.ReadFile(envFile); err == nil { //#nosec G304 -- path comes from the host environment
		existing = string(data)
	}

	var lines []string
	if !strings.Contains(existing, "CLAUDE_SESSION_ID="+payload.SessionID) {
		lines = append(lines, fmt.Sprintf("export CLAUDE_SESSION_ID=%s\n", payload.SessionID))
	}
	if payload.TranscriptPath != "" && !strings.Contains(existing, "CLAUDE_TRANSCRIPT_PATH="+payload.TranscriptPath) {
		lines = append(lines, fmt.Sprintf("export CLAUDE_TRANSCRIPT_PATH=%s\n", payload.TranscriptPath))
	}
	if len(lines) == 0 {
		return
	}

	f, err := os.OpenFile(envFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //#nosec G304 -- path comes from the host environment
	if err != nil {
		logger.Debug().Err(err).Msg("failed to open env file")
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(strings.Join(lines, "")); err != nil {
		logger.Debug().Err(err).Msg("failed to append env file")
	}
}
