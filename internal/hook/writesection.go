package hook

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/deepplan/internal/transcript"
)

// SubagentStopPayload is the JSON the host pipes to a SubagentStop hook.
type SubagentStopPayload struct {
	AgentTranscriptPath string `json:"agent_transcript_path"`
}

const sectionFilePerm = 0o600

// WriteSection reads the SubagentStop payload and copies the section-writer
// subagent's final text output into its destination section file. The
// destination is derived from the prompt file path named in the subagent's
// first user message, so no tracking files or structured subagent output
// are needed.
//
// Always returns nil. A failed section write surfaces later as a missing
// section in the progress scan, which the next batch regenerates.
func WriteSection(stdin io.Reader, logger zerolog.Logger) error {
	data, err := io.ReadAll(stdin)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to read hook stdin")
		return nil
	}

	var payload SubagentStopPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Debug().Err(err).Msg("hook stdin is not valid JSON")
			return nil
		}
	}
	if payload.AgentTranscriptPath == "" {
		logger.Debug().Msg("no agent_transcript_path in hook payload")
		return nil
	}

	firstUserMsg, err := transcript.FindFirstUserMessage(payload.AgentTranscriptPath)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to read first user message")
		return nil
	}

	promptPath, err := transcript.ExtractPromptFilePath(firstUserMsg)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to extract prompt file path")
		return nil
	}

	sectionsDir, filename, err := transcript.DeriveDestination(promptPath)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to derive destination")
		return nil
	}

	content, err := transcript.FindLastAssistantText(payload.AgentTranscriptPath)
	if err != nil {
		logger.Debug().Err(err).Msg("failed to read assistant content")
		return nil
	}

	if _, statErr := os.Stat(sectionsDir); statErr != nil {
		logger.Debug().Str("sections_dir", sectionsDir).Msg("sections dir does not exist")
		return nil
	}

	outputPath := filepath.Join(sectionsDir, filename)
	if writeErr := os.WriteFile(outputPath, []byte(content), sectionFilePerm); writeErr != nil {
		logger.Debug().Err(writeErr).Str("path", outputPath).Msg("failed to write section file")
		return nil
	}

	logger.Debug().Str("path", outputPath).Int("bytes", len(content)).Msg("wrote section file")
	return nil
}
