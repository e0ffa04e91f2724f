package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

// writeTranscript writes lines to a temp JSONL file and returns its path.
func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadEntries(t *testing.T) {
	t.Parallel()

	t.Run("skips malformed and blank lines", func(t *testing.T) {
		t.Parallel()

		path := writeTranscript(t,
			`{"message": {"role": "user", "content": "hello"}}`,
			``,
			`{not json`,
			`{"type": "progress"}`,
			`{"message": {"role": "assistant", "content": "hi"}}`,
		)

		entries, err := ReadEntries(path)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "user", entries[0].Message.Role)
		assert.Nil(t, entries[1].Message)
		assert.Equal(t, "assistant", entries[2].Message.Role)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := ReadEntries(filepath.Join(t.TempDir(), "nope.jsonl"))
		require.Error(t, err)
	})
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "string form", content: `"Hello world"`, want: "Hello world"},
		{name: "single text block", content: `[{"type": "text", "text": "Hello"}]`, want: "Hello"},
		{name: "multiple text blocks", content: `[{"type": "text", "text": "A"}, {"type": "text", "text": "B"}]`, want: "A\nB"},
		{name: "mixed blocks skip tool use", content: `[{"type": "tool_use", "name": "Read"}, {"type": "text", "text": "C"}]`, want: "C"},
		{name: "empty array", content: `[]`, want: ""},
		{name: "null", content: `null`, want: ""},
		{name: "empty string", content: `""`, want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ExtractText(json.RawMessage(tt.content)))
		})
	}
}

func TestFindFirstUserMessage(t *testing.T) {
	t.Parallel()

	t.Run("returns first user text", func(t *testing.T) {
		t.Parallel()

		path := writeTranscript(t,
			`{"type": "summary"}`,
			`{"message": {"role": "user", "content": "Read /plans/sections/.prompts/section-01-intro-prompt.md and execute"}}`,
			`{"message": {"role": "user", "content": "second"}}`,
		)

		text, err := FindFirstUserMessage(path)
		require.NoError(t, err)
		assert.Contains(t, text, "section-01-intro-prompt.md")
	})

	t.Run("no user message", func(t *testing.T) {
		t.Parallel()

		path := writeTranscript(t, `{"message": {"role": "assistant", "content": "hi"}}`)

		_, err := FindFirstUserMessage(path)
		require.ErrorIs(t, err, dperrors.ErrTranscriptFormat)
	})
}

func TestFindLastAssistantText(t *testing.T) {
	t.Parallel()

	t.Run("last text turn wins over tool turns", func(t *testing.T) {
		t.Parallel()

		path := writeTranscript(t,
			`{"message": {"role": "assistant", "content": "draft"}}`,
			`{"message": {"role": "assistant", "content": [{"type": "tool_use", "name": "Write"}]}}`,
			`{"message": {"role": "assistant", "content": [{"type": "text", "text": "# Section\n\nfinal body"}]}}`,
		)

		text, err := FindLastAssistantText(path)
		require.NoError(t, err)
		assert.Equal(t, "# Section\n\nfinal body", text)
	})

	t.Run("no assistant text", func(t *testing.T) {
		t.Parallel()

		path := writeTranscript(t, `{"message": {"role": "user", "content": "hello"}}`)

		_, err := FindLastAssistantText(path)
		require.ErrorIs(t, err, dperrors.ErrTranscriptFormat)
	})
}

func TestExtractPromptFilePath(t *testing.T) {
	t.Parallel()

	path, err := ExtractPromptFilePath("Read /plans/auth/sections/.prompts/section-02-api-prompt.md and execute the instructions")
	require.NoError(t, err)
	assert.Equal(t, "/plans/auth/sections/.prompts/section-02-api-prompt.md", path)

	_, err = ExtractPromptFilePath("please summarize the plan")
	require.ErrorIs(t, err, dperrors.ErrTranscriptFormat)
}

func TestDeriveDestination(t *testing.T) {
	t.Parallel()

	t.Run("valid path", func(t *testing.T) {
		t.Parallel()

		dir, name, err := DeriveDestination("/plans/auth/sections/.prompts/section-01-foundation-prompt.md")
		require.NoError(t, err)
		assert.Equal(t, "/plans/auth/sections", dir)
		assert.Equal(t, "section-01-foundation.md", name)
	})

	t.Run("not in prompts dir", func(t *testing.T) {
		t.Parallel()

		_, _, err := DeriveDestination("/plans/auth/sections/section-01-prompt.md")
		require.ErrorIs(t, err, dperrors.ErrTranscriptFormat)
	})

	t.Run("missing prompt suffix", func(t *testing.T) {
		t.Parallel()

		_, _, err := DeriveDestination("/plans/auth/sections/.prompts/section-01.md")
		require.ErrorIs(t, err, dperrors.ErrTranscriptFormat)
	})
}
