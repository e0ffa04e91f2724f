package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/deepplan/internal/constants"
)

// writeSessionDir creates a planning dir with a session config pointing at a
// plugin root, plus a section manifest with the given names and written
// section files.
func writeSessionDir(t *testing.T, pluginRoot string, defined, written []string) string {
	t.Helper()

	planningDir := t.TempDir()
	sessionConfig := `{"plugin_root": ` + jsonString(pluginRoot) +
		`, "planning_dir": ` + jsonString(planningDir) +
		`, "initial_file": "/spec.md"}`
	require.NoError(t, os.WriteFile(
		filepath.Join(planningDir, constants.SessionConfigName), []byte(sessionConfig), 0o600))

	if len(defined) > 0 {
		sectionsDir := filepath.Join(planningDir, constants.SectionsDirName)
		require.NoError(t, os.MkdirAll(sectionsDir, 0o750))

		index := constants.ManifestOpen + "\n"
		for _, name := range defined {
			index += name + "\n"
		}
		index += constants.ManifestClose + "\n"
		require.NoError(t, os.WriteFile(
			filepath.Join(sectionsDir, constants.SectionIndexFileName), []byte(index), 0o600))

		for _, name := range written {
			require.NoError(t, os.WriteFile(
				filepath.Join(sectionsDir, name+".md"), []byte("# "+name+"\n"), 0o600))
		}
	}
	return planningDir
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		if r == '"' || r == '\\' {
			out += `\`
		}
		out += string(r)
	}
	return out + `"`
}

func TestSectionsCommand(t *testing.T) {
	t.Run("fresh state fails", func(t *testing.T) {
		setupEnv(t)
		planningDir := writeSessionDir(t, t.TempDir(), nil, nil)

		result, err := runCommand(t, "sections",
			"--planning-dir", planningDir,
			"--session-id", "sess-a")
		require.True(t, IsReportedFailure(err))
		assert.Equal(t, "fresh", result["state"])
		assert.Contains(t, result["error"], "No sections/index.md found")
	})

	t.Run("no session id fails", func(t *testing.T) {
		setupEnv(t)
		planningDir := writeSessionDir(t, t.TempDir(),
			[]string{"section-01-a"}, nil)

		result, err := runCommand(t, "sections", "--planning-dir", planningDir)
		require.True(t, IsReportedFailure(err))
		assert.Contains(t, result["error"], constants.EnvSessionID)
	})

	t.Run("complete state succeeds without writing", func(t *testing.T) {
		setupEnv(t)
		planningDir := writeSessionDir(t, t.TempDir(),
			[]string{"section-01-a"}, []string{"section-01-a"})

		result, err := runCommand(t, "sections",
			"--planning-dir", planningDir,
			"--session-id", "sess-b")
		require.NoError(t, err)
		assert.Equal(t, true, result["success"])
		assert.Equal(t, "complete", result["state"])
		assert.Equal(t, float64(0), result["tasks_written"])
	})

	t.Run("writes spliced tail tasks", func(t *testing.T) {
		tasksRoot := setupEnv(t)
		planningDir := writeSessionDir(t, t.TempDir(),
			[]string{"section-01-a", "section-02-b"}, nil)

		result, err := runCommand(t, "sections",
			"--planning-dir", planningDir,
			"--session-id", "sess-c")
		require.NoError(t, err)

		// 1 batch + 2 sections + final verification + output summary.
		assert.Equal(t, float64(5), result["tasks_written"])
		stats, ok := result["stats"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(2), stats["total"])
		assert.Equal(t, float64(2), stats["missing"])

		batch := readTaskFile(t, tasksRoot, "sess-c", 19)
		assert.Equal(t, "Run batch 1 section subagents", batch.Subject)
		assert.Equal(t, []string{"17"}, batch.BlockedBy)

		finalVer := readTaskFile(t, tasksRoot, "sess-c", 22)
		assert.Equal(t, "Final Verification", finalVer.Subject)
		assert.Equal(t, []string{"19"}, finalVer.BlockedBy)

		summary := readTaskFile(t, tasksRoot, "sess-c", 23)
		assert.Equal(t, "Output Summary", summary.Subject)
		assert.Equal(t, []string{"22"}, summary.BlockedBy)
	})
}

func TestBatchCommand(t *testing.T) {
	// Plugin root with the section_writer prompt template.
	writeTemplate := func(t *testing.T) string {
		t.Helper()

		pluginRoot := t.TempDir()
		dir := filepath.Join(pluginRoot, "prompts", "section_writer")
		require.NoError(t, os.MkdirAll(dir, 0o750))
		template := "Write {SECTION_FILENAME} ({SECTION_NAME}) under {PLANNING_DIR}/sections/.\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.md"), []byte(template), 0o600))
		return pluginRoot
	}

	t.Run("missing session config fails", func(t *testing.T) {
		setupEnv(t)

		result, err := runCommand(t, "batch",
			"--planning-dir", t.TempDir(),
			"--batch-num", "1")
		require.True(t, IsReportedFailure(err))
		assert.Contains(t, result["error"], "Session config not found")
	})

	t.Run("invalid batch number fails", func(t *testing.T) {
		setupEnv(t)
		pluginRoot := writeTemplate(t)
		planningDir := writeSessionDir(t, pluginRoot,
			[]string{"section-01-a", "section-02-b"}, nil)

		result, err := runCommand(t, "batch",
			"--planning-dir", planningDir,
			"--batch-num", "3")
		require.True(t, IsReportedFailure(err))
		assert.Equal(t, "Invalid batch number 3. Valid range: 1-1", result["error"])
	})

	t.Run("writes prompt files for missing sections only", func(t *testing.T) {
		setupEnv(t)
		pluginRoot := writeTemplate(t)
		planningDir := writeSessionDir(t, pluginRoot,
			[]string{"section-01-a", "section-02-b"}, []string{"section-01-a"})

		result, err := runCommand(t, "batch",
			"--planning-dir", planningDir,
			"--batch-num", "1")
		require.NoError(t, err)

		assert.Equal(t, true, result["success"])
		assert.Equal(t, []any{"section-02-b.md"}, result["sections"])

		promptFiles, ok := result["prompt_files"].([]any)
		require.True(t, ok)
		require.Len(t, promptFiles, 1)

		promptPath, ok := promptFiles[0].(string)
		require.True(t, ok)
		data, readErr := os.ReadFile(promptPath) //#nosec G304 -- test fixture path
		require.NoError(t, readErr)
		assert.Contains(t, string(data), "section-02-b.md")
		assert.Contains(t, string(data), "(section-02-b)")
		assert.NotContains(t, string(data), "{PLANNING_DIR}")
	})

	t.Run("already-written batch is a no-op success", func(t *testing.T) {
		setupEnv(t)
		pluginRoot := writeTemplate(t)
		planningDir := writeSessionDir(t, pluginRoot,
			[]string{"section-01-a"}, []string{"section-01-a"})

		// One written section out of one defined makes progress complete,
		// which short-circuits before batch membership.
		result, err := runCommand(t, "batch",
			"--planning-dir", planningDir,
			"--batch-num", "1")
		require.NoError(t, err)
		assert.Equal(t, true, result["success"])
		assert.Contains(t, result["message"], "Nothing to do")
	})

	t.Run("missing template fails", func(t *testing.T) {
		setupEnv(t)
		planningDir := writeSessionDir(t, t.TempDir(),
			[]string{"section-01-a"}, nil)

		result, err := runCommand(t, "batch",
			"--planning-dir", planningDir,
			"--batch-num", "1")
		require.True(t, IsReportedFailure(err))
		assert.Contains(t, result["error"], "prompt template not found")
	})
}

func TestContextCheckCommand(t *testing.T) {
	t.Run("missing config defaults to prompt", func(t *testing.T) {
		setupEnv(t)

		result, err := runCommand(t, "context-check",
			"--planning-dir", t.TempDir(),
			"--upcoming-operation", "Generate implementation plan")
		require.NoError(t, err)

		assert.Equal(t, "prompt", result["action"])
		assert.Equal(t, true, result["check_enabled"])
		assert.Contains(t, result["reason"], "Config error")

		prompt, ok := result["prompt"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, prompt["message"], "Generate implementation plan")
		options, ok := prompt["options"].([]any)
		require.True(t, ok)
		assert.Len(t, options, 2)
	})

	t.Run("enabled config prompts", func(t *testing.T) {
		setupEnv(t)
		planningDir := writeSessionDir(t, t.TempDir(), nil, nil)

		result, err := runCommand(t, "context-check",
			"--planning-dir", planningDir,
			"--upcoming-operation", "Split plan into sections")
		require.NoError(t, err)
		assert.Equal(t, "prompt", result["action"])
		assert.Equal(t, "Context prompts enabled", result["reason"])
	})

	t.Run("disabled config skips", func(t *testing.T) {
		setupEnv(t)
		pluginRoot := t.TempDir()
		planningDir := t.TempDir()
		sessionConfig := `{"plugin_root": ` + jsonString(pluginRoot) +
			`, "planning_dir": ` + jsonString(planningDir) +
			`, "initial_file": "/spec.md", "context": {"check_enabled": false}}`
		require.NoError(t, os.WriteFile(
			filepath.Join(planningDir, constants.SessionConfigName), []byte(sessionConfig), 0o600))

		result, err := runCommand(t, "context-check",
			"--planning-dir", planningDir,
			"--upcoming-operation", "External review")
		require.NoError(t, err)

		assert.Equal(t, "skip", result["action"])
		assert.Equal(t, false, result["check_enabled"])
		_, hasPrompt := result["prompt"]
		assert.False(t, hasPrompt)
	})
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "reported failure", err: errCommandFailed, want: ExitError},
		{name: "generic error", err: errors.New("boom"), want: ExitError},
		{name: "unknown flag", err: errors.New("unknown flag: --bogus"), want: ExitInvalidInput},
		{name: "required flag", err: errors.New(`required flag(s) "file" not set`), want: ExitInvalidInput},
		{name: "unknown command", err: errors.New(`unknown command "frobnicate" for "deepplan"`), want: ExitInvalidInput},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOutputFormat(OutputJSON))
	assert.True(t, IsValidOutputFormat(OutputText))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}
