package planning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/deepplan/internal/constants"
)

// writePlanningDir builds a planning directory fixture. Sections listed in
// manifest go into the index; sections listed in written get a file.
func writePlanningDir(t *testing.T, manifest, written []string) string {
	t.Helper()

	dir := t.TempDir()
	sectionsDir := filepath.Join(dir, constants.SectionsDirName)
	require.NoError(t, os.MkdirAll(sectionsDir, 0o750))

	if manifest != nil {
		index := "# Section Index\n\n" + RenderManifest(manifest) + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(sectionsDir, constants.SectionIndexFileName), []byte(index), 0o600))
	}
	for _, name := range written {
		require.NoError(t, os.WriteFile(filepath.Join(sectionsDir, name+".md"), []byte("# "+name+"\n"), 0o600))
	}
	return dir
}

func TestCheckProgressStates(t *testing.T) {
	t.Parallel()

	t.Run("fresh when no index", func(t *testing.T) {
		t.Parallel()

		progress := CheckProgress(t.TempDir())
		assert.Equal(t, constants.SectionStateFresh, progress.State)
	})

	t.Run("invalid index when manifest missing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sectionsDir := filepath.Join(dir, constants.SectionsDirName)
		require.NoError(t, os.MkdirAll(sectionsDir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(sectionsDir, constants.SectionIndexFileName), []byte("no manifest here\n"), 0o600))

		progress := CheckProgress(dir)
		assert.Equal(t, constants.SectionStateInvalidIndex, progress.State)
		require.Error(t, progress.ParseError)
	})

	t.Run("has_index when no files written", func(t *testing.T) {
		t.Parallel()

		dir := writePlanningDir(t, []string{"section-01-a", "section-02-b"}, nil)

		progress := CheckProgress(dir)
		assert.Equal(t, constants.SectionStateHasIndex, progress.State)
		assert.Equal(t, "section-01-a", progress.NextSection)
		assert.Equal(t, "0/2", progress.Ratio())
	})

	t.Run("partial when some files written", func(t *testing.T) {
		t.Parallel()

		dir := writePlanningDir(t,
			[]string{"section-01-a", "section-02-b", "section-03-c"},
			[]string{"section-01-a"})

		progress := CheckProgress(dir)
		assert.Equal(t, constants.SectionStatePartial, progress.State)
		assert.Equal(t, []string{"section-01-a"}, progress.CompletedSections)
		assert.Equal(t, []string{"section-02-b", "section-03-c"}, progress.MissingSections)
		assert.Equal(t, "section-02-b", progress.NextSection)
	})

	t.Run("complete when all files written", func(t *testing.T) {
		t.Parallel()

		dir := writePlanningDir(t,
			[]string{"section-01-a", "section-02-b"},
			[]string{"section-01-a", "section-02-b"})

		progress := CheckProgress(dir)
		assert.Equal(t, constants.SectionStateComplete, progress.State)
		assert.Empty(t, progress.MissingSections)
		assert.Empty(t, progress.NextSection)
	})
}

func TestCheckProgressNextSectionFollowsManifestOrder(t *testing.T) {
	t.Parallel()

	// The second section completed first; next must still be the first
	// missing section in manifest order, not filesystem order.
	dir := writePlanningDir(t,
		[]string{"section-01-a", "section-02-b", "section-03-c"},
		[]string{"section-02-b"})

	progress := CheckProgress(dir)
	assert.Equal(t, "section-01-a", progress.NextSection)
}

func TestScan(t *testing.T) {
	t.Parallel()

	t.Run("missing dir yields zero value", func(t *testing.T) {
		t.Parallel()

		a := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
		assert.Equal(t, Artifacts{}, a)
	})

	t.Run("finds artifacts and listings", func(t *testing.T) {
		t.Parallel()

		dir := writePlanningDir(t, []string{"section-01-a"}, []string{"section-01-a"})
		require.NoError(t, os.WriteFile(filepath.Join(dir, constants.PlanFileName), []byte("plan"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, constants.PlanTDDFileName), []byte("tdd"), 0o600))
		reviewsDir := filepath.Join(dir, constants.ReviewsDirName)
		require.NoError(t, os.MkdirAll(reviewsDir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(reviewsDir, "iteration-1-gemini.md"), []byte("r"), 0o600))

		a := Scan(dir)
		assert.True(t, a.Plan)
		assert.True(t, a.PlanTDD)
		assert.False(t, a.Research)
		assert.Equal(t, []string{"iteration-1-gemini.md"}, a.Reviews)
		assert.Equal(t, []string{"section-01-a.md"}, a.Sections)
		assert.True(t, a.SectionsIndex)
	})
}
