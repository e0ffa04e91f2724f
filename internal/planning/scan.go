// Package planning inspects a planning directory for workflow artifacts and
// derives section progress and the correct resume point from what it finds.
//
// All functions in this package are pure reads of the filesystem at call
// time. There is no caching and no side effects.
//
// Import rules:
//   - CAN import: internal/constants, internal/errors, std lib
//   - MUST NOT import: internal/tasklist, internal/workflow, internal/cli
package planning

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrz1836/deepplan/internal/constants"
)

// Artifacts records which workflow artifact files exist in a planning
// directory. A missing planning directory yields the zero value; scanning
// never fails.
type Artifacts struct {
	Research         bool
	Interview        bool
	Spec             bool
	Plan             bool
	IntegrationNotes bool
	PlanTDD          bool

	// Reviews lists review filenames found under reviews/.
	Reviews []string

	// Sections lists section filenames found under sections/.
	Sections []string

	// SectionsIndex reports whether sections/index.md exists.
	SectionsIndex bool
}

// Scan inspects a planning directory for the presence of known workflow
// artifact files. It tolerates a missing directory as "nothing found".
func Scan(planningDir string) Artifacts {
	a := Artifacts{
		Research:         fileExists(filepath.Join(planningDir, constants.ResearchFileName)),
		Interview:        fileExists(filepath.Join(planningDir, constants.InterviewFileName)),
		Spec:             fileExists(filepath.Join(planningDir, constants.SpecFileName)),
		Plan:             fileExists(filepath.Join(planningDir, constants.PlanFileName)),
		IntegrationNotes: fileExists(filepath.Join(planningDir, constants.IntegrationNotesFileName)),
		PlanTDD:          fileExists(filepath.Join(planningDir, constants.PlanTDDFileName)),
	}

	a.Reviews = listMarkdownFiles(filepath.Join(planningDir, constants.ReviewsDirName), "")
	sectionsDir := filepath.Join(planningDir, constants.SectionsDirName)
	a.Sections = listMarkdownFiles(sectionsDir, constants.SectionFilePrefix)
	a.SectionsIndex = fileExists(filepath.Join(sectionsDir, constants.SectionIndexFileName))

	return a
}

// Summary builds a human-readable list of found artifacts for JSON output.
func (a Artifacts) Summary(progress Progress) []string {
	var summary []string
	add := func(present bool, name string) {
		if present {
			summary = append(summary, name)
		}
	}
	add(a.Research, constants.ResearchFileName)
	add(a.Interview, constants.InterviewFileName)
	add(a.Spec, constants.SpecFileName)
	add(a.Plan, constants.PlanFileName)
	add(a.IntegrationNotes, constants.IntegrationNotesFileName)
	add(a.PlanTDD, constants.PlanTDDFileName)

	if len(a.Reviews) > 0 {
		summary = append(summary, fmt.Sprintf("reviews/ (%d files)", len(a.Reviews)))
	}

	switch {
	case a.SectionsIndex && progress.State == constants.SectionStateComplete:
		summary = append(summary, fmt.Sprintf("sections/ (%s complete)", progress.Ratio()))
	case a.SectionsIndex:
		summary = append(summary, fmt.Sprintf("sections/ (%s, %s)", progress.Ratio(), progress.State))
	case len(a.Sections) > 0:
		summary = append(summary, fmt.Sprintf("sections/ (%d files, no index)", len(a.Sections)))
	}

	return summary
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// listMarkdownFiles returns sorted .md filenames in dir matching prefix.
// Missing directories yield nil.
func listMarkdownFiles(dir, prefix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
