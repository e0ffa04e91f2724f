package planning

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/deepplan/internal/constants"
)

// Progress is the derived section-writing progress for a planning directory.
// It is recomputed from disk on every call and never persisted.
type Progress struct {
	// State classifies overall progress.
	State constants.SectionState

	// DefinedSections is the ordered section list from the manifest.
	DefinedSections []string

	// CompletedSections is the subset of DefinedSections whose file exists.
	CompletedSections []string

	// MissingSections is DefinedSections minus CompletedSections, in
	// manifest order.
	MissingSections []string

	// NextSection is the first missing section in manifest order, empty
	// when nothing is missing.
	NextSection string

	// ParseError carries the manifest parse failure for invalid_index.
	ParseError error
}

// Ratio returns completed/defined as "N/M" for display.
func (p Progress) Ratio() string {
	return fmt.Sprintf("%d/%d", len(p.CompletedSections), len(p.DefinedSections))
}

// IsCompleted reports whether the named section has a file on disk.
func (p Progress) IsCompleted(name string) bool {
	for _, s := range p.CompletedSections {
		if s == name {
			return true
		}
	}
	return false
}

// CheckProgress parses the section manifest from sections/index.md and
// cross-references it against which section files exist.
//
// State classification:
//   - no index file            -> fresh
//   - index but manifest fails -> invalid_index (ParseError set)
//   - index, zero files        -> has_index
//   - some files               -> partial
//   - every file               -> complete
//
// NextSection follows manifest order, not filesystem order.
func CheckProgress(planningDir string) Progress {
	sectionsDir := filepath.Join(planningDir, constants.SectionsDirName)
	indexPath := filepath.Join(sectionsDir, constants.SectionIndexFileName)

	data, err := os.ReadFile(indexPath) //#nosec G304 -- path is constructed from the caller's planning dir
	if err != nil {
		return Progress{State: constants.SectionStateFresh}
	}

	defined, err := ParseManifest(string(data))
	if err != nil {
		return Progress{State: constants.SectionStateInvalidIndex, ParseError: err}
	}

	p := Progress{DefinedSections: defined}
	for _, name := range defined {
		if fileExists(filepath.Join(sectionsDir, name+".md")) {
			p.CompletedSections = append(p.CompletedSections, name)
		} else {
			p.MissingSections = append(p.MissingSections, name)
		}
	}

	if len(p.MissingSections) > 0 {
		p.NextSection = p.MissingSections[0]
	}

	switch {
	case len(p.CompletedSections) == len(defined):
		p.State = constants.SectionStateComplete
	case len(p.CompletedSections) == 0:
		p.State = constants.SectionStateHasIndex
	default:
		p.State = constants.SectionStatePartial
	}

	return p
}
