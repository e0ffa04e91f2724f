package planning

import (
	"strings"

	"github.com/mrz1836/deepplan/internal/constants"
	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

// ParseManifest extracts the ordered list of section names from the
// SECTION_MANIFEST block embedded in the section index document.
//
// The block looks like:
//
//	<!-- SECTION_MANIFEST
//	section-01-foo
//	section-02-bar
//	END_MANIFEST -->
//
// One section name per line, order-significant. Parsing fails explicitly
// (never silently defaults to empty) when the block is absent or declares
// no sections; that failure powers the invalid_index terminal state.
func ParseManifest(indexText string) ([]string, error) {
	start := strings.Index(indexText, constants.ManifestOpen)
	if start < 0 {
		return nil, dperrors.ErrManifestMissing
	}
	rest := indexText[start+len(constants.ManifestOpen):]

	end := strings.Index(rest, constants.ManifestClose)
	if end < 0 {
		return nil, dperrors.ErrManifestMissing
	}

	var names []string
	for _, line := range strings.Split(rest[:end], "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, dperrors.ErrManifestEmpty
	}
	return names, nil
}

// RenderManifest renders section names as a SECTION_MANIFEST block suitable
// for embedding in an index document. RenderManifest and ParseManifest
// round-trip: parsing a rendered manifest yields the input names.
func RenderManifest(names []string) string {
	var b strings.Builder
	b.WriteString(constants.ManifestOpen)
	b.WriteString("\n")
	for _, name := range names {
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString(constants.ManifestClose)
	return b.String()
}
