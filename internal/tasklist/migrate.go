package tasklist

import (
	"strings"

	"github.com/mrz1836/deepplan/internal/domain"
)

// NeedsMigration detects the legacy on-disk layout where section tasks were
// appended after the closing workflow steps instead of being inserted before
// final verification.
//
// Legacy layout: "Write Section Files" at 19, "Final Verification" at 20,
// "Output Summary" at 21, section and batch tasks at 22 and beyond, with
// final verification blocked by the placeholder rather than the last batch.
// The current layout inserts section tasks at 19 and pushes final
// verification and the summary past them.
//
// Detection sniffs two positions: a batch or section subject at 22 combined
// with "Final Verification" at 20. No other combination occurs in either
// layout. Migration itself is just a normal reconcile — the positional diff
// rewrites every displaced record.
func NeedsMigration(current map[domain.Position]domain.Record) bool {
	hasSectionAt22 := false
	if record, ok := current[22]; ok {
		subject := strings.ToLower(record.Subject)
		hasSectionAt22 = strings.Contains(subject, "batch") || strings.Contains(subject, "section")
	}

	hasFinalAt20 := false
	if record, ok := current[20]; ok {
		hasFinalAt20 = strings.Contains(record.Subject, "Final Verification")
	}

	return hasSectionAt22 && hasFinalAt20
}
