// Package logging provides zerolog helpers for the deepplan CLI, chiefly
// redaction of provider credentials before anything reaches a log file.
package logging

import (
	"io"
	"regexp"
	"strings"
)

// RedactedValue replaces sensitive data in log output.
const RedactedValue = "[REDACTED]"

// sensitivePatterns match credential formats the review providers use.
//
//nolint:gochecknoglobals // Compiled once for reuse
var sensitivePatterns = []*regexp.Regexp{
	// OpenAI-style API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),

	// Google API keys
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),

	// key=value style assignments of api keys, tokens, and secrets
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*["']?[^\s"']{12,}["']?`),
}

// sensitiveFieldNames are log field names whose values are always redacted,
// matched case-insensitively by substring.
//
//nolint:gochecknoglobals // Static list for reuse
var sensitiveFieldNames = []string{
	"api_key",
	"apikey",
	"token",
	"secret",
	"password",
	"credential",
	"authorization",
}

// FilterSensitiveValue redacts every credential pattern found in value.
func FilterSensitiveValue(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveFieldName reports whether a field name indicates a credential.
func IsSensitiveFieldName(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFieldNames {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// RedactIfSensitive redacts the whole value when the field name indicates a
// credential, otherwise pattern-filters the value.
func RedactIfSensitive(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// FilteringWriter wraps the log file writer so credentials never hit disk
// even when embedded in messages or field values.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w with credential redaction.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer. The original length is returned so callers do
// not observe a short write when redaction changes the byte count.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	if _, err = fw.w.Write([]byte(FilterSensitiveValue(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
