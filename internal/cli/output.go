package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// errCommandFailed signals a failure that was already reported as a JSON
// object on stdout. Cobra must not print anything further for it; main maps
// it to exit code 1.
//
//nolint:gochecknoglobals // Sentinel error
var errCommandFailed = errors.New("command failed")

// IsReportedFailure reports whether err is a failure already rendered as
// JSON on stdout.
func IsReportedFailure(err error) bool {
	return errors.Is(err, errCommandFailed)
}

// printResult renders exactly one indented JSON object to w. Every command
// prints exactly once, immediately before returning — the host agent parses
// stdout as a single object and nothing else may be written there.
func printResult(w io.Writer, result any) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// failResult prints the result object and returns the sentinel failure
// error for exit code 1.
func failResult(w io.Writer, result any) error {
	if err := printResult(w, result); err != nil {
		return err
	}
	return errCommandFailed
}
