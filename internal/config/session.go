package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

const sessionFilePerm = 0o600

// SessionConfigPath returns the session config path for a planning dir.
func SessionConfigPath(planningDir string) string {
	return filepath.Join(planningDir, SessionFileName)
}

// SessionExists reports whether a session config file exists.
func SessionExists(planningDir string) bool {
	_, err := os.Stat(SessionConfigPath(planningDir))
	return err == nil
}

// LoadSession reads and validates the session config of a planning dir.
func LoadSession(planningDir string) (*Session, error) {
	path := SessionConfigPath(planningDir)

	data, err := os.ReadFile(path) //#nosec G304 -- path is derived from the caller's planning dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigInvalid, err)
	}

	if err := validateRequiredKeys(data); err != nil {
		return nil, err
	}

	// Defaults underneath, so a config written before a setting existed
	// keeps that setting's default rather than its zero value.
	session := Session{Global: DefaultGlobal()}
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigInvalid, err)
	}

	return &session, nil
}

// validateRequiredKeys checks the raw JSON document carries every required
// session key. Checked on the document rather than the struct so an empty
// string value still counts as present, matching key-presence semantics.
func validateRequiredKeys(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s", dperrors.ErrConfigInvalid, err)
	}

	var missing []string
	for _, key := range SessionRequiredKeys {
		if _, ok := doc[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", dperrors.ErrConfigMissingKeys, missing)
	}
	return nil
}

// CreateSession creates a session config by copying the plugin's global
// config.json and adding the session-specific keys. Unknown keys in the
// global config survive the copy.
func CreateSession(planningDir, pluginRoot, initialFile, reviewMode string) (*Session, error) {
	globalPath := GlobalConfigPath(pluginRoot)
	data, err := os.ReadFile(globalPath) //#nosec G304 -- path is derived from the caller's plugin root
	if err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigNotFound, globalPath)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigInvalid, err)
	}

	doc["plugin_root"] = pluginRoot
	doc["planning_dir"] = planningDir
	doc["initial_file"] = initialFile
	if reviewMode != "" {
		doc["review_mode"] = reviewMode
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigInvalid, err)
	}
	if err := os.WriteFile(SessionConfigPath(planningDir), out, sessionFilePerm); err != nil {
		return nil, fmt.Errorf("failed to write session config: %w", err)
	}

	return LoadSession(planningDir)
}

// GetOrCreateSession loads the existing session config or creates one from
// the global config. The second return reports whether a new file was
// created.
func GetOrCreateSession(planningDir, pluginRoot, initialFile, reviewMode string) (*Session, bool, error) {
	if SessionExists(planningDir) {
		session, err := LoadSession(planningDir)
		return session, false, err
	}
	session, err := CreateSession(planningDir, pluginRoot, initialFile, reviewMode)
	return session, true, err
}
