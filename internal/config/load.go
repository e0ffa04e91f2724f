package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	dperrors "github.com/mrz1836/deepplan/internal/errors"
)

// newViperInstance creates a Viper instance with the standard setup: built-in
// defaults, DEEPPLAN_ environment prefix, and dot-to-underscore key mapping.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DEEPPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers the built-in defaults. Keys must match the JSON tag
// names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	defaults := DefaultGlobal()

	v.SetDefault("models.gemini", defaults.Models.Gemini)
	v.SetDefault("models.chatgpt", defaults.Models.ChatGPT)

	v.SetDefault("llm_client.max_retries", defaults.LLMClient.MaxRetries)
	v.SetDefault("llm_client.retry_codes", defaults.LLMClient.RetryCodes)
	v.SetDefault("llm_client.timeout_seconds", defaults.LLMClient.TimeoutSeconds)

	v.SetDefault("context.check_enabled", defaults.Context.CheckEnabled)
}

// isConfigNotFoundError reports whether err is viper's missing-config error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound)
}

// GlobalConfigPath returns the path of config.json inside the plugin root.
func GlobalConfigPath(pluginRoot string) string {
	return filepath.Join(pluginRoot, "config.json")
}

// LoadGlobal reads config.json from the plugin root, layering it over the
// built-in defaults and beneath any DEEPPLAN_* environment overrides.
func LoadGlobal(pluginRoot string) (*Global, error) {
	if pluginRoot == "" {
		return nil, fmt.Errorf("%w: plugin root", dperrors.ErrEmptyValue)
	}

	path := GlobalConfigPath(pluginRoot)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigNotFound, path)
	}

	v := newViperInstance()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigInvalid, err)
	}

	var cfg Global
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, fmt.Errorf("%w: %s", dperrors.ErrConfigInvalid, err)
	}

	return &cfg, nil
}

// viperDecoderOption configures mapstructure decoding for Unmarshal.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
