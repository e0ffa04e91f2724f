// Package config manages the two configuration layers of the planning
// plugin: the global plugin config (config.json in the plugin root) and the
// per-session config (deep_plan_config.json in the planning directory).
package config

import "github.com/mrz1836/deepplan/internal/constants"

// Global is the plugin-wide configuration loaded from config.json in the
// plugin root.
type Global struct {
	Models    ModelsConfig    `json:"models" mapstructure:"models"`
	LLMClient LLMClientConfig `json:"llm_client" mapstructure:"llm_client"`
	Context   ContextConfig   `json:"context" mapstructure:"context"`
	VertexAI  VertexAIConfig  `json:"vertex_ai,omitempty" mapstructure:"vertex_ai"`
}

// ModelsConfig names the default model per review provider. Environment
// variables (GEMINI_MODEL, OPENAI_MODEL) override these at call time.
type ModelsConfig struct {
	Gemini  string `json:"gemini" mapstructure:"gemini"`
	ChatGPT string `json:"chatgpt" mapstructure:"chatgpt"`
}

// LLMClientConfig controls retry and timeout behavior of review calls.
type LLMClientConfig struct {
	MaxRetries     int   `json:"max_retries" mapstructure:"max_retries"`
	RetryCodes     []int `json:"retry_codes" mapstructure:"retry_codes"`
	TimeoutSeconds int   `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// ContextConfig toggles the context-window prompt before heavy operations.
type ContextConfig struct {
	CheckEnabled bool `json:"check_enabled" mapstructure:"check_enabled"`
}

// VertexAIConfig optionally pins the Vertex AI project and location used
// when Gemini authenticates through application default credentials.
type VertexAIConfig struct {
	Project  string `json:"project,omitempty" mapstructure:"project"`
	Location string `json:"location,omitempty" mapstructure:"location"`
}

// Session is the per-planning-directory configuration. It is a copy of the
// global config at session creation time plus the session-specific keys, so
// every command can reference a single file for both plugin settings and
// session paths.
type Session struct {
	Global

	PluginRoot  string `json:"plugin_root" mapstructure:"plugin_root"`
	PlanningDir string `json:"planning_dir" mapstructure:"planning_dir"`
	InitialFile string `json:"initial_file" mapstructure:"initial_file"`
	ReviewMode  string `json:"review_mode,omitempty" mapstructure:"review_mode"`
}

// DefaultGlobal returns the built-in defaults applied beneath config.json.
func DefaultGlobal() Global {
	return Global{
		Models: ModelsConfig{
			Gemini:  "gemini-2.5-pro",
			ChatGPT: "gpt-5",
		},
		LLMClient: LLMClientConfig{
			MaxRetries:     3,
			RetryCodes:     []int{429, 500, 502, 503, 504},
			TimeoutSeconds: 300,
		},
		Context: ContextConfig{
			CheckEnabled: true,
		},
	}
}

// SessionRequiredKeys lists the keys a session config must carry to be
// considered valid.
//
//nolint:gochecknoglobals // Static validation list
var SessionRequiredKeys = []string{"plugin_root", "planning_dir", "initial_file"}

// SessionFileName is the session config filename inside the planning dir.
const SessionFileName = constants.SessionConfigName
