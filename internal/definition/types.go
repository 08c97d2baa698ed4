package definition

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Path is where the agent definition lives, relative to a source root and
// inside a package layer.
const Path = "adp/agent.yaml"

// Definition is a parsed agent definition.
type Definition struct {
	ADPVersion  string  `yaml:"adp_version" json:"adp_version"`
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name,omitempty" json:"name,omitempty"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Runtime     Runtime `yaml:"runtime" json:"runtime"`

	// Flow and Evaluation are carried as untyped trees; nothing in the
	// packaging path interprets them.
	Flow       interface{} `yaml:"flow,omitempty" json:"flow,omitempty"`
	Evaluation interface{} `yaml:"evaluation,omitempty" json:"evaluation,omitempty"`

	// Extra keeps top-level keys this version does not model.
	Extra map[string]interface{} `yaml:",inline" json:"-"`
}

// Runtime declares how the agent is executed.
type Runtime struct {
	Execution []ExecutionEntry `yaml:"execution" json:"execution"`
	Models    []Model          `yaml:"models,omitempty" json:"models,omitempty"`
}

// ExecutionEntry is one way of running the agent (a backend and its entrypoint).
type ExecutionEntry struct {
	Backend    string            `yaml:"backend" json:"backend"`
	ID         string            `yaml:"id" json:"id"`
	Entrypoint Entrypoint        `yaml:"entrypoint,omitempty" json:"entrypoint,omitempty"`
	Image      string            `yaml:"image,omitempty" json:"image,omitempty"`
	Module     string            `yaml:"module,omitempty" json:"module,omitempty"`
	Env        map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Model is an LLM the agent is configured to call.
type Model struct {
	ID          string                 `yaml:"id" json:"id"`
	Provider    string                 `yaml:"provider" json:"provider"`
	Model       string                 `yaml:"model,omitempty" json:"model,omitempty"`
	APIKeyEnv   string                 `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`
	BaseURL     string                 `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Temperature *float64               `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   *int                   `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Extensions  map[string]interface{} `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// Entrypoint is a command written either as one string ("agent.main:app")
// or as a list of arguments.
type Entrypoint []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (e *Entrypoint) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*e = Entrypoint{s}
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := value.Decode(&args); err != nil {
			return err
		}
		*e = args
		return nil
	default:
		return fmt.Errorf("line %d: entrypoint must be a string or a list of strings", value.Line)
	}
}

// MarshalYAML writes a single-element entrypoint back as a plain string.
func (e Entrypoint) MarshalYAML() (interface{}, error) {
	if len(e) == 1 {
		return e[0], nil
	}
	return []string(e), nil
}
