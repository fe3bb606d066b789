package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dyluth/tasklint/internal/taskstate"
)

// Version is the only supported config file version.
const Version = "1.0"

// Default file locations, relative to the working directory.
const (
	DefaultStateFile     = "agents/tasks_state.yaml"
	DefaultTasksFile     = "agents/tasks.yaml"
	DefaultDecisionsFile = "agents/decisions.md"
)

// FileNames are the config file names searched for, in order.
var FileNames = []string{".tasklint.yml", ".tasklint.yaml", ".tasklint.toml"}

// Config represents the top-level .tasklint.yml configuration
type Config struct {
	Version       string       `yaml:"version" toml:"version"`
	StateFile     string       `yaml:"state_file,omitempty" toml:"state_file"`
	TasksFile     string       `yaml:"tasks_file,omitempty" toml:"tasks_file"`
	DecisionsFile string       `yaml:"decisions_file,omitempty" toml:"decisions_file"`
	JSONSchema    string       `yaml:"json_schema,omitempty" toml:"json_schema"` // Optional JSON Schema applied on top of the built-in checks
	Schema        SchemaConfig `yaml:"schema,omitempty" toml:"schema"`
}

// SchemaConfig is the task-state schema. It must be kept in sync with the
// role documentation that describes the workflow.
type SchemaConfig struct {
	Version        *int     `yaml:"version,omitempty" toml:"version"` // Expected schema_version (0 = don't check, default = 2)
	Statuses       []string `yaml:"statuses,omitempty" toml:"statuses"`
	RequiredFields []string `yaml:"required_fields,omitempty" toml:"required_fields"`
	NullPRStatuses []string `yaml:"null_pr_statuses,omitempty" toml:"null_pr_statuses"`
	MergedStatuses []string `yaml:"merged_statuses,omitempty" toml:"merged_statuses"`
	PlanSections   []string `yaml:"plan_sections,omitempty" toml:"plan_sections"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{Version: Version}
	// Defaults never fail validation.
	_ = cfg.Validate()
	return cfg
}

// Validate applies defaults to unset values and checks the configuration.
func (c *Config) Validate() error {
	// Required: version
	if c.Version != Version {
		return fmt.Errorf("unsupported version: %s (expected: %s)", c.Version, Version)
	}

	if c.StateFile == "" {
		c.StateFile = DefaultStateFile
	}
	if c.TasksFile == "" {
		c.TasksFile = DefaultTasksFile
	}
	if c.DecisionsFile == "" {
		c.DecisionsFile = DefaultDecisionsFile
	}

	return c.Schema.Validate()
}

// Validate applies schema defaults and checks consistency between lists.
// Empty statuses, required fields and plan sections fall back to defaults.
// The pr and merged lists default only when absent, so an explicit empty
// list turns that rule off.
func (s *SchemaConfig) Validate() error {
	defaults := taskstate.DefaultSchema()

	if s.Version == nil {
		v := defaults.Version
		s.Version = &v
	} else if *s.Version < 0 {
		return fmt.Errorf("schema.version must be >= 0 (0 = don't check), got %d", *s.Version)
	}
	if len(s.Statuses) == 0 {
		s.Statuses = defaults.Statuses
	}
	if len(s.RequiredFields) == 0 {
		s.RequiredFields = defaults.RequiredFields
	} else if !slices.Contains(s.RequiredFields, taskstate.FieldStatus) {
		// Every record carries a status, whatever else is required
		s.RequiredFields = append([]string{taskstate.FieldStatus}, s.RequiredFields...)
	}
	if s.NullPRStatuses == nil {
		s.NullPRStatuses = defaults.NullPRStatuses
	}
	if s.MergedStatuses == nil {
		s.MergedStatuses = defaults.MergedStatuses
	}
	if len(s.PlanSections) == 0 {
		s.PlanSections = slices.Clone(taskstate.DefaultPlanSections)
	}

	seen := make(map[string]bool)
	for _, status := range s.Statuses {
		if strings.TrimSpace(status) == "" {
			return fmt.Errorf("schema.statuses must not contain empty values")
		}
		if seen[status] {
			return fmt.Errorf("duplicate status '%s' in schema.statuses", status)
		}
		seen[status] = true
	}

	for _, field := range s.RequiredFields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("schema.required_fields must not contain empty values")
		}
	}

	for _, status := range s.NullPRStatuses {
		if !seen[status] {
			return fmt.Errorf("schema.null_pr_statuses: unknown status '%s' (must be one of: %s)", status, strings.Join(s.Statuses, ", "))
		}
	}
	for _, status := range s.MergedStatuses {
		if !seen[status] {
			return fmt.Errorf("schema.merged_statuses: unknown status '%s' (must be one of: %s)", status, strings.Join(s.Statuses, ", "))
		}
	}

	return nil
}

// TaskSchema converts the validated schema section for the validator.
func (c *Config) TaskSchema() taskstate.Schema {
	s := taskstate.Schema{
		Statuses:       slices.Clone(c.Schema.Statuses),
		RequiredFields: slices.Clone(c.Schema.RequiredFields),
		NullPRStatuses: slices.Clone(c.Schema.NullPRStatuses),
		MergedStatuses: slices.Clone(c.Schema.MergedStatuses),
	}
	if c.Schema.Version != nil {
		s.Version = *c.Schema.Version
	}
	return s
}

// Load reads and validates a config file. Files ending in .toml are decoded
// as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Find returns the first config file present in dir, or "" if none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Resolve loads the explicit config path when given, otherwise the first
// config file found in dir, otherwise the defaults. It returns the config
// and the path it came from ("" for defaults). Environment overrides are
// applied last.
func Resolve(explicit, dir string, getenv func(string) string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = Find(dir)
	}

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, path, err
		}
		cfg = loaded
	}

	ApplyEnv(cfg, getenv)
	return cfg, path, nil
}
