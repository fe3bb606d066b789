package config

// Environment variables that override file locations.
const (
	EnvStateFile     = "TASKLINT_STATE_FILE"
	EnvTasksFile     = "TASKLINT_TASKS_FILE"
	EnvDecisionsFile = "TASKLINT_DECISIONS_FILE"
	EnvJSONSchema    = "TASKLINT_JSON_SCHEMA"
)

// ApplyEnv overrides config values from environment variables. getenv is
// usually os.Getenv; a nil getenv leaves the config untouched.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := getenv(EnvStateFile); v != "" {
		cfg.StateFile = v
	}
	if v := getenv(EnvTasksFile); v != "" {
		cfg.TasksFile = v
	}
	if v := getenv(EnvDecisionsFile); v != "" {
		cfg.DecisionsFile = v
	}
	if v := getenv(EnvJSONSchema); v != "" {
		cfg.JSONSchema = v
	}
}
