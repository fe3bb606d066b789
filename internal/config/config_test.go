package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/tasklint/internal/taskstate"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, ".tasklint.yml", `version: "1.0"
state_file: state/tasks_state.yaml
schema:
  version: 3
  statuses: [open, active, closed]
  required_fields: [status, owner]
  null_pr_statuses: [open]
  merged_statuses: [closed]
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, "state/tasks_state.yaml", config.StateFile)
	assert.Equal(t, DefaultTasksFile, config.TasksFile)
	assert.Equal(t, DefaultDecisionsFile, config.DecisionsFile)
	assert.Equal(t, []string{"open", "active", "closed"}, config.Schema.Statuses)
	assert.Equal(t, taskstate.DefaultPlanSections, config.Schema.PlanSections)

	schema := config.TaskSchema()
	assert.Equal(t, 3, schema.Version)
	assert.Equal(t, []string{"status", "owner"}, schema.RequiredFields)
	assert.True(t, schema.IsValidStatus("active"))
	assert.False(t, schema.IsValidStatus("done"))
}

func TestLoad_TOMLConfig(t *testing.T) {
	configPath := writeConfig(t, ".tasklint.toml", `version = "1.0"
tasks_file = "plan/tasks.yaml"

[schema]
version = 0
statuses = ["todo", "done"]
null_pr_statuses = ["todo"]
merged_statuses = ["done"]
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "plan/tasks.yaml", config.TasksFile)
	assert.Equal(t, DefaultStateFile, config.StateFile)
	require.NotNil(t, config.Schema.Version)
	assert.Equal(t, 0, *config.Schema.Version)
	assert.Equal(t, []string{"todo"}, config.Schema.NullPRStatuses)
	assert.Equal(t, 0, config.TaskSchema().Version)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/.tasklint.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, ".tasklint.yml", `version: "1.0"
schema:
  - this is invalid
    yaml syntax
`)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidTOML(t *testing.T) {
	configPath := writeConfig(t, ".tasklint.toml", "version = \n")

	_, err := Load(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	config := &Config{Version: "2.0"}

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version: 2.0")
}

func TestValidate_SchemaErrors(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		schema  SchemaConfig
		wantErr string
	}{
		{
			name:    "duplicate status",
			schema:  SchemaConfig{Statuses: []string{"todo", "todo"}},
			wantErr: "duplicate status 'todo'",
		},
		{
			name:    "empty status",
			schema:  SchemaConfig{Statuses: []string{"todo", " "}},
			wantErr: "must not contain empty values",
		},
		{
			name:    "unknown null pr status",
			schema:  SchemaConfig{Statuses: []string{"todo", "done"}, NullPRStatuses: []string{"ready"}},
			wantErr: "schema.null_pr_statuses: unknown status 'ready'",
		},
		{
			name:    "unknown merged status",
			schema:  SchemaConfig{Statuses: []string{"todo", "done"}, NullPRStatuses: []string{}, MergedStatuses: []string{"merged"}},
			wantErr: "schema.merged_statuses: unknown status 'merged'",
		},
		{
			name:    "negative version",
			schema:  SchemaConfig{Version: &negative},
			wantErr: "schema.version must be >= 0",
		},
		{
			name:    "empty required field",
			schema:  SchemaConfig{RequiredFields: []string{""}},
			wantErr: "schema.required_fields must not contain empty values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{Version: Version, Schema: tt.schema}
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_StatusIsAlwaysRequired(t *testing.T) {
	path := writeConfig(t, ".tasklint.yml", `version: "1.0"
schema:
  required_fields: [owner]
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{taskstate.FieldStatus, "owner"}, config.Schema.RequiredFields)

	result := taskstate.ValidateBytes("state.yaml", []byte("schema_version: 2\nT-001:\n  owner: alice\n"), config.TaskSchema())
	require.Len(t, result.Violations, 1)
	assert.Equal(t, taskstate.KindMissingField, result.Violations[0].Kind)
	assert.Contains(t, result.Violations[0].Message, "'status'")
}

func TestDefault_MatchesBuiltInSchema(t *testing.T) {
	config := Default()

	assert.Equal(t, DefaultStateFile, config.StateFile)
	assert.Equal(t, taskstate.DefaultSchema(), config.TaskSchema())
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", Find(dir))

	tomlPath := filepath.Join(dir, ".tasklint.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`version = "1.0"`), 0644))
	assert.Equal(t, tomlPath, Find(dir))

	ymlPath := filepath.Join(dir, ".tasklint.yml")
	require.NoError(t, os.WriteFile(ymlPath, []byte(`version: "1.0"`), 0644))
	assert.Equal(t, ymlPath, Find(dir), ".yml takes precedence")
}

func TestResolve(t *testing.T) {
	t.Run("defaults when no file exists", func(t *testing.T) {
		config, source, err := Resolve("", t.TempDir(), nil)
		require.NoError(t, err)
		assert.Equal(t, "", source)
		assert.Equal(t, DefaultStateFile, config.StateFile)
	})

	t.Run("explicit path must load", func(t *testing.T) {
		_, source, err := Resolve("/nonexistent/.tasklint.yml", t.TempDir(), nil)
		require.Error(t, err)
		assert.Equal(t, "/nonexistent/.tasklint.yml", source)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".tasklint.yml"),
			[]byte("version: \"1.0\"\nstate_file: from-file.yaml\n"), 0644))

		env := map[string]string{
			EnvStateFile:  "from-env.yaml",
			EnvJSONSchema: "schema.json",
		}
		config, source, err := Resolve("", dir, func(k string) string { return env[k] })
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ".tasklint.yml"), source)
		assert.Equal(t, "from-env.yaml", config.StateFile)
		assert.Equal(t, "schema.json", config.JSONSchema)
		assert.Equal(t, DefaultTasksFile, config.TasksFile)
	})
}
