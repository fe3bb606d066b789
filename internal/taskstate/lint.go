package taskstate

import (
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Linter bundles the schema with the optional checks that need extra inputs.
type Linter struct {
	Schema Schema
	// Plan enables the active-task cross-check when set.
	Plan *Plan
	// JSONSchema enables JSON Schema validation when set.
	JSONSchema *jsonschema.Schema
}

// LintFile reads path and runs every configured check on it.
func (l *Linter) LintFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return l.LintBytes(path, data)
}

// LintBytes runs every configured check on in-memory content. Unparseable
// content yields a single MalformedInput violation and skips the rest.
func (l *Linter) LintBytes(name string, data []byte) (*Result, error) {
	doc, err := Parse(data)
	if err != nil {
		if !IsParseError(err) {
			return nil, err
		}
		return malformed(name, err), nil
	}
	doc.Name = name

	result := Validate(doc, l.Schema)
	if l.Plan != nil {
		CheckPlan(result, doc, l.Plan)
	}
	if l.JSONSchema != nil {
		if err := ApplyJSONSchema(result, doc, l.JSONSchema); err != nil {
			return nil, err
		}
	}
	return result, nil
}
