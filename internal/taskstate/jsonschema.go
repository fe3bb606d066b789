package taskstate

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// CompileJSONSchema compiles the JSON Schema at path.
func CompileJSONSchema(path string) (*jsonschema.Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema %s: %w", path, err)
	}
	return schema, nil
}

// ValidateJSONSchema validates the document against a compiled JSON Schema
// and returns one SchemaViolation per leaf failure. The document is converted
// to its JSON form first; repeated keys keep their first occurrence, since
// they are already reported as DuplicateKey.
func ValidateJSONSchema(doc *Document, schema *jsonschema.Schema) ([]Violation, error) {
	value, err := toJSONValue(doc.top)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(value)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("json schema validation: %w", err)
	}

	var leaves []*jsonschema.ValidationError
	collectLeaves(ve, &leaves)
	sort.SliceStable(leaves, func(i, j int) bool {
		if leaves[i].InstanceLocation != leaves[j].InstanceLocation {
			return leaves[i].InstanceLocation < leaves[j].InstanceLocation
		}
		return leaves[i].Message < leaves[j].Message
	})

	violations := make([]Violation, 0, len(leaves))
	for _, leaf := range leaves {
		segments := pointerSegments(leaf.InstanceLocation)
		v := Violation{Kind: KindSchemaViolation, Line: doc.top.Line}
		location := "document"
		if len(segments) > 0 {
			location = strings.Join(segments, ".")
			if e, found := doc.Lookup(segments[0]); found {
				v.Task = e.ID
				v.Line = e.Line
			} else if segments[0] == SchemaVersionKey && len(doc.versions) > 0 {
				v.Line = doc.versions[0].key.Line
			}
		}
		v.Message = fmt.Sprintf("%s: %s", location, leaf.Message)
		violations = append(violations, v)
	}
	return violations, nil
}

// ApplyJSONSchema runs ValidateJSONSchema and merges the result.
func ApplyJSONSchema(result *Result, doc *Document, schema *jsonschema.Schema) error {
	violations, err := ValidateJSONSchema(doc, schema)
	if err != nil {
		return err
	}
	result.Violations = append(result.Violations, violations...)
	result.sortViolations()
	return nil
}

func collectLeaves(err *jsonschema.ValidationError, leaves *[]*jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		*leaves = append(*leaves, err)
		return
	}
	for _, cause := range err.Causes {
		collectLeaves(cause, leaves)
	}
}

func pointerSegments(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		parts[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return parts
}

// toJSONValue converts a YAML node tree to the generic values produced by
// encoding/json, which is what the schema validator expects.
func toJSONValue(n *yaml.Node) (any, error) {
	plain, err := plainValue(n)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document for validation: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document for validation: %w", err)
	}
	return out, nil
}

func plainValue(n *yaml.Node) (any, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if _, seen := m[key]; seen {
				continue
			}
			v, err := plainValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := plainValue(item)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
		return v, nil
	default:
		return nil, nil
	}
}
