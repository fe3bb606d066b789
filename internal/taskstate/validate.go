package taskstate

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dyluth/tasklint/internal/timespec"
)

// ValidateFile reads path and validates it. Unparseable content is a
// MalformedInput violation; an unreadable file is an *IOError.
func ValidateFile(path string, schema Schema) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return ValidateBytes(path, data, schema), nil
}

// ValidateBytes validates in-memory task-state content labelled name.
func ValidateBytes(name string, data []byte, schema Schema) *Result {
	doc, err := Parse(data)
	if err != nil {
		return malformed(name, err)
	}
	doc.Name = name
	return Validate(doc, schema)
}

// malformed reports content that could not be parsed as a single
// MalformedInput violation.
func malformed(name string, err error) *Result {
	r := &Result{File: name}
	var pe *ParseError
	if errors.As(err, &pe) {
		r.add(KindMalformedInput, "", pe.Line, "%s", pe.Msg)
	} else {
		r.add(KindMalformedInput, "", 0, "%v", err)
	}
	return r
}

// Validate checks a parsed document against schema. It never stops at the
// first problem and returns violations in file order.
func Validate(doc *Document, schema Schema) *Result {
	r := &Result{File: doc.Name}
	validateVersion(r, doc, schema)

	firstSeen := make(map[string]int)
	for _, e := range doc.Entries {
		if e.Key.Kind != yaml.ScalarNode {
			r.add(KindMalformedInput, "", e.Line, "task identifier must be a scalar, found %s", describe(e.Key))
			continue
		}
		if isNull(e.Key) {
			r.add(KindMalformedInput, "", e.Line, "task identifier must not be null")
			continue
		}
		if strings.TrimSpace(e.ID) == "" {
			r.add(KindMalformedInput, "", e.Line, "task identifier must not be empty")
			continue
		}
		if first, ok := firstSeen[e.ID]; ok {
			r.add(KindDuplicateKey, e.ID, e.Line, "task '%s' is defined more than once (first on line %d)", e.ID, first)
		} else {
			firstSeen[e.ID] = e.Line
		}
		validateRecord(r, e, schema)
	}
	r.Tasks = len(firstSeen)

	r.sortViolations()
	return r
}

func validateVersion(r *Result, doc *Document, schema Schema) {
	if len(doc.versions) == 0 {
		if schema.Version != 0 {
			r.warn("%s does not declare %s; expected %d", r.File, SchemaVersionKey, schema.Version)
		}
		return
	}

	first := doc.versions[0].key.Line
	for i, kv := range doc.versions {
		line := kv.key.Line
		if i > 0 {
			r.add(KindDuplicateKey, "", line, "%s is defined more than once (first on line %d)", SchemaVersionKey, first)
			continue
		}
		var got int
		if kv.value.Kind != yaml.ScalarNode || kv.value.ShortTag() != "!!int" || kv.value.Decode(&got) != nil {
			r.add(KindSchemaVersion, "", line, "%s must be an integer, found %s", SchemaVersionKey, describe(kv.value))
			continue
		}
		if schema.Version != 0 && got != schema.Version {
			r.add(KindSchemaVersion, "", line, "%s %d is not supported; expected %d", SchemaVersionKey, got, schema.Version)
		}
	}
}

func validateRecord(r *Result, e Entry, schema Schema) {
	id, line := e.ID, e.Line
	if e.Value.Kind != yaml.MappingNode {
		if isNull(e.Value) {
			r.add(KindMalformedInput, id, line, "record for '%s' is empty; expected a mapping of fields", id)
		} else {
			r.add(KindMalformedInput, id, line, "record for '%s' must be a mapping, found %s", id, describe(e.Value))
		}
		return
	}

	fields := make(map[string]*yaml.Node)
	var merges []*yaml.Node
	for i := 0; i+1 < len(e.Value.Content); i += 2 {
		k := e.Value.Content[i]
		if isMergeKey(k) {
			merges = append(merges, resolve(e.Value.Content[i+1]))
			continue
		}
		if k.Kind != yaml.ScalarNode {
			r.add(KindMalformedInput, id, line, "record for '%s' has a field name that is %s", id, describe(k))
			continue
		}
		if _, dup := fields[k.Value]; dup {
			r.add(KindMalformedInput, id, line, "record for '%s' defines field '%s' more than once", id, k.Value)
			continue
		}
		fields[k.Value] = resolve(e.Value.Content[i+1])
	}
	for _, m := range merges {
		if !mergeFields(fields, m) {
			r.add(KindMalformedInput, id, line, "record for '%s' merges %s; expected a mapping or a list of mappings", id, describe(m))
		}
	}

	for _, name := range schema.RequiredFields {
		if _, ok := fields[name]; !ok {
			r.add(KindMissingField, id, line, "'%s' is missing required field '%s'", id, name)
		}
	}

	status, statusOK := "", false
	if n, ok := fields[FieldStatus]; ok {
		if n.Kind == yaml.ScalarNode && !isNull(n) && schema.IsValidStatus(n.Value) {
			status, statusOK = n.Value, true
		} else {
			r.add(KindInvalidStatus, id, line, "status %s for '%s' is invalid; expected one of: %s",
				describe(n), id, strings.Join(schema.Statuses, ", "))
		}
	}

	if n, ok := fields[FieldPR]; ok && !isNull(n) {
		var pr int
		switch {
		case n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" || n.Decode(&pr) != nil || pr <= 0:
			r.add(KindFieldConstraint, id, line, "pr for '%s' must be null or a positive integer, found %s", id, describe(n))
		case statusOK && schema.requiresNullPR(status):
			r.add(KindFieldConstraint, id, line, "pr for '%s' must be null in '%s'", id, status)
		}
	}

	if n, ok := fields[FieldMerged]; ok && !isNull(n) {
		var merged bool
		switch {
		case n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" || n.Decode(&merged) != nil:
			r.add(KindFieldConstraint, id, line, "merged for '%s' must be true or false, found %s", id, describe(n))
		case merged && statusOK && !schema.allowsMerged(status):
			r.add(KindFieldConstraint, id, line, "merged for '%s' cannot be true in '%s'", id, status)
		}
	}

	for _, name := range []string{FieldOwner, FieldDescription} {
		if n, ok := fields[name]; ok && n.Kind != yaml.ScalarNode {
			r.add(KindFieldConstraint, id, line, "%s for '%s' must be a string, found %s", name, id, describe(n))
		}
	}

	created, createdOK := checkTimestamp(r, id, line, FieldCreatedAt, fields[FieldCreatedAt])
	updated, updatedOK := checkTimestamp(r, id, line, FieldUpdatedAt, fields[FieldUpdatedAt])
	if createdOK && updatedOK && updated.Before(created) {
		r.add(KindFieldConstraint, id, line, "updated_at for '%s' is earlier than created_at", id)
	}
}

// mergeFields adds the fields of a "<<" value that are not already set.
// It reports false when the value cannot be merged.
func mergeFields(fields map[string]*yaml.Node, n *yaml.Node) bool {
	sources := mergeSources(n)
	if sources == nil {
		return false
	}
	for _, src := range sources {
		var nested []*yaml.Node
		for i := 0; i+1 < len(src.Content); i += 2 {
			k := src.Content[i]
			if isMergeKey(k) {
				nested = append(nested, resolve(src.Content[i+1]))
				continue
			}
			if k.Kind != yaml.ScalarNode {
				continue
			}
			if _, ok := fields[k.Value]; !ok {
				fields[k.Value] = resolve(src.Content[i+1])
			}
		}
		for _, m := range nested {
			if !mergeFields(fields, m) {
				return false
			}
		}
	}
	return true
}

// checkTimestamp validates an optional timestamp field. The bool result is
// true only when the field is present and parsed.
func checkTimestamp(r *Result, id string, line int, name string, n *yaml.Node) (time.Time, bool) {
	if n == nil || isNull(n) {
		return time.Time{}, false
	}
	if t, ok := parseTimestamp(n); ok {
		return t, true
	}
	r.add(KindFieldConstraint, id, line, "%s for '%s' must be an RFC3339 timestamp or YYYY-MM-DD date, found %s", name, id, describe(n))
	return time.Time{}, false
}

func parseTimestamp(n *yaml.Node) (time.Time, bool) {
	if n.Kind != yaml.ScalarNode {
		return time.Time{}, false
	}
	if n.ShortTag() == "!!timestamp" {
		var t time.Time
		if err := n.Decode(&t); err == nil {
			return t, true
		}
	}
	if t, err := timespec.ParseTimestamp(n.Value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
