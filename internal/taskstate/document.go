package taskstate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Document is a parsed task-state file. Entries keep file order and include
// repeated identifiers, which a plain map decode would reject or collapse.
type Document struct {
	// Name is the label used in diagnostics, usually the file path.
	Name     string
	Entries  []Entry
	versions []keyValue
	top      *yaml.Node
}

// Entry is one top-level key of the task-state mapping.
type Entry struct {
	ID    string
	Line  int
	Key   *yaml.Node
	Value *yaml.Node
}

type keyValue struct {
	key   *yaml.Node
	value *yaml.Node
}

// Record is the typed view of a well-formed entry, used for listing.
type Record struct {
	ID          string
	Line        int
	Status      string
	Owner       string
	Description string
	PR          *int
	Merged      *bool
	CreatedAt   string
	UpdatedAt   string
}

// ParseError reports content that is not a YAML mapping at all.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// decodeSingle decodes data as exactly one YAML document. A nil node means
// the input held no document at all.
func decodeSingle(data []byte) (*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, syntaxError(err)
	}

	var next yaml.Node
	switch err := dec.Decode(&next); {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, syntaxError(err)
	default:
		return nil, &ParseError{
			Line: next.Line,
			Msg:  "expected a single YAML document, found another one",
		}
	}

	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}
	return &root, nil
}

func syntaxError(err error) *ParseError {
	pe := &ParseError{Msg: fmt.Sprintf("cannot parse YAML: %v", err)}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}

// Parse reads task-state content without applying any schema.
func Parse(data []byte) (*Document, error) {
	root, err := decodeSingle(data)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, &ParseError{Msg: "document is empty; expected a mapping of task identifiers to records"}
	}

	top := resolve(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Line: top.Line,
			Msg:  fmt.Sprintf("expected a mapping of task identifiers to records, found %s", describe(top)),
		}
	}

	doc := &Document{top: top}
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], resolve(top.Content[i+1])
		if isMergeKey(key) {
			continue
		}
		if key.Kind == yaml.ScalarNode && key.Value == SchemaVersionKey {
			doc.versions = append(doc.versions, keyValue{key: key, value: value})
			continue
		}
		entry := Entry{Line: key.Line, Key: key, Value: value}
		if key.Kind == yaml.ScalarNode {
			entry.ID = key.Value
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return doc, nil
}

// LoadFile reads and parses a task-state file. An unreadable file is
// reported as an *IOError.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Name = path
	return doc, nil
}

// IsParseError reports whether err came from unparseable content.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Lookup returns the first entry with the given identifier.
func (d *Document) Lookup(id string) (Entry, bool) {
	for _, e := range d.Entries {
		if e.ID == id && e.Key.Kind == yaml.ScalarNode {
			return e, true
		}
	}
	return Entry{}, false
}

// Records returns the typed view of every entry whose value is a mapping.
// Malformed entries are skipped; repeated identifiers are all returned.
func (d *Document) Records() []Record {
	records := make([]Record, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.Key.Kind != yaml.ScalarNode || e.Value.Kind != yaml.MappingNode {
			continue
		}
		rec := Record{
			ID:          e.ID,
			Line:        e.Line,
			Status:      scalarValue(field(e.Value, FieldStatus)),
			Owner:       scalarValue(field(e.Value, FieldOwner)),
			Description: scalarValue(field(e.Value, FieldDescription)),
			CreatedAt:   scalarValue(field(e.Value, FieldCreatedAt)),
			UpdatedAt:   scalarValue(field(e.Value, FieldUpdatedAt)),
		}
		if n := field(e.Value, FieldPR); n != nil && n.ShortTag() == "!!int" {
			var pr int
			if n.Decode(&pr) == nil {
				rec.PR = &pr
			}
		}
		if n := field(e.Value, FieldMerged); n != nil && n.ShortTag() == "!!bool" {
			var merged bool
			if n.Decode(&merged) == nil {
				rec.Merged = &merged
			}
		}
		records = append(records, rec)
	}
	return records
}

// field returns the value stored under name in a mapping node. Keys written
// in the mapping win over keys pulled in through "<<" merges.
func field(mapping *yaml.Node, name string) *yaml.Node {
	var merges []*yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k := mapping.Content[i]
		if isMergeKey(k) {
			merges = append(merges, resolve(mapping.Content[i+1]))
			continue
		}
		if k.Kind == yaml.ScalarNode && k.Value == name {
			return resolve(mapping.Content[i+1])
		}
	}
	for _, m := range merges {
		for _, src := range mergeSources(m) {
			if v := field(src, name); v != nil {
				return v
			}
		}
	}
	return nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!merge"
}

// mergeSources returns the mappings a "<<" value refers to, in precedence
// order. Nil means the value is not a mapping or a list of mappings.
func mergeSources(n *yaml.Node) []*yaml.Node {
	switch n.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{n}
	case yaml.SequenceNode:
		sources := make([]*yaml.Node, 0, len(n.Content))
		for _, item := range n.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode {
				return nil
			}
			sources = append(sources, item)
		}
		return sources
	}
	return nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func scalarValue(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return ""
	}
	return n.Value
}

// describe renders a node for diagnostics.
func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return "null"
		}
		return fmt.Sprintf("'%s'", n.Value)
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	default:
		return "an unsupported node"
	}
}
