package taskstate

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPlanSections are the task plan sections whose tasks are active.
var DefaultPlanSections = []string{"current_sprint", "backlog"}

// Plan is the task plan (tasks.yaml). Only the identifiers of tasks in the
// active sections matter to validation.
type Plan struct {
	Name          string
	SchemaVersion int
	Tasks         []PlanTask
	Duplicates    []string
	index         map[string]int
}

// PlanTask is one task listed in an active plan section.
type PlanTask struct {
	ID      string
	Title   string
	Section string
	Line    int
}

type planItem struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// LoadPlan reads a task plan file. An unreadable file is an *IOError.
func LoadPlan(path string, sections []string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	plan, err := ParsePlan(data, sections)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task plan %s: %w", path, err)
	}
	plan.Name = path
	return plan, nil
}

// ParsePlan parses task plan content, collecting tasks from sections in the
// order given. A missing section is treated as empty.
func ParsePlan(data []byte, sections []string) (*Plan, error) {
	if len(sections) == 0 {
		sections = DefaultPlanSections
	}

	root, err := decodeSingle(data)
	if err != nil {
		return nil, err
	}
	plan := &Plan{index: make(map[string]int)}
	if root == nil {
		return plan, nil
	}
	top := resolve(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping, found %s", top.Line, describe(top))
	}

	if n := field(top, SchemaVersionKey); n != nil && !isNull(n) {
		if err := n.Decode(&plan.SchemaVersion); err != nil {
			return nil, fmt.Errorf("line %d: %s must be an integer", n.Line, SchemaVersionKey)
		}
	}

	for _, section := range sections {
		seq := field(top, section)
		if seq == nil || isNull(seq) {
			continue
		}
		if seq.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: section '%s' must be a list of tasks", seq.Line, section)
		}
		for i, itemNode := range seq.Content {
			var item planItem
			if n := resolve(itemNode); n.Kind == yaml.ScalarNode {
				item.ID = scalarValue(n)
			} else if err := n.Decode(&item); err != nil {
				return nil, fmt.Errorf("line %d: %s[%d]: %w", itemNode.Line, section, i, err)
			}
			if item.ID == "" {
				return nil, fmt.Errorf("line %d: %s[%d] has no id", itemNode.Line, section, i)
			}
			if _, dup := plan.index[item.ID]; dup {
				plan.Duplicates = append(plan.Duplicates, item.ID)
				continue
			}
			plan.index[item.ID] = len(plan.Tasks)
			plan.Tasks = append(plan.Tasks, PlanTask{
				ID:      item.ID,
				Title:   item.Title,
				Section: section,
				Line:    itemNode.Line,
			})
		}
	}
	return plan, nil
}

// IsActive reports whether id is listed in an active section.
func (p *Plan) IsActive(id string) bool {
	_, ok := p.index[id]
	return ok
}

// CheckPlan cross-checks a task-state document against the plan: every
// active task needs a state entry, and every state entry must be active.
// Violations are merged into result in file order.
func CheckPlan(result *Result, doc *Document, plan *Plan) {
	planName := filepath.Base(plan.Name)
	if planName == "." || planName == "" {
		planName = "the task plan"
	}

	for _, id := range plan.Duplicates {
		result.warn("%s lists task '%s' more than once", planName, id)
	}

	for _, e := range doc.Entries {
		if e.Key.Kind != yaml.ScalarNode || e.ID == "" {
			continue
		}
		if !plan.IsActive(e.ID) {
			result.add(KindInactiveTask, e.ID, e.Line,
				"includes inactive task '%s'; only active tasks in %s are allowed", e.ID, planName)
		}
	}

	for _, task := range plan.Tasks {
		if _, ok := doc.Lookup(task.ID); !ok {
			result.add(KindMissingEntry, task.ID, 0, "missing entry for '%s' (%s)", task.ID, task.Section)
		}
	}

	result.sortViolations()
}
