// Package taskstate parses and validates the task-state file.
//
// The task-state file is the single authoritative record of task status. It is
// a YAML mapping from task identifier to task record, with one reserved key:
//
//	schema_version: 2
//	T-001:
//	  status: ready
//	  pr: null
//	  merged: false
//	T-002:
//	  status: done
//	  pr: 14
//	  merged: true
//
// # Validation
//
// Validation is a pure function of the file content and a Schema. Every
// problem is collected rather than stopping at the first one, and violations
// are reported in the order their tasks appear in the file:
//
//   - MalformedInput: the file or a record does not have the expected shape
//   - DuplicateKey: a task identifier appears more than once
//   - InvalidStatus: a status outside the recognized set
//   - MissingField: a record omits a mandatory field
//   - SchemaVersion: a schema_version other than the expected one
//   - FieldConstraint: pr, merged or timestamp fields break their rules
//   - MissingEntry, InactiveTask: disagreement with the task plan
//   - SchemaViolation: failures reported by an optional JSON Schema
//
// A file that cannot be read at all is not a violation: ValidateFile returns
// an *IOError and no result.
package taskstate
