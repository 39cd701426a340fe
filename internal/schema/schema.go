package schema

import (
	"errors"
	"fmt"
	"strconv"
)

// Resolution failures. Both cause the offending line to be skipped by the
// caller; they never abort a run.
var (
	// ErrFieldCount means the token count of a line does not satisfy the
	// schema: strict schemas demand an exact match, built-in schemas a
	// minimum.
	ErrFieldCount = errors.New("field count mismatch")

	// ErrUnknownField means the schema names a field the catalog does not
	// know, so the line cannot be typed.
	ErrUnknownField = errors.New("unknown field name")
)

// Built-in schema names accepted by ByName.
const (
	NameDefault = "v2-default"
	NameLegacy  = "legacy"
)

// Schema is an ordered field layout. Strict schemas come from caller-supplied
// field lists and require lines to carry exactly as many tokens as the schema
// has fields. Built-in schemas tolerate extra trailing tokens so that logs
// with appended fields still resolve.
type Schema struct {
	name   string
	fields []string
	index  map[string]int
	strict bool
}

func newSchema(name string, fields []string, strict bool) *Schema {
	s := &Schema{
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
		strict: strict,
	}
	for i, f := range fields {
		s.index[f] = i
	}
	return s
}

// Default returns the standard 14-field version 2 layout.
func Default() *Schema {
	return newSchema(NameDefault, []string{
		"version", "account-id", "interface-id", "srcaddr", "dstaddr",
		"srcport", "dstport", "protocol", "packets", "bytes",
		"start", "end", "action", "log-status",
	}, false)
}

// Legacy returns a minimal 8-field layout with the destination port at
// position 5 and the protocol at position 7, matching feeds that reorder
// the port columns.
func Legacy() *Schema {
	return newSchema(NameLegacy, []string{
		"version", "account-id", "interface-id", "srcaddr", "dstaddr",
		"dstport", "srcport", "protocol",
	}, false)
}

// ByName returns a built-in schema. The empty name selects the default
// layout.
func ByName(name string) (*Schema, error) {
	switch name {
	case NameDefault, "":
		return Default(), nil
	case NameLegacy:
		return Legacy(), nil
	default:
		return nil, fmt.Errorf("unknown schema %q", name)
	}
}

// New builds a strict schema from caller-supplied field names, in the order
// the tokens appear on each line. A name may appear only once; two columns
// cannot share a field. Unknown names are accepted here; lines resolved
// against them fail with ErrUnknownField, and UnknownFields lets callers
// surface them ahead of a run.
func New(fields []string) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.New("schema requires at least one field")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("duplicate field name %q", f)
		}
		seen[f] = struct{}{}
	}
	return newSchema("custom", fields, true), nil
}

// Name returns the schema's display name.
func (s *Schema) Name() string { return s.name }

// Len returns the number of fields in the layout.
func (s *Schema) Len() int { return len(s.fields) }

// Strict reports whether lines must match the field count exactly.
func (s *Schema) Strict() bool { return s.strict }

// Fields returns a copy of the ordered field names.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// UnknownFields returns the schema field names absent from the catalog.
// Every line resolved against a schema with unknown fields is skipped, so
// a non-empty result usually indicates a misconfigured field list.
func (s *Schema) UnknownFields() []string {
	var unknown []string
	for _, f := range s.fields {
		if _, ok := KindOf(f); !ok {
			unknown = append(unknown, f)
		}
	}
	return unknown
}

// Record is a single line resolved against a schema. Typed values hold
// int64 for integer fields and string for string fields; absent values
// (sentinel or unparseable integers) are nil. The raw tokens survive for
// lookups that need the wire form verbatim.
type Record struct {
	schema *Schema
	tokens []string
	values map[string]any
}

// Resolve types the tokens of one line against the schema. It fails with
// ErrFieldCount on a count mismatch and ErrUnknownField if the schema names
// a field the catalog lacks; in both cases no partial record is returned.
func (s *Schema) Resolve(tokens []string) (*Record, error) {
	if s.strict {
		if len(tokens) != len(s.fields) {
			return nil, fmt.Errorf("%w: schema has %d fields, line has %d tokens",
				ErrFieldCount, len(s.fields), len(tokens))
		}
	} else if len(tokens) < len(s.fields) {
		return nil, fmt.Errorf("%w: schema needs at least %d tokens, line has %d",
			ErrFieldCount, len(s.fields), len(tokens))
	}

	values := make(map[string]any, len(s.fields))
	for i, name := range s.fields {
		kind, ok := KindOf(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		token := tokens[i]
		switch kind {
		case KindInt:
			if token == "" || token == Sentinel {
				values[name] = nil
				continue
			}
			n, err := strconv.ParseInt(token, 10, 64)
			if err != nil {
				values[name] = nil
				continue
			}
			values[name] = n
		case KindString:
			if token == Sentinel {
				values[name] = nil
				continue
			}
			values[name] = token
		}
	}

	return &Record{schema: s, tokens: tokens, values: values}, nil
}

// Int returns the value of an integer field. The second return is false
// when the field is absent from the layout, carried the sentinel, or did
// not parse.
func (r *Record) Int(name string) (int64, bool) {
	n, ok := r.values[name].(int64)
	return n, ok
}

// Str returns the value of a string field, false when absent.
func (r *Record) Str(name string) (string, bool) {
	v, ok := r.values[name].(string)
	return v, ok
}

// Raw returns the untyped token at the field's position, false when the
// layout does not include the field.
func (r *Record) Raw(name string) (string, bool) {
	i, ok := r.schema.index[name]
	if !ok || i >= len(r.tokens) {
		return "", false
	}
	return r.tokens[i], true
}
