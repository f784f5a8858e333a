package record

import (
	"fmt"
	"strings"
)

// PathError reports a write rejected by the schema or by the existing value
// tree at the target path.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("record: cannot write %s: %s", e.Path, e.Reason)
}

// Record is one schema-described tree of named field values. Nested records
// are stored as map[string]any. A record belongs to the batch that produced
// it and is not safe for concurrent mutation.
type Record struct {
	schema *Schema
	values map[string]any
}

// New creates an empty record bound to schema.
func New(schema *Schema) *Record {
	return &Record{schema: schema, values: map[string]any{}}
}

// FromValues wraps a decoded value tree in a record. A nil schema disables
// type checking on writes.
func FromValues(schema *Schema, values map[string]any) *Record {
	if values == nil {
		values = map[string]any{}
	}
	return &Record{schema: schema, values: values}
}

// Schema returns the record's schema, which may be nil.
func (r *Record) Schema() *Schema { return r.schema }

// Values exposes the underlying value tree for serialization.
func (r *Record) Values() map[string]any { return r.values }

// GetPath resolves a /name(/name)* path to a field value. A missing or null
// field reports absent (false) rather than an error, as does a malformed
// path: there is nothing to transform either way.
func (r *Record) GetPath(path string) (any, bool) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, false
	}

	cur := r.values
	for i, seg := range segs {
		v, ok := cur[seg]
		if !ok || v == nil {
			return nil, false
		}
		if i == len(segs)-1 {
			return v, true
		}
		child, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return nil, false
}

// SetPath writes value at path, creating intermediate containers where the
// schema declares them. It returns a *PathError when an intermediate segment
// holds a scalar, when a closed schema does not declare a segment, or when
// the leaf's declared type rejects the value.
func (r *Record) SetPath(path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return &PathError{Path: path, Reason: err.Error()}
	}

	schema := r.schema
	cur := r.values
	for i, seg := range segs {
		var decl *Field
		if schema != nil {
			f, ok := schema.Field(seg)
			if !ok && !schema.Open {
				return &PathError{Path: path, Reason: fmt.Sprintf("field %q not declared by schema", seg)}
			}
			decl = f
		}

		if i == len(segs)-1 {
			if decl != nil && !compatible(decl.Type, value) {
				return &PathError{Path: path, Reason: fmt.Sprintf("%T is incompatible with %s field %q", value, decl.Type, seg)}
			}
			cur[seg] = value
			return nil
		}

		if decl != nil && decl.Type != TypeRecord {
			return &PathError{Path: path, Reason: fmt.Sprintf("segment %q is not a container", seg)}
		}
		switch next := cur[seg].(type) {
		case nil:
			child := map[string]any{}
			cur[seg] = child
			cur = child
		case map[string]any:
			cur = next
		default:
			return &PathError{Path: path, Reason: fmt.Sprintf("segment %q holds a scalar", seg)}
		}
		if decl != nil {
			schema = decl.Children
		} else {
			schema = nil
		}
	}
	return nil
}

// Clone returns a deep copy of the record sharing the (immutable) schema.
func (r *Record) Clone() *Record {
	return &Record{schema: r.schema, values: cloneValues(r.values)}
}

func cloneValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if child, ok := v.(map[string]any); ok {
			out[k] = cloneValues(child)
			continue
		}
		out[k] = v
	}
	return out
}

// splitPath parses a /name(/name)* path expression into its segments.
func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path %q must start with /", path)
	}
	segs := strings.Split(path[1:], "/")
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("path %q has an empty segment", path)
		}
	}
	return segs, nil
}
