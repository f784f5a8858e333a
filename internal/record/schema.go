// Package record models schema-described hierarchical records and the path
// expressions that address single scalar fields inside them.
package record

// FieldType declares the value type a schema field accepts.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeFloat  FieldType = "float"
	TypeInt    FieldType = "int"
	TypeBool   FieldType = "bool"
	// TypeRecord marks a nested container field carrying a child schema.
	TypeRecord FieldType = "record"
)

// Field is one named field declaration in a schema.
type Field struct {
	Name     string
	Type     FieldType
	Children *Schema // set when Type == TypeRecord
}

// Schema describes the ordered fields of a record. A batch shares one schema
// for its whole lifetime. An open schema permits writes to fields it does not
// declare; declared fields are still type-checked either way.
type Schema struct {
	Fields []Field
	Open   bool
}

// Field returns the declaration of the named field, if present.
func (s *Schema) Field(name string) (*Field, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// InferSchema derives a schema from a decoded value tree. JSON numbers map
// to float fields, nested objects to record fields. Fields holding nil or an
// unrecognized type are declared as strings so later writes can still be
// type-checked. Inferred schemas are open: the sample object may lack fields
// the batch will gain, so writes to undeclared fields are allowed.
func InferSchema(values map[string]any) *Schema {
	s := &Schema{Fields: make([]Field, 0, len(values)), Open: true}
	for name, v := range values {
		f := Field{Name: name, Type: TypeString}
		switch val := v.(type) {
		case float64, float32:
			f.Type = TypeFloat
		case int, int64:
			f.Type = TypeInt
		case bool:
			f.Type = TypeBool
		case map[string]any:
			f.Type = TypeRecord
			f.Children = InferSchema(val)
		}
		s.Fields = append(s.Fields, f)
	}
	return s
}

// compatible reports whether a value may be written into a field of the
// given declared type. Nil is writable anywhere.
func compatible(t FieldType, v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeFloat:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case TypeInt:
		switch v.(type) {
		case int, int64:
			return true
		}
		return false
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeRecord:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}
