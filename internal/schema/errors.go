package schema

import "fmt"

// ValidationError is the primary failure kind of this layer: a field
// value that does not satisfy its declared type. It carries everything
// a caller needs to report the rejected write.
type ValidationError struct {
	Model string
	Field string
	Type  string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model %s: field %q: %v is not a valid %s", e.Model, e.Field, e.Value, e.Type)
}
