package fieldtype

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind enumerates the primitive field kinds a schema can declare.
// The set is closed: dispatch over it is exhaustive and there is no
// mechanism for registering additional kinds at runtime.
type Kind int

const (
	Text Kind = iota
	Boolean
	Date
	Number
	Reference
)

// String returns the label used in validation failure messages.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Number:
		return "number"
	case Reference:
		return "reference"
	}
	return "unknown"
}

// Validate reports whether v is an acceptable input for the kind.
// Validation is deliberately wider than the coerced representation:
// a numeric string is a valid number, an RFC3339 string is a valid date.
func (k Kind) Validate(v any) bool {
	if v == nil {
		return false
	}
	switch k {
	case Text:
		_, ok := v.(string)
		return ok
	case Boolean:
		switch t := v.(type) {
		case bool:
			return true
		case string:
			_, err := strconv.ParseBool(strings.ToLower(t))
			return err == nil
		}
		return false
	case Number:
		_, ok := asFloat(v)
		return ok
	case Date:
		_, ok := asTime(v)
		return ok
	case Reference:
		return validRef(v)
	}
	return false
}

// ValidateSlice reports whether v is a slice whose every element is a
// valid value of the kind. A non-slice value is never valid.
func (k Kind) ValidateSlice(v any) bool {
	vs, ok := asSlice(v)
	if !ok {
		return false
	}
	for _, el := range vs {
		if !k.Validate(el) {
			return false
		}
	}
	return true
}

// Coerce converts a validated value into the kind's canonical
// representation: string, bool, float64, time.Time (UTC) or identity
// string. Coercion is idempotent: coercing an already coerced value
// returns it unchanged. Callers must validate first; an invalid value
// falls back to a best-effort conversion rather than panicking.
func (k Kind) Coerce(v any) any {
	switch k {
	case Text:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	case Boolean:
		switch t := v.(type) {
		case bool:
			return t
		case string:
			b, _ := strconv.ParseBool(strings.ToLower(t))
			return b
		}
		return false
	case Number:
		f, _ := asFloat(v)
		return f
	case Date:
		t, _ := asTime(v)
		return t.UTC()
	case Reference:
		return refString(v)
	}
	return nil
}

// CoerceSlice coerces every element of vs.
func (k Kind) CoerceSlice(vs []any) []any {
	out := make([]any, len(vs))
	for i, el := range vs {
		out[i] = k.Coerce(el)
	}
	return out
}

// asSlice unwraps the two slice shapes that reach this layer: plain
// []any from callers and bson.A decoded from the store.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case primitive.A:
		return t, true
	}
	return nil, false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

// asTime accepts time.Time, RFC3339 strings, and unix-millisecond
// numbers (the wire form produced by JSON clients).
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	case string:
		ts, err := time.Parse(time.RFC3339, t)
		return ts, err == nil
	case float64, float32, int, int32, int64:
		ms, _ := asFloat(t)
		return time.UnixMilli(int64(ms)), true
	}
	return time.Time{}, false
}

// validRef accepts ObjectIDs, their hex form, and any non-empty opaque
// identity string (collections created before the ObjectID migration
// carry UUID ids).
func validRef(v any) bool {
	switch t := v.(type) {
	case primitive.ObjectID:
		return !t.IsZero()
	case string:
		if t == "" {
			return false
		}
		if len(t) == 24 {
			_, err := primitive.ObjectIDFromHex(t)
			return err == nil
		}
		return true
	}
	return false
}

func refString(v any) any {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return v
}
