package schema

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the storage unit: a keyed field map identified by
// FieldID. It aliases map[string]any so store results decode into it
// without copying.
type Document = map[string]any

// Reserved structural keys. They bypass the typed field dispatch
// entirely: Build copies them verbatim, never validates or coerces.
const (
	FieldID      = "_id"
	FieldCreated = "_c"
	FieldUpdated = "_u"
)

// asDocument unwraps the document shapes that reach this layer: plain
// maps from callers and bson.M decoded from the store.
func asDocument(v any) (Document, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case bson.M:
		return map[string]any(t), true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case primitive.A:
		return t, true
	}
	return nil, false
}

// refID extracts the identity string from a reference value, which may
// be a bare id or a previously resolved document.
func refID(v any) string {
	if doc, ok := asDocument(v); ok {
		v = doc[FieldID]
	}
	switch t := v.(type) {
	case string:
		return t
	case primitive.ObjectID:
		return t.Hex()
	}
	return ""
}

// truthy mirrors the loose presence test applied to the _c/_u
// passthrough keys: zero values and nil are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}
