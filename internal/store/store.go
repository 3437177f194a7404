package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
)

// deleteMarker is the sentinel placed as a field value to request that
// the field be removed on a partial update. It survives map copies and
// compares only against itself.
type deleteMarker struct{}

// Delete is the field-removal sentinel. Schema.Build emits it for
// fields explicitly set to nil when deletes are requested; the Mongo
// collection translates it into a $unset clause.
var Delete any = deleteMarker{}

// IsDelete reports whether v is the field-removal sentinel.
func IsDelete(v any) bool {
	_, ok := v.(deleteMarker)
	return ok
}

// Collection is the store boundary consumed by models. Implementations
// return (nil, nil) from FindByID when no document matches: absence is
// an ordinary outcome, not an error.
type Collection interface {
	FindByID(ctx context.Context, id string) (map[string]any, error)
	Find(ctx context.Context, field, op string, value any) ([]map[string]any, error)
	Insert(ctx context.Context, doc map[string]any) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}
