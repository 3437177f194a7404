package schema

import (
	"fmt"

	"github.com/fieldline/fieldline/internal/fieldtype"
	"github.com/fieldline/fieldline/internal/store"
	"github.com/fieldline/fieldline/pkg/logger"
	"github.com/fieldline/fieldline/pkg/metrics"
)

// Build constructs a fresh document from source, keeping only keys
// that are both declared in the schema and present on source.
//
//   - removeID strips the identity key from the result (inserts
//     generate their own); otherwise _id is copied verbatim.
//   - includeDeletes turns fields explicitly set to nil into the
//     store's delete marker, signalling field removal on a partial
//     write. Without it, nil fields are omitted entirely.
//   - cleanRefs collapses previously resolved reference documents back
//     to their bare ids before validation, so callers may pass either
//     form interchangeably.
//
// The first invalid field aborts the whole build: the error wraps a
// ValidationError and no partial result is returned. The _c/_u
// passthrough keys are copied unvalidated when present and truthy.
func (s *Schema) Build(source map[string]any, removeID, includeDeletes, cleanRefs bool) (Document, error) {
	out := Document{}
	for _, key := range s.fieldKeys {
		def := s.fields[key]
		v, present := source[key]
		if !present {
			continue
		}
		if v == nil {
			if includeDeletes {
				out[key] = store.Delete
			}
			continue
		}
		if cleanRefs {
			s.collapseRefs(source, key, def)
			v = source[key]
			if v == nil {
				continue
			}
		}
		coerced, keep, verr := s.checkAndCoerce(key, def, v)
		if verr != nil {
			logger.Warnf("build rejected: %v", verr)
			metrics.BuildFailures.WithLabelValues(s.modelName()).Inc()
			return nil, fmt.Errorf("build %s: %w", s.modelName(), verr)
		}
		if keep {
			out[key] = coerced
		}
	}

	if !removeID {
		if id, ok := source[FieldID]; ok {
			out[FieldID] = id
		}
	}
	for _, key := range []string{FieldCreated, FieldUpdated} {
		if v, ok := source[key]; ok && truthy(v) {
			out[key] = v
		}
	}
	metrics.BuildsTotal.WithLabelValues(s.modelName()).Inc()
	return out, nil
}

// checkAndCoerce dispatches on the declared shape. Recognized shapes
// validate then coerce; an invalid value yields a ValidationError. The
// unrecognized shape is a defined no-op: not valid, no value, no error.
func (s *Schema) checkAndCoerce(key string, def FieldDef, v any) (any, bool, *ValidationError) {
	fail := func() *ValidationError {
		return &ValidationError{Model: s.modelName(), Field: key, Type: def.TypeLabel(), Value: v}
	}
	switch def.kind {
	case defScalar:
		if !def.scalar.Validate(v) {
			return nil, false, fail()
		}
		return def.scalar.Coerce(v), true, nil
	case defScalarArray:
		if !def.scalar.ValidateSlice(v) {
			return nil, false, fail()
		}
		vs, _ := asSlice(v)
		return def.scalar.CoerceSlice(vs), true, nil
	case defRef:
		if !fieldtype.Reference.Validate(v) {
			return nil, false, fail()
		}
		return fieldtype.Reference.Coerce(v), true, nil
	case defRefArray:
		if !fieldtype.Reference.ValidateSlice(v) {
			return nil, false, fail()
		}
		vs, _ := asSlice(v)
		return fieldtype.Reference.CoerceSlice(vs), true, nil
	case defOpaque:
		return v, true, nil
	}
	return nil, false, nil
}

// collapseRefs mutates source in place, reducing previously resolved
// documents in reference fields back to their bare identities. Bare
// ids pass through untouched; non-reference shapes are never visited.
func (s *Schema) collapseRefs(source map[string]any, key string, def FieldDef) {
	switch def.kind {
	case defRef:
		source[key] = collapseRef(source[key])
	case defRefArray:
		if vs, ok := asSlice(source[key]); ok {
			for i, el := range vs {
				vs[i] = collapseRef(el)
			}
			source[key] = vs
		}
	}
}

func collapseRef(v any) any {
	if doc, ok := asDocument(v); ok {
		return doc[FieldID]
	}
	return v
}
