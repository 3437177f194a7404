package schema

import (
	"context"
	"sort"

	"github.com/fieldline/fieldline/internal/fieldtype"
)

// defKind discriminates the closed set of declarable field shapes.
type defKind int

const (
	defScalar defKind = iota
	defScalarArray
	defRef
	defRefArray
	defOpaque
	defUnknown // unrecognized shape: defined no-op, never an error
)

// FieldDef is the declared shape of one document field. The zero value
// is the unrecognized shape; construct definitions with Text, Boolean,
// Date, Number, Ref, List and Opaque.
type FieldDef struct {
	kind   defKind
	scalar fieldtype.Kind
	target string
}

func Text() FieldDef    { return FieldDef{kind: defScalar, scalar: fieldtype.Text} }
func Boolean() FieldDef { return FieldDef{kind: defScalar, scalar: fieldtype.Boolean} }
func Date() FieldDef    { return FieldDef{kind: defScalar, scalar: fieldtype.Date} }
func Number() FieldDef  { return FieldDef{kind: defScalar, scalar: fieldtype.Number} }

// Ref declares a single reference to a document in the named model's
// collection.
func Ref(model string) FieldDef { return FieldDef{kind: defRef, target: model} }

// Opaque declares a free-form nested object: always valid, passed
// through unchanged.
func Opaque() FieldDef { return FieldDef{kind: defOpaque} }

// List lifts a scalar or reference definition to its array form. Any
// other element shape yields the unrecognized definition.
func List(elem FieldDef) FieldDef {
	switch elem.kind {
	case defScalar:
		return FieldDef{kind: defScalarArray, scalar: elem.scalar}
	case defRef:
		return FieldDef{kind: defRefArray, target: elem.target}
	}
	return FieldDef{kind: defUnknown}
}

// TypeLabel returns the label used in validation failure messages.
func (d FieldDef) TypeLabel() string {
	switch d.kind {
	case defScalar:
		return d.scalar.String()
	case defScalarArray:
		return "array of " + d.scalar.String()
	case defRef:
		return "reference"
	case defRefArray:
		return "array of reference"
	case defOpaque:
		return "opaque"
	}
	return "unknown"
}

// Target returns the referenced model name for reference shapes.
func (d FieldDef) Target() string { return d.target }

// Model is the owning-model capability set the schema consumes during
// relationship resolution. The concrete model lives a package up; the
// interface keeps resolution testable against stubs.
type Model interface {
	Name() string
	FindByID(ctx context.Context, id string, resolveNested bool) (Document, error)
	Find(ctx context.Context, field, op string, value any, resolveNested bool) ([]Document, error)
}

// Registry resolves reference target names to models. A miss is an
// ordinary outcome: resolution degrades to "nothing found".
type Registry interface {
	Lookup(name string) (Model, bool)
}

// HookFunc is a pre-operation callback. Callbacks run inline, in
// registration order, and a returned error stops the chain.
type HookFunc func(ctx context.Context, s *Schema) error

type hook struct {
	op string
	fn HookFunc
}

// PopulateDef requests read-time replacement of the reference(s) at
// Path with full documents fetched from Model.
type PopulateDef struct {
	Path  string
	Model string
}

// VirtualDef computes a reverse-relationship field: all documents of
// Ref whose ForeignField equals this document's LocalField.
type VirtualDef struct {
	Field        string
	Ref          string
	LocalField   string
	ForeignField string
}

// UploadDef binds a document field to an object-storage prefix.
type UploadDef struct {
	StoragePath string
	Path        string
}

// Schema holds an immutable field-definition map plus append-only
// registries for hooks, populates, virtuals and uploads. Registries
// preserve insertion order (hook invocation and populate processing
// order are observable) and deduplicate by their identity key, first
// registration winning.
type Schema struct {
	fields    map[string]FieldDef
	fieldKeys []string

	model  Model
	models Registry

	hooks        []hook
	hookOps      map[string]struct{}
	populates    []PopulateDef
	populateKeys map[string]struct{}
	virtuals     []VirtualDef
	virtualKeys  map[string]struct{}
	uploads      []UploadDef
	uploadKeys   map[string]struct{}
}

// New constructs a schema over the given field definitions. The
// definition map is copied and never changes afterwards.
func New(fields map[string]FieldDef) *Schema {
	s := &Schema{
		fields:       make(map[string]FieldDef, len(fields)),
		fieldKeys:    make([]string, 0, len(fields)),
		hookOps:      make(map[string]struct{}),
		populateKeys: make(map[string]struct{}),
		virtualKeys:  make(map[string]struct{}),
		uploadKeys:   make(map[string]struct{}),
	}
	for k, d := range fields {
		s.fields[k] = d
		s.fieldKeys = append(s.fieldKeys, k)
	}
	// deterministic iteration so the first invalid field reported by
	// Build does not depend on map order
	sort.Strings(s.fieldKeys)
	return s
}

// AttachModel binds the owning model. The first attachment wins;
// subsequent calls are ignored.
func (s *Schema) AttachModel(m Model) {
	if s.model == nil {
		s.model = m
	}
}

// AttachRegistry binds the shared model registry used to resolve
// reference targets. The first attachment wins.
func (s *Schema) AttachRegistry(r Registry) {
	if s.models == nil {
		s.models = r
	}
}

// Field returns the declared definition for key.
func (s *Schema) Field(key string) (FieldDef, bool) {
	d, ok := s.fields[key]
	return d, ok
}

func (s *Schema) modelName() string {
	if s.model != nil {
		return s.model.Name()
	}
	return "(unattached)"
}

// RegisterHook appends a pre-operation callback for op unless one is
// already registered for that operation.
func (s *Schema) RegisterHook(op string, fn HookFunc) {
	if _, ok := s.hookOps[op]; ok {
		return
	}
	s.hookOps[op] = struct{}{}
	s.hooks = append(s.hooks, hook{op: op, fn: fn})
}

// RunHooks invokes every callback registered for op, in registration
// order. Callbacks complete before RunHooks returns; the first error
// stops the chain and propagates unmodified.
func (s *Schema) RunHooks(ctx context.Context, op string) error {
	for _, h := range s.hooks {
		if h.op != op {
			continue
		}
		if err := h.fn(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Populate registers a populate descriptor unless one already exists
// for the same path.
func (s *Schema) Populate(d PopulateDef) {
	if _, ok := s.populateKeys[d.Path]; ok {
		return
	}
	s.populateKeys[d.Path] = struct{}{}
	s.populates = append(s.populates, d)
}

// Virtual registers a computed reverse-relationship field unless one
// already exists under the same name.
func (s *Schema) Virtual(field string, d VirtualDef) {
	if _, ok := s.virtualKeys[field]; ok {
		return
	}
	d.Field = field
	s.virtualKeys[field] = struct{}{}
	s.virtuals = append(s.virtuals, d)
}

// Upload binds a document field path to an object-storage prefix
// unless the path is already bound.
func (s *Schema) Upload(storagePath, path string) {
	if _, ok := s.uploadKeys[path]; ok {
		return
	}
	s.uploadKeys[path] = struct{}{}
	s.uploads = append(s.uploads, UploadDef{StoragePath: storagePath, Path: path})
}

// UploadFor returns the upload descriptor bound to path.
func (s *Schema) UploadFor(path string) (UploadDef, bool) {
	for _, u := range s.uploads {
		if u.Path == path {
			return u, true
		}
	}
	return UploadDef{}, false
}

// Uploads returns the registered upload descriptors in registration
// order.
func (s *Schema) Uploads() []UploadDef { return s.uploads }
