package model

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fieldline/fieldline/internal/cache"
	"github.com/fieldline/fieldline/internal/schema"
	"github.com/fieldline/fieldline/internal/store"
	"github.com/fieldline/fieldline/pkg/logger"
)

// Hook operation names run before the corresponding model operation.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ObjectStore is the object-storage capability consumed by upload
// handling.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Model owns exactly one schema and mediates between it and a store
// collection. It implements the capability set the schema consumes
// during relationship resolution (name, by-id fetch, filtered find).
type Model struct {
	name    string
	schema  *schema.Schema
	col     store.Collection
	docs    *cache.Documents
	objects ObjectStore
	newID   func() string
}

// Option configures optional model collaborators.
type Option func(*Model)

// WithCache routes FindByID through a read-through document cache.
func WithCache(c *cache.Documents) Option {
	return func(m *Model) { m.docs = c }
}

// WithObjectStore enables SaveUpload against the given storage.
func WithObjectStore(s ObjectStore) Option {
	return func(m *Model) { m.objects = s }
}

// WithUUIDIDs generates UUID identities instead of ObjectID hex for
// documents created through this model.
func WithUUIDIDs() Option {
	return func(m *Model) { m.newID = uuid.NewString }
}

// New binds a schema to a collection under the given name and attaches
// itself as the schema's owning model.
func New(name string, sch *schema.Schema, col store.Collection, opts ...Option) *Model {
	m := &Model{
		name:   name,
		schema: sch,
		col:    col,
		newID:  func() string { return primitive.NewObjectID().Hex() },
	}
	for _, o := range opts {
		o(m)
	}
	sch.AttachModel(m)
	return m
}

// Name returns the model name used for diagnostics and cross-reference
// lookup.
func (m *Model) Name() string { return m.name }

// Schema returns the attached schema.
func (m *Model) Schema() *schema.Schema { return m.schema }

// FindByID fetches one document by identity, consulting the cache
// first when configured. Missing documents yield (nil, nil). With
// resolveNested, populate and virtual descriptors are applied to the
// fetched document before it is returned.
func (m *Model) FindByID(ctx context.Context, id string, resolveNested bool) (schema.Document, error) {
	var doc schema.Document
	if m.docs != nil {
		cached, err := m.docs.Get(ctx, m.name, id)
		if err != nil {
			logger.Warnf("model %s: cache get %s: %v", m.name, id, err)
		}
		doc = cached
	}
	if doc == nil {
		fetched, err := m.col.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if fetched == nil {
			return nil, nil
		}
		doc = fetched
		if m.docs != nil {
			if err := m.docs.Put(ctx, m.name, id, doc); err != nil {
				logger.Warnf("model %s: cache put %s: %v", m.name, id, err)
			}
		}
	}
	if resolveNested {
		return m.resolve(ctx, doc)
	}
	return doc, nil
}

// Find queries the collection for documents where field satisfies op
// against value. With resolveNested, each result is resolved in order.
func (m *Model) Find(ctx context.Context, field, op string, value any, resolveNested bool) ([]schema.Document, error) {
	raw, err := m.col.Find(ctx, field, op, value)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Document, 0, len(raw))
	for _, doc := range raw {
		d := schema.Document(doc)
		if resolveNested {
			if d, err = m.resolve(ctx, d); err != nil {
				return nil, err
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *Model) resolve(ctx context.Context, doc schema.Document) (schema.Document, error) {
	doc, err := m.schema.ApplyPopulates(ctx, doc)
	if err != nil {
		return nil, err
	}
	return m.schema.ApplyVirtuals(ctx, doc)
}

// Create builds a document from source, assigns a fresh identity and
// creation/update stamps, and inserts it. Pre-create hooks run first.
func (m *Model) Create(ctx context.Context, source map[string]any) (schema.Document, error) {
	if err := m.schema.RunHooks(ctx, OpCreate); err != nil {
		return nil, fmt.Errorf("create %s: %w", m.name, err)
	}
	doc, err := m.schema.Build(source, true, false, true)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc[schema.FieldID] = m.newID()
	doc[schema.FieldCreated] = now
	doc[schema.FieldUpdated] = now
	if err := m.col.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("create %s: %w", m.name, err)
	}
	return doc, nil
}

// Update builds a partial-update field map from source — nil fields
// become delete markers, resolved references collapse to ids — and
// applies it to the stored document. Pre-update hooks run first.
func (m *Model) Update(ctx context.Context, id string, source map[string]any) (schema.Document, error) {
	if err := m.schema.RunHooks(ctx, OpUpdate); err != nil {
		return nil, fmt.Errorf("update %s: %w", m.name, err)
	}
	fields, err := m.schema.Build(source, true, true, true)
	if err != nil {
		return nil, err
	}
	fields[schema.FieldUpdated] = time.Now().UTC()
	if err := m.col.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update %s: %w", m.name, err)
	}
	m.invalidate(ctx, id)
	return m.FindByID(ctx, id, false)
}

// Delete removes the document by identity. Pre-delete hooks run first.
func (m *Model) Delete(ctx context.Context, id string) error {
	if err := m.schema.RunHooks(ctx, OpDelete); err != nil {
		return fmt.Errorf("delete %s: %w", m.name, err)
	}
	if err := m.col.Delete(ctx, id); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// SaveUpload stores the object for a registered upload field under
// "<storagePath>/<docID>/<field>" and records the object key on the
// document.
func (m *Model) SaveUpload(ctx context.Context, id, field string, r io.Reader, size int64, contentType string) (string, error) {
	if m.objects == nil {
		return "", fmt.Errorf("model %s: no object store configured", m.name)
	}
	ud, ok := m.schema.UploadFor(field)
	if !ok {
		return "", fmt.Errorf("model %s: field %q has no upload binding", m.name, field)
	}
	key := path.Join(ud.StoragePath, id, field)
	if err := m.objects.Upload(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("upload %s.%s: %w", m.name, field, err)
	}
	if err := m.col.Update(ctx, id, map[string]any{field: key}); err != nil {
		return "", fmt.Errorf("upload %s.%s: record key: %w", m.name, field, err)
	}
	m.invalidate(ctx, id)
	return key, nil
}

func (m *Model) invalidate(ctx context.Context, id string) {
	if m.docs == nil {
		return
	}
	if err := m.docs.Invalidate(ctx, m.name, id); err != nil {
		logger.Warnf("model %s: cache invalidate %s: %v", m.name, id, err)
	}
}
