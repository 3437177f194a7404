package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubModel records fetches and serves canned documents, standing in
// for the owning model and for populate/virtual targets.
type stubModel struct {
	name    string
	docs    map[string]Document
	found   []Document
	fetched []string
	queries []query
}

type query struct {
	field string
	op    string
	value any
}

func (m *stubModel) Name() string { return m.name }

func (m *stubModel) FindByID(ctx context.Context, id string, resolveNested bool) (Document, error) {
	m.fetched = append(m.fetched, id)
	return m.docs[id], nil
}

func (m *stubModel) Find(ctx context.Context, field, op string, value any, resolveNested bool) ([]Document, error) {
	m.queries = append(m.queries, query{field: field, op: op, value: value})
	return m.found, nil
}

type stubRegistry map[string]Model

func (r stubRegistry) Lookup(name string) (Model, bool) {
	m, ok := r[name]
	return m, ok
}

func populateSchema(t *testing.T) (*Schema, *stubModel) {
	t.Helper()
	s := New(map[string]FieldDef{
		"author":  Ref("users"),
		"editors": List(Ref("users")),
	})
	s.AttachModel(&stubModel{name: "posts"})
	users := &stubModel{
		name: "users",
		docs: map[string]Document{
			"a": {"_id": "a", "name": "Ann"},
			"b": {"_id": "b", "name": "Bo"},
			"c": {"_id": "c", "name": "Cy"},
		},
	}
	s.AttachRegistry(stubRegistry{"users": users})
	return s, users
}

func TestApplyPopulatesArrayOrder(t *testing.T) {
	s, users := populateSchema(t)
	s.Populate(PopulateDef{Path: "editors", Model: "users"})

	doc := Document{"editors": []any{"a", "b", "c"}}
	out, err := s.ApplyPopulates(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, users.fetched)
	require.Equal(t, []any{
		Document{"_id": "a", "name": "Ann"},
		Document{"_id": "b", "name": "Bo"},
		Document{"_id": "c", "name": "Cy"},
	}, out["editors"])
}

func TestApplyPopulatesSkipsNilElements(t *testing.T) {
	s, users := populateSchema(t)
	s.Populate(PopulateDef{Path: "editors", Model: "users"})

	doc := Document{"editors": []any{"a", nil, "c"}}
	_, err := s.ApplyPopulates(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, users.fetched)
}

func TestApplyPopulatesEmptyOrAbsentArray(t *testing.T) {
	s, users := populateSchema(t)
	s.Populate(PopulateDef{Path: "editors", Model: "users"})

	doc := Document{"editors": []any{}}
	out, err := s.ApplyPopulates(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, []any{}, out["editors"])
	require.Empty(t, users.fetched)

	// absent field resolves to an empty sequence without any fetch
	out, err = s.ApplyPopulates(context.Background(), Document{})
	require.NoError(t, err)
	require.Equal(t, []any{}, out["editors"])
	require.Empty(t, users.fetched)
}

func TestApplyPopulatesSingleRef(t *testing.T) {
	s, users := populateSchema(t)
	s.Populate(PopulateDef{Path: "author", Model: "users"})

	doc := Document{"author": "b"}
	out, err := s.ApplyPopulates(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, Document{"_id": "b", "name": "Bo"}, out["author"])
	require.Equal(t, []string{"b"}, users.fetched)

	// a nil single reference is left alone
	out, err = s.ApplyPopulates(context.Background(), Document{"author": nil})
	require.NoError(t, err)
	require.Nil(t, out["author"])
}

func TestApplyPopulatesUnresolvedTarget(t *testing.T) {
	s := New(map[string]FieldDef{"author": Ref("ghosts")})
	s.AttachModel(&stubModel{name: "posts"})
	s.AttachRegistry(stubRegistry{})
	s.Populate(PopulateDef{Path: "author", Model: "ghosts"})

	// unresolved target name is not an error; the field is untouched
	out, err := s.ApplyPopulates(context.Background(), Document{"author": "g1"})
	require.NoError(t, err)
	require.Equal(t, "g1", out["author"])
}

func TestApplyPopulatesDescriptorOrder(t *testing.T) {
	s, users := populateSchema(t)
	s.Populate(PopulateDef{Path: "author", Model: "users"})
	s.Populate(PopulateDef{Path: "editors", Model: "users"})

	doc := Document{"author": "a", "editors": []any{"b", "c"}}
	_, err := s.ApplyPopulates(context.Background(), doc)
	require.NoError(t, err)
	// descriptors run strictly sequentially, in registration order
	require.Equal(t, []string{"a", "b", "c"}, users.fetched)
}

func TestApplyVirtuals(t *testing.T) {
	s := New(map[string]FieldDef{"name": Text()})
	s.AttachModel(&stubModel{name: "users"})
	comments := &stubModel{
		name:  "comments",
		found: []Document{{"_id": "c1", "author": "u1"}, {"_id": "c2", "author": "u1"}},
	}
	s.AttachRegistry(stubRegistry{"comments": comments})
	s.Virtual("comments", VirtualDef{Ref: "comments", LocalField: "_id", ForeignField: "author"})

	doc := Document{"_id": "u1", "name": "Ann"}
	out, err := s.ApplyVirtuals(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, comments.queries, 1)
	require.Equal(t, query{field: "author", op: "==", value: "u1"}, comments.queries[0])
	require.Equal(t, comments.found, out["comments"])
}

func TestApplyVirtualsUnresolvedTarget(t *testing.T) {
	s := New(map[string]FieldDef{"name": Text()})
	s.AttachModel(&stubModel{name: "users"})
	s.AttachRegistry(stubRegistry{})
	s.Virtual("comments", VirtualDef{Ref: "comments", LocalField: "_id", ForeignField: "author"})

	out, err := s.ApplyVirtuals(context.Background(), Document{"_id": "u1"})
	require.NoError(t, err)
	require.NotContains(t, out, "comments")
}
