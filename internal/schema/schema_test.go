package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistriesDeduplicate(t *testing.T) {
	s := New(map[string]FieldDef{
		"author": Ref("users"),
		"photo":  Text(),
	})

	s.Populate(PopulateDef{Path: "author", Model: "users"})
	s.Populate(PopulateDef{Path: "author", Model: "groups"}) // dropped: same path
	require.Len(t, s.populates, 1)
	require.Equal(t, "users", s.populates[0].Model)

	s.Virtual("comments", VirtualDef{Ref: "comments", LocalField: FieldID, ForeignField: "post"})
	s.Virtual("comments", VirtualDef{Ref: "replies", LocalField: FieldID, ForeignField: "post"})
	require.Len(t, s.virtuals, 1)
	require.Equal(t, "comments", s.virtuals[0].Ref)

	s.Upload("posts/photos", "photo")
	s.Upload("elsewhere", "photo")
	require.Len(t, s.uploads, 1)
	ud, ok := s.UploadFor("photo")
	require.True(t, ok)
	require.Equal(t, "posts/photos", ud.StoragePath)

	s.RegisterHook("create", func(ctx context.Context, s *Schema) error { return nil })
	s.RegisterHook("create", func(ctx context.Context, s *Schema) error { return errors.New("never runs") })
	require.Len(t, s.hooks, 1)
	require.NoError(t, s.RunHooks(context.Background(), "create"))
}

func TestRunHooksOrderAndFilter(t *testing.T) {
	s := New(nil)
	var calls []string
	s.RegisterHook("create", func(ctx context.Context, s *Schema) error {
		calls = append(calls, "create")
		return nil
	})
	s.RegisterHook("update", func(ctx context.Context, s *Schema) error {
		calls = append(calls, "update")
		return nil
	})
	s.RegisterHook("delete", func(ctx context.Context, s *Schema) error {
		calls = append(calls, "delete")
		return nil
	})

	require.NoError(t, s.RunHooks(context.Background(), "update"))
	require.Equal(t, []string{"update"}, calls)

	calls = nil
	require.NoError(t, s.RunHooks(context.Background(), "missing"))
	require.Empty(t, calls)
}

func TestRunHooksPropagatesError(t *testing.T) {
	s := New(nil)
	boom := errors.New("boom")
	s.RegisterHook("create", func(ctx context.Context, s *Schema) error { return boom })
	err := s.RunHooks(context.Background(), "create")
	require.ErrorIs(t, err, boom)
}

func TestAttachFirstWins(t *testing.T) {
	s := New(nil)
	a := &stubModel{name: "a"}
	b := &stubModel{name: "b"}
	s.AttachModel(a)
	s.AttachModel(b)
	require.Equal(t, "a", s.modelName())

	r1 := stubRegistry{"x": a}
	r2 := stubRegistry{"x": b}
	s.AttachRegistry(r1)
	s.AttachRegistry(r2)
	got, ok := s.lookupModel("x")
	require.True(t, ok)
	require.Equal(t, "a", got.Name())
}

func TestListOfUnsupportedShapeIsUnknown(t *testing.T) {
	d := List(List(Text()))
	require.Equal(t, "unknown", d.TypeLabel())
	d = List(Opaque())
	require.Equal(t, "unknown", d.TypeLabel())
}
