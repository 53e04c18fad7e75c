package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-lang/tessera/tesserr"
)

func sampleObject(s *Session) Type {
	return s.MustIntern(&Object{Fields: []Field{
		{Name: "a", Type: StringPrim},
		{Name: "b", Type: NumberPrim},
	}})
}

func TestMappedPartial(t *testing.T) {
	s := NewSession()
	obj := sampleObject(s)
	k := s.NewParam("K", nil, nil)

	// { [K in keyof T]?: T[K] }
	partial := s.MustIntern(&Mapped{
		Key:      k,
		Source:   &KeyOf{Operand: obj},
		Value:    &IndexedAccess{Object: obj, Index: k},
		Optional: ModAdd,
	})

	got, err := s.Resolve(partial, s.NewEnv())
	require.NoError(t, err)

	want := s.MustIntern(&Object{Fields: []Field{
		{Name: "a", Type: StringPrim, Optional: true},
		{Name: "b", Type: NumberPrim, Optional: true},
	}})
	assert.Same(t, want, got)
}

func TestMappedRequiredStripsOptional(t *testing.T) {
	s := NewSession()
	obj := s.MustIntern(&Object{Fields: []Field{
		{Name: "a", Type: StringPrim, Optional: true},
	}})
	k := s.NewParam("K", nil, nil)

	required := s.MustIntern(&Mapped{
		Key:      k,
		Source:   &KeyOf{Operand: obj},
		Value:    StringPrim,
		Optional: ModRemove,
	})

	got, err := s.Resolve(required, s.NewEnv())
	require.NoError(t, err)

	obj2, ok := got.(*Object)
	require.True(t, ok)
	f, ok := obj2.FieldByName("a")
	require.True(t, ok)
	assert.False(t, f.Optional)
}

func TestMappedReadonly(t *testing.T) {
	s := NewSession()
	obj := sampleObject(s)
	k := s.NewParam("K", nil, nil)

	readonly := s.MustIntern(&Mapped{
		Key:      k,
		Source:   &KeyOf{Operand: obj},
		Value:    &IndexedAccess{Object: obj, Index: k},
		Readonly: ModAdd,
	})

	got, err := s.Resolve(readonly, s.NewEnv())
	require.NoError(t, err)

	obj2, ok := got.(*Object)
	require.True(t, ok)
	for _, f := range obj2.Fields {
		assert.True(t, f.Readonly, "field %s should be readonly", f.Name)
	}
}

func TestMappedHomomorphicKeepsModifiers(t *testing.T) {
	s := NewSession()
	obj := s.MustIntern(&Object{Fields: []Field{
		{Name: "a", Type: StringPrim, Optional: true, Readonly: true},
		{Name: "b", Type: NumberPrim},
	}})
	k := s.NewParam("K", nil, nil)

	identity := s.MustIntern(&Mapped{
		Key:    k,
		Source: &KeyOf{Operand: obj},
		Value:  &IndexedAccess{Object: obj, Index: k},
	})

	got, err := s.Resolve(identity, s.NewEnv())
	require.NoError(t, err)

	obj2, ok := got.(*Object)
	require.True(t, ok)
	a, _ := obj2.FieldByName("a")
	assert.True(t, a.Optional)
	assert.True(t, a.Readonly)
	b, _ := obj2.FieldByName("b")
	assert.False(t, b.Optional)
	assert.False(t, b.Readonly)
}

func TestMappedPickViaLiteralSource(t *testing.T) {
	s := NewSession()
	obj := sampleObject(s)
	k := s.NewParam("K", nil, nil)

	// { [K in "a"]: T[K] }
	pick := s.MustIntern(&Mapped{
		Key:    k,
		Source: StringLit("a"),
		Value:  &IndexedAccess{Object: obj, Index: k},
	})

	got, err := s.Resolve(pick, s.NewEnv())
	require.NoError(t, err)

	want := s.MustIntern(&Object{Fields: []Field{{Name: "a", Type: StringPrim}}})
	assert.Same(t, want, got)
}

func TestMappedRemapDropsNever(t *testing.T) {
	s := NewSession()
	obj := sampleObject(s)
	k := s.NewParam("K", nil, nil)

	// Omit "a": { [K in keyof T as K extends "a" ? never : K]: T[K] }
	omit := s.MustIntern(&Mapped{
		Key:    k,
		Source: &KeyOf{Operand: obj},
		Value:  &IndexedAccess{Object: obj, Index: k},
		Remap: &Conditional{
			Check:   k,
			Extends: StringLit("a"),
			True:    Never,
			False:   k,
		},
	})

	got, err := s.Resolve(omit, s.NewEnv())
	require.NoError(t, err)

	want := s.MustIntern(&Object{Fields: []Field{{Name: "b", Type: NumberPrim}}})
	assert.Same(t, want, got)
}

func TestMappedRemapAllToNeverIsEmptyObject(t *testing.T) {
	s := NewSession()
	obj := sampleObject(s)
	k := s.NewParam("K", nil, nil)

	dropAll := s.MustIntern(&Mapped{
		Key:    k,
		Source: &KeyOf{Operand: obj},
		Value:  &IndexedAccess{Object: obj, Index: k},
		Remap:  Never,
	})

	got, err := s.Resolve(dropAll, s.NewEnv())
	require.NoError(t, err)
	assert.Same(t, s.MustIntern(&Object{}), got)
}

func TestMappedRemapCollisionIsAnError(t *testing.T) {
	s := NewSession()
	obj := sampleObject(s)
	k := s.NewParam("K", nil, nil)

	collide := s.MustIntern(&Mapped{
		Key:    k,
		Source: &KeyOf{Operand: obj},
		Value:  &IndexedAccess{Object: obj, Index: k},
		Remap:  StringLit("same"),
	})

	_, err := s.Resolve(collide, s.NewEnv())
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.DuplicateKey))
}

func TestMappedOverNeverSourceIsEmptyObject(t *testing.T) {
	s := NewSession()
	k := s.NewParam("K", nil, nil)

	got, err := s.Resolve(s.MustIntern(&Mapped{
		Key:    k,
		Source: Never,
		Value:  StringPrim,
	}), s.NewEnv())
	require.NoError(t, err)
	assert.Same(t, s.MustIntern(&Object{}), got)
}

func TestMappedNonEnumerableSourceErrors(t *testing.T) {
	s := NewSession()
	k := s.NewParam("K", nil, nil)

	_, err := s.Resolve(s.MustIntern(&Mapped{
		Key:    k,
		Source: StringPrim,
		Value:  StringPrim,
	}), s.NewEnv())
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.Malformed))
}
