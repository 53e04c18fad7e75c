package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-lang/tessera/tesserr"
)

func TestInternIdempotent(t *testing.T) {
	s := NewSession()

	a := s.MustIntern(&Object{Fields: []Field{
		{Name: "x", Type: StringPrim},
		{Name: "y", Type: NumberPrim},
	}})
	b := s.MustIntern(&Object{Fields: []Field{
		{Name: "x", Type: StringPrim},
		{Name: "y", Type: NumberPrim},
	}})
	assert.Same(t, a, b)
}

func TestInternObjectFieldOrderIrrelevant(t *testing.T) {
	s := NewSession()

	a := s.MustIntern(&Object{Fields: []Field{
		{Name: "x", Type: StringPrim},
		{Name: "y", Type: NumberPrim},
	}})
	b := s.MustIntern(&Object{Fields: []Field{
		{Name: "y", Type: NumberPrim},
		{Name: "x", Type: StringPrim},
	}})
	assert.Same(t, a, b)
}

func TestInternPrimitiveSingletons(t *testing.T) {
	s := NewSession()

	got := s.MustIntern(&Primitive{Name: "string"})
	assert.Same(t, Type(StringPrim), got)
}

func TestUnionNormalization(t *testing.T) {
	s := NewSession()

	t.Run("flattens and deduplicates", func(t *testing.T) {
		inner, err := s.Union(StringPrim, NumberPrim)
		require.NoError(t, err)
		outer, err := s.Union(inner, StringPrim, BooleanPrim)
		require.NoError(t, err)

		u, ok := outer.(*Union)
		require.True(t, ok)
		assert.Len(t, u.Members, 3)
	})

	t.Run("order is canonical", func(t *testing.T) {
		a, err := s.Union(StringPrim, NumberPrim)
		require.NoError(t, err)
		b, err := s.Union(NumberPrim, StringPrim)
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("single member collapses", func(t *testing.T) {
		u, err := s.Union(StringPrim, StringPrim)
		require.NoError(t, err)
		assert.Same(t, Type(StringPrim), u)
	})

	t.Run("never is absorbed", func(t *testing.T) {
		u, err := s.Union(StringPrim, Never)
		require.NoError(t, err)
		assert.Same(t, Type(StringPrim), u)
	})

	t.Run("any collapses", func(t *testing.T) {
		u, err := s.Union(StringPrim, Any)
		require.NoError(t, err)
		assert.Same(t, Any, u)
	})

	t.Run("unknown subsumes all but any", func(t *testing.T) {
		u, err := s.Union(StringPrim, Unknown)
		require.NoError(t, err)
		assert.Same(t, Unknown, u)
	})
}

func TestIntersectionNormalization(t *testing.T) {
	s := NewSession()

	t.Run("never collapses", func(t *testing.T) {
		i, err := s.Intersection(StringPrim, Never)
		require.NoError(t, err)
		assert.Same(t, Never, i)
	})

	t.Run("unknown is identity", func(t *testing.T) {
		i, err := s.Intersection(StringPrim, Unknown)
		require.NoError(t, err)
		assert.Same(t, Type(StringPrim), i)
	})
}

func TestInternRejectsMalformed(t *testing.T) {
	s := NewSession()

	for name, shape := range map[string]Type{
		"empty union":        &Union{},
		"empty intersection": &Intersection{},
		"duplicate field":    &Object{Fields: []Field{{Name: "a", Type: StringPrim}, {Name: "a", Type: NumberPrim}}},
		"empty field name":   &Object{Fields: []Field{{Name: "", Type: StringPrim}}},
		"tuple tail range":   &Tuple{Elems: []Type{StringPrim}, OptionalTail: 2},
		"function no return": &Function{Params: []Type{StringPrim}},
		"empty brand":        &Branded{Base: StringPrim},
		"empty alias name":   &Ref{},
		"unknown primitive":  &Primitive{Name: "float"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Intern(shape)
			require.Error(t, err)
			assert.True(t, tesserr.IsCode(err, tesserr.Malformed))
		})
	}
}

func TestParamIdentityByID(t *testing.T) {
	s := NewSession()

	a := s.NewParam("T", nil, nil)
	b := s.NewParam("T", nil, nil)
	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.Hash(), b.Hash())

	again, err := s.Intern(&Param{ID: a.ID})
	require.NoError(t, err)
	assert.Same(t, Type(a), again)
}
