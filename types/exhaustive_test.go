package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-lang/tessera/tesserr"
)

func shapeUnion(t *testing.T, s *Session) Type {
	t.Helper()
	circle := &Object{Fields: []Field{
		{Name: "kind", Type: StringLit("circle")},
		{Name: "radius", Type: NumberPrim},
	}}
	square := &Object{Fields: []Field{
		{Name: "kind", Type: StringLit("square")},
		{Name: "side", Type: NumberPrim},
	}}
	u, err := s.Union(s.MustIntern(circle), s.MustIntern(square))
	require.NoError(t, err)
	return u
}

func TestExhaustiveComplete(t *testing.T) {
	s := NewSession()
	shapes := shapeUnion(t, s)

	result, err := s.CheckExhaustive(shapes, "kind", []*Literal{
		StringLit("circle"),
		StringLit("square"),
	})
	require.NoError(t, err)
	assert.True(t, result.Exhaustive)
	assert.Empty(t, result.Unhandled)
}

func TestExhaustiveReportsResidual(t *testing.T) {
	s := NewSession()
	shapes := shapeUnion(t, s)

	result, err := s.CheckExhaustive(shapes, "kind", []*Literal{StringLit("circle")})
	require.NoError(t, err)
	assert.False(t, result.Exhaustive)
	require.Len(t, result.Unhandled, 1)

	missing, ok := result.Unhandled[0].(*Object)
	require.True(t, ok)
	tag, _ := missing.FieldByName("kind")
	assert.Same(t, s.MustIntern(StringLit("square")), tag.Type)
}

func TestExhaustiveExtraHandledTagsAreFine(t *testing.T) {
	s := NewSession()
	shapes := shapeUnion(t, s)

	result, err := s.CheckExhaustive(shapes, "kind", []*Literal{
		StringLit("circle"),
		StringLit("square"),
		StringLit("triangle"),
	})
	require.NoError(t, err)
	assert.True(t, result.Exhaustive)
}

func TestExhaustiveNeverIsVacuouslyComplete(t *testing.T) {
	s := NewSession()

	result, err := s.CheckExhaustive(Never, "kind", nil)
	require.NoError(t, err)
	assert.True(t, result.Exhaustive)
}

func TestExhaustiveSingleVariant(t *testing.T) {
	s := NewSession()
	only := s.MustIntern(&Object{Fields: []Field{
		{Name: "kind", Type: StringLit("circle")},
	}})

	result, err := s.CheckExhaustive(only, "kind", []*Literal{StringLit("circle")})
	require.NoError(t, err)
	assert.True(t, result.Exhaustive)
}

func TestExhaustiveBrandedVariant(t *testing.T) {
	s := NewSession()
	variant := s.MustIntern(&Branded{
		Brand: "Shape",
		Base: &Object{Fields: []Field{
			{Name: "kind", Type: StringLit("circle")},
		}},
	})

	result, err := s.CheckExhaustive(variant, "kind", []*Literal{StringLit("circle")})
	require.NoError(t, err)
	assert.True(t, result.Exhaustive)
}

func TestExhaustiveRejectsNonDiscriminatedMembers(t *testing.T) {
	s := NewSession()

	for name, member := range map[string]Type{
		"not an object":         StringPrim,
		"missing field":         s.MustIntern(&Object{Fields: []Field{{Name: "other", Type: StringPrim}}}),
		"non-literal field":     s.MustIntern(&Object{Fields: []Field{{Name: "kind", Type: StringPrim}}}),
		"optional discriminant": s.MustIntern(&Object{Fields: []Field{{Name: "kind", Type: StringLit("x"), Optional: true}}}),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.CheckExhaustive(member, "kind", nil)
			require.Error(t, err)
			assert.True(t, tesserr.IsCode(err, tesserr.NotAnObjectVariant))
		})
	}
}
