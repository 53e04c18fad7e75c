package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-lang/tessera/tesserr"
)

func TestInstantiateDefaults(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)
	u := s.NewParam("U", nil, StringPrim)

	// <T, U = string> instantiated with [number]
	b, err := s.Instantiate([]*Param{p, u}, []Type{NumberPrim})
	require.NoError(t, err)

	assert.Same(t, Type(NumberPrim), b[p.ID])
	assert.Same(t, Type(StringPrim), b[u.ID])
}

func TestInstantiateDefaultReferencesEarlierParam(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)
	u := s.NewParam("U", nil, &Array{Elem: p})

	// <T, U = T[]> instantiated with [boolean]
	b, err := s.Instantiate([]*Param{p, u}, []Type{BooleanPrim})
	require.NoError(t, err)

	assert.Same(t, s.MustIntern(&Array{Elem: BooleanPrim}), b[u.ID])
}

func TestInstantiateExplicitNilUsesDefault(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)
	u := s.NewParam("U", nil, StringPrim)

	b, err := s.Instantiate([]*Param{p, u}, []Type{NumberPrim, nil})
	require.NoError(t, err)
	assert.Same(t, Type(StringPrim), b[u.ID])
}

func TestInstantiateMissingWithoutDefaultStaysFree(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)
	u := s.NewParam("U", nil, nil)

	b, err := s.Instantiate([]*Param{p, u}, []Type{NumberPrim})
	require.NoError(t, err)

	_, bound := b[u.ID]
	assert.False(t, bound)
}

func TestInstantiateConstraint(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", StringPrim, nil)

	_, err := s.Instantiate([]*Param{p}, []Type{StringLit("ok")})
	require.NoError(t, err)

	_, err = s.Instantiate([]*Param{p}, []Type{NumberPrim})
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.ConstraintViolation))
}

func TestInstantiateConstraintSeesEarlierBindings(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)
	u := s.NewParam("U", p, nil)

	// <T, U extends T>
	_, err := s.Instantiate([]*Param{p, u}, []Type{StringPrim, s.MustIntern(StringLit("a"))})
	require.NoError(t, err)

	_, err = s.Instantiate([]*Param{p, u}, []Type{StringPrim, NumberPrim})
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.ConstraintViolation))
}

func TestInstantiateTooManyArgs(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)

	_, err := s.Instantiate([]*Param{p}, []Type{StringPrim, NumberPrim})
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.Malformed))
}
