package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-lang/tessera/tesserr"
)

func TestKeyOfObject(t *testing.T) {
	s := NewSession()
	obj := s.MustIntern(&Object{Fields: []Field{
		{Name: "a", Type: StringPrim},
		{Name: "b", Type: NumberPrim},
	}})

	got, err := s.Resolve(s.MustIntern(&KeyOf{Operand: obj}), s.NewEnv())
	require.NoError(t, err)

	want := mustUnion(t, s, s.MustIntern(StringLit("a")), s.MustIntern(StringLit("b")))
	assert.Same(t, want, got)
}

func TestKeyOfEmptyObjectIsNever(t *testing.T) {
	s := NewSession()
	empty := s.MustIntern(&Object{})

	got, err := s.Resolve(s.MustIntern(&KeyOf{Operand: empty}), s.NewEnv())
	require.NoError(t, err)
	assert.Same(t, Never, got)
}

func TestIndexedAccess(t *testing.T) {
	s := NewSession()
	obj := s.MustIntern(&Object{Fields: []Field{
		{Name: "a", Type: StringPrim},
		{Name: "b", Type: NumberPrim, Optional: true},
	}})
	env := s.NewEnv()

	t.Run("field by string literal", func(t *testing.T) {
		got, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: obj, Index: StringLit("a")}), env)
		require.NoError(t, err)
		assert.Same(t, Type(StringPrim), got)
	})

	t.Run("optional field includes undefined", func(t *testing.T) {
		got, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: obj, Index: StringLit("b")}), env)
		require.NoError(t, err)
		assert.Same(t, mustUnion(t, s, NumberPrim, UndefinedPrim), got)
	})

	t.Run("union index distributes", func(t *testing.T) {
		idx := mustUnion(t, s, s.MustIntern(StringLit("a")), s.MustIntern(StringLit("b")))
		got, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: obj, Index: idx}), env)
		require.NoError(t, err)
		assert.Same(t, mustUnion(t, s, StringPrim, NumberPrim, UndefinedPrim), got)
	})

	t.Run("missing field errors", func(t *testing.T) {
		_, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: obj, Index: StringLit("zzz")}), env)
		require.Error(t, err)
		assert.True(t, tesserr.IsCode(err, tesserr.BadIndex))
	})

	t.Run("tuple by number literal", func(t *testing.T) {
		pair := s.MustIntern(&Tuple{Elems: []Type{StringPrim, NumberPrim}})
		got, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: pair, Index: NumberLit(1)}), env)
		require.NoError(t, err)
		assert.Same(t, Type(NumberPrim), got)

		_, err = s.Resolve(s.MustIntern(&IndexedAccess{Object: pair, Index: NumberLit(5)}), env)
		require.Error(t, err)
		assert.True(t, tesserr.IsCode(err, tesserr.BadIndex))
	})

	t.Run("tuple by number is the element union", func(t *testing.T) {
		pair := s.MustIntern(&Tuple{Elems: []Type{StringPrim, NumberPrim}})
		got, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: pair, Index: NumberPrim}), env)
		require.NoError(t, err)
		assert.Same(t, mustUnion(t, s, StringPrim, NumberPrim), got)
	})

	t.Run("array by number", func(t *testing.T) {
		arr := s.MustIntern(&Array{Elem: BooleanPrim})
		got, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: arr, Index: NumberPrim}), env)
		require.NoError(t, err)
		assert.Same(t, Type(BooleanPrim), got)
	})

	t.Run("any index on any object", func(t *testing.T) {
		got, err := s.Resolve(s.MustIntern(&IndexedAccess{Object: Any, Index: StringLit("a")}), env)
		require.NoError(t, err)
		assert.Same(t, Any, got)
	})
}

func TestRecursiveAliasTiesKnot(t *testing.T) {
	s := NewSession()
	env, err := s.NewEnv().DefineAlias("List", nil, &Object{Fields: []Field{
		{Name: "value", Type: NumberPrim},
		{Name: "next", Type: &Ref{Name: "List"}},
	}})
	require.NoError(t, err)

	got, err := s.Resolve(s.MustIntern(&Ref{Name: "List"}), env)
	require.NoError(t, err)

	obj, ok := got.(*Object)
	require.True(t, ok)
	next, ok := obj.FieldByName("next")
	require.True(t, ok)
	assert.Same(t, Any, next.Type)

	// tying the knot is not a depth-limit event
	assert.False(t, s.Warnings.HasError())
}

func TestUnknownAliasErrors(t *testing.T) {
	s := NewSession()
	_, err := s.Resolve(s.MustIntern(&Ref{Name: "Nope"}), s.NewEnv())
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.UnknownAlias))
}

func TestGenericAliasExpansion(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)

	env, err := s.NewEnv().DefineAlias("Box", []*Param{p}, &Object{Fields: []Field{
		{Name: "value", Type: p},
	}})
	require.NoError(t, err)

	got, err := s.Resolve(s.MustIntern(&Ref{Name: "Box", Args: []Type{StringPrim}}), env)
	require.NoError(t, err)

	want := s.MustIntern(&Object{Fields: []Field{{Name: "value", Type: StringPrim}}})
	assert.Same(t, want, got)
}

func TestFreeParamHandling(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)

	_, err := s.Resolve(p, s.NewEnv())
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.UnboundParam))

	got, err := s.ResolveOpt(p, s.NewEnv(), ResolveOpts{PreserveFree: true})
	require.NoError(t, err)
	assert.Same(t, Type(p), got)
}

func TestSubstituteShadowsInferSlots(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)

	cond := s.MustIntern(&Conditional{
		Check:   p,
		Extends: p,
		True:    p,
		False:   NumberPrim,
		Infer:   []*Param{p},
	})

	// binding T from outside only reaches the check; the infer slot shadows
	// it in the extends pattern and the true branch
	got := s.Substitute(cond, Bindings{p.ID: StringPrim})

	sub, ok := got.(*Conditional)
	require.True(t, ok)
	assert.Same(t, Type(StringPrim), sub.Check)
	assert.Same(t, Type(p), sub.Extends)
	assert.Same(t, Type(p), sub.True)
}

func TestSubstituteIsIdentityWhenNothingBound(t *testing.T) {
	s := NewSession()
	p := s.NewParam("T", nil, nil)
	other := s.NewParam("U", nil, nil)

	arr := s.MustIntern(&Array{Elem: p})
	assert.Same(t, arr, s.Substitute(arr, Bindings{other.ID: StringPrim}))
}

func TestAliasDeclarationMerging(t *testing.T) {
	s := NewSession()

	env, err := s.NewEnv().DefineAlias("Config", nil, &Object{Fields: []Field{
		{Name: "host", Type: StringPrim},
	}})
	require.NoError(t, err)
	env, err = env.DefineAlias("Config", nil, &Object{Fields: []Field{
		{Name: "port", Type: NumberPrim},
	}})
	require.NoError(t, err)

	got, err := s.Resolve(s.MustIntern(&Ref{Name: "Config"}), env)
	require.NoError(t, err)

	want := s.MustIntern(&Object{Fields: []Field{
		{Name: "host", Type: StringPrim},
		{Name: "port", Type: NumberPrim},
	}})
	assert.Same(t, want, got)
}

func TestAliasMergeConflicts(t *testing.T) {
	s := NewSession()

	env, err := s.NewEnv().DefineAlias("Config", nil, &Object{Fields: []Field{
		{Name: "host", Type: StringPrim},
	}})
	require.NoError(t, err)

	_, err = env.DefineAlias("Config", nil, &Object{Fields: []Field{
		{Name: "host", Type: NumberPrim},
	}})
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.Malformed))

	// non-object redeclaration never merges
	_, err = env.DefineAlias("Config", nil, StringPrim)
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.Malformed))
}

func TestEnvDerivationLeavesParentUntouched(t *testing.T) {
	s := NewSession()

	parent, err := s.NewEnv().DefineAlias("A", nil, StringPrim)
	require.NoError(t, err)
	child, err := parent.DefineAlias("B", nil, NumberPrim)
	require.NoError(t, err)

	_, err = s.Resolve(s.MustIntern(&Ref{Name: "B"}), parent)
	require.Error(t, err)
	assert.True(t, tesserr.IsCode(err, tesserr.UnknownAlias))

	got, err := s.Resolve(s.MustIntern(&Ref{Name: "B"}), child)
	require.NoError(t, err)
	assert.Same(t, Type(NumberPrim), got)
}
