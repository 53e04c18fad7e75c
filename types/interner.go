package types

import (
	"fmt"

	"github.com/tessera-lang/tessera/tesserr"
)

// Interner deduplicates structurally-equal types into shared handles.
// Everything downstream relies on the invariant that two interned types are
// structurally equal iff they are the same handle, which makes equality O(1)
// and lets the memo caches key on hashes alone.
//
// The table is session-scoped and never evicts; parallel checking means
// parallel sessions, each with its own interner.
type Interner struct {
	table  map[uint64][]Type
	params map[ParamID]*Param
}

func NewInterner() *Interner {
	in := &Interner{
		table:  make(map[uint64][]Type, 64),
		params: make(map[ParamID]*Param, 8),
	}
	for _, p := range primitives {
		in.table[p.Hash()] = []Type{p}
	}
	for _, e := range []Type{Never, Unknown, Any} {
		in.table[e.Hash()] = []Type{e}
	}
	return in
}

// Intern returns the canonical handle for t, validating structural invariants
// on the way in. Children are interned first, so a canonical type only ever
// points at canonical children.
func (in *Interner) Intern(t Type) (Type, error) {
	if t == nil {
		return nil, tesserr.New(tesserr.NewMalformedType{Shape: "nil", Reason: "nil type"})
	}
	switch t := t.(type) {
	case *extremeType:
		return in.canonical(t), nil

	case *Primitive:
		for _, p := range primitives {
			if p.Name == t.Name {
				return p, nil
			}
		}
		return nil, tesserr.New(tesserr.NewMalformedType{Shape: "primitive", Reason: fmt.Sprintf("unknown primitive %q", t.Name)})

	case *Literal:
		if t.Text == "" && t.Kind != LitString {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "literal", Reason: "empty literal text"})
		}
		return in.canonical(t), nil

	case *Param:
		return in.internParam(t)

	case *Object:
		return in.internObject(t)

	case *Array:
		elem, err := in.Intern(t.Elem)
		if err != nil {
			return nil, err
		}
		return in.canonical(&Array{Elem: elem}), nil

	case *Tuple:
		return in.internTuple(t)

	case *Function:
		return in.internFunction(t)

	case *Union:
		if len(t.Members) == 0 {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "union", Reason: "a union must have at least one member"})
		}
		members, err := in.internAll(t.Members)
		if err != nil {
			return nil, err
		}
		return in.NewUnion(members...), nil

	case *Intersection:
		if len(t.Members) == 0 {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "intersection", Reason: "an intersection must have at least one member"})
		}
		members, err := in.internAll(t.Members)
		if err != nil {
			return nil, err
		}
		return in.NewIntersection(members...), nil

	case *Conditional:
		return in.internConditional(t)

	case *Mapped:
		return in.internMapped(t)

	case *Branded:
		if t.Brand == "" {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "branded", Reason: "empty brand tag"})
		}
		base, err := in.Intern(t.Base)
		if err != nil {
			return nil, err
		}
		return in.canonical(&Branded{Base: base, Brand: t.Brand}), nil

	case *KeyOf:
		op, err := in.Intern(t.Operand)
		if err != nil {
			return nil, err
		}
		return in.canonical(&KeyOf{Operand: op}), nil

	case *IndexedAccess:
		obj, err := in.Intern(t.Object)
		if err != nil {
			return nil, err
		}
		idx, err := in.Intern(t.Index)
		if err != nil {
			return nil, err
		}
		return in.canonical(&IndexedAccess{Object: obj, Index: idx}), nil

	case *Ref:
		if t.Name == "" {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "ref", Reason: "empty alias name"})
		}
		args, err := in.internAll(t.Args)
		if err != nil {
			return nil, err
		}
		return in.canonical(&Ref{Name: t.Name, Args: args}), nil

	default:
		return nil, tesserr.New(tesserr.NewMalformedType{Shape: fmt.Sprintf("%T", t), Reason: "unknown type shape"})
	}
}

func (in *Interner) internAll(ts []Type) ([]Type, error) {
	out := make([]Type, len(ts))
	for i, t := range ts {
		interned, err := in.Intern(t)
		if err != nil {
			return nil, err
		}
		out[i] = interned
	}
	return out, nil
}

func (in *Interner) internParam(t *Param) (Type, error) {
	if existing, ok := in.params[t.ID]; ok {
		return existing, nil
	}
	var err error
	canonical := &Param{ID: t.ID, Name: t.Name}
	// register before interning constraint/default so self-referential
	// constraints (T extends {next: T}) terminate
	in.params[t.ID] = canonical
	if t.Constraint != nil {
		canonical.Constraint, err = in.Intern(t.Constraint)
		if err != nil {
			return nil, err
		}
	}
	if t.Default != nil {
		canonical.Default, err = in.Intern(t.Default)
		if err != nil {
			return nil, err
		}
	}
	return canonical, nil
}

func (in *Interner) internObject(t *Object) (Type, error) {
	seen := make(map[string]bool, len(t.Fields))
	fields := make([]Field, len(t.Fields))
	for i, f := range t.Fields {
		if f.Name == "" {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "object", Reason: "field with empty name"})
		}
		if seen[f.Name] {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "object", Reason: fmt.Sprintf("duplicate field %q", f.Name)})
		}
		seen[f.Name] = true
		ft, err := in.Intern(f.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = Field{Name: f.Name, Type: ft, Optional: f.Optional, Readonly: f.Readonly}
	}
	return in.canonical(&Object{Fields: fields}), nil
}

func (in *Interner) internTuple(t *Tuple) (Type, error) {
	if t.OptionalTail < 0 || t.OptionalTail > len(t.Elems) {
		return nil, tesserr.New(tesserr.NewMalformedType{Shape: "tuple", Reason: fmt.Sprintf("optional tail count %d out of range", t.OptionalTail)})
	}
	elems, err := in.internAll(t.Elems)
	if err != nil {
		return nil, err
	}
	return in.canonical(&Tuple{Elems: elems, OptionalTail: t.OptionalTail}), nil
}

func (in *Interner) internFunction(t *Function) (Type, error) {
	if t.Return == nil {
		return nil, tesserr.New(tesserr.NewMalformedType{Shape: "function", Reason: "missing return type"})
	}
	params, err := in.internAll(t.Params)
	if err != nil {
		return nil, err
	}
	var rest Type
	if t.Rest != nil {
		rest, err = in.Intern(t.Rest)
		if err != nil {
			return nil, err
		}
	}
	ret, err := in.Intern(t.Return)
	if err != nil {
		return nil, err
	}
	return in.canonical(&Function{Params: params, Rest: rest, Return: ret}), nil
}

func (in *Interner) internConditional(t *Conditional) (Type, error) {
	for _, part := range []Type{t.Check, t.Extends, t.True, t.False} {
		if part == nil {
			return nil, tesserr.New(tesserr.NewMalformedType{Shape: "conditional", Reason: "missing check/extends/branch type"})
		}
	}
	check, err := in.Intern(t.Check)
	if err != nil {
		return nil, err
	}
	extends, err := in.Intern(t.Extends)
	if err != nil {
		return nil, err
	}
	trueT, err := in.Intern(t.True)
	if err != nil {
		return nil, err
	}
	falseT, err := in.Intern(t.False)
	if err != nil {
		return nil, err
	}
	infer := make([]*Param, len(t.Infer))
	for i, p := range t.Infer {
		interned, err := in.internParam(p)
		if err != nil {
			return nil, err
		}
		infer[i] = interned.(*Param)
	}
	return in.canonical(&Conditional{
		Check:   check,
		Extends: extends,
		True:    trueT,
		False:   falseT,
		Infer:   infer,
	}), nil
}

func (in *Interner) internMapped(t *Mapped) (Type, error) {
	if t.Key == nil || t.Source == nil || t.Value == nil {
		return nil, tesserr.New(tesserr.NewMalformedType{Shape: "mapped", Reason: "missing key parameter, source or value"})
	}
	keyT, err := in.internParam(t.Key)
	if err != nil {
		return nil, err
	}
	source, err := in.Intern(t.Source)
	if err != nil {
		return nil, err
	}
	value, err := in.Intern(t.Value)
	if err != nil {
		return nil, err
	}
	var remap Type
	if t.Remap != nil {
		remap, err = in.Intern(t.Remap)
		if err != nil {
			return nil, err
		}
	}
	return in.canonical(&Mapped{
		Key:      keyT.(*Param),
		Source:   source,
		Value:    value,
		Remap:    remap,
		Readonly: t.Readonly,
		Optional: t.Optional,
	}), nil
}

// canonical looks t up in the table by hash, falling back to a structural
// comparison within the bucket. t's children must already be canonical.
func (in *Interner) canonical(t Type) Type {
	hash := t.Hash()
	for _, candidate := range in.table[hash] {
		if structuralEqual(candidate, t) {
			return candidate
		}
	}
	in.table[hash] = append(in.table[hash], t)
	return t
}

// structuralEqual compares two types whose children are already canonical
// handles, so child comparison is plain ==.
func structuralEqual(a, b Type) bool {
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *Primitive:
		b, ok := b.(*Primitive)
		return ok && a.Name == b.Name
	case *Literal:
		b, ok := b.(*Literal)
		return ok && a.Kind == b.Kind && a.Text == b.Text
	case *Param:
		b, ok := b.(*Param)
		return ok && a.ID == b.ID
	case *Object:
		b, ok := b.(*Object)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		// order-insensitive
		for _, fa := range a.Fields {
			fb, ok := b.FieldByName(fa.Name)
			if !ok || fa.Type != fb.Type || fa.Optional != fb.Optional || fa.Readonly != fb.Readonly {
				return false
			}
		}
		return true
	case *Array:
		b, ok := b.(*Array)
		return ok && a.Elem == b.Elem
	case *Tuple:
		b, ok := b.(*Tuple)
		if !ok || a.OptionalTail != b.OptionalTail || len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if a.Elems[i] != b.Elems[i] {
				return false
			}
		}
		return true
	case *Function:
		b, ok := b.(*Function)
		if !ok || a.Rest != b.Rest || a.Return != b.Return || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if a.Params[i] != b.Params[i] {
				return false
			}
		}
		return true
	case *Union:
		b, ok := b.(*Union)
		return ok && sameMembers(a.Members, b.Members)
	case *Intersection:
		b, ok := b.(*Intersection)
		return ok && sameMembers(a.Members, b.Members)
	case *Conditional:
		b, ok := b.(*Conditional)
		if !ok || a.Check != b.Check || a.Extends != b.Extends || a.True != b.True || a.False != b.False || len(a.Infer) != len(b.Infer) {
			return false
		}
		for i := range a.Infer {
			if a.Infer[i] != b.Infer[i] {
				return false
			}
		}
		return true
	case *Mapped:
		b, ok := b.(*Mapped)
		return ok && a.Key == b.Key && a.Source == b.Source && a.Value == b.Value &&
			a.Remap == b.Remap && a.Readonly == b.Readonly && a.Optional == b.Optional
	case *Branded:
		b, ok := b.(*Branded)
		return ok && a.Base == b.Base && a.Brand == b.Brand
	case *KeyOf:
		b, ok := b.(*KeyOf)
		return ok && a.Operand == b.Operand
	case *IndexedAccess:
		b, ok := b.(*IndexedAccess)
		return ok && a.Object == b.Object && a.Index == b.Index
	case *Ref:
		b, ok := b.(*Ref)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if a.Args[i] != b.Args[i] {
				return false
			}
		}
		return true
	default:
		// extremes are singletons, caught by the == above
		return false
	}
}

// members are canonical and hash-sorted, so pairwise comparison suffices
func sameMembers(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
