package types

import (
	"strconv"

	"github.com/tessera-lang/tessera/tesserr"
)

// ResolveOpts tunes resolution.
type ResolveOpts struct {
	// PreserveFree keeps unbound type parameters in place instead of
	// reporting them. Hosts resolving inside a generic declaration want
	// this; fully-resolved mode (the default) treats a free parameter as an
	// error.
	PreserveFree bool
}

// Resolve reduces t to a structural type under env: aliases are expanded,
// conditionals evaluated, mapped types transformed, keyof and indexed access
// computed. The result is a canonical handle containing no Ref, Conditional,
// Mapped, KeyOf or IndexedAccess nodes (any-propagation and recursion
// sentinels aside).
func (s *Session) Resolve(t Type, env *Env) (Type, error) {
	return s.ResolveOpt(t, env, ResolveOpts{})
}

func (s *Session) ResolveOpt(t Type, env *Env, opts ResolveOpts) (Type, error) {
	r := &resolver{
		session:  s,
		env:      env,
		opts:     opts,
		inFlight: make(map[memoKey]bool),
	}
	return r.resolve(t, env.bindings)
}

type resolver struct {
	session *Session
	env     *Env
	opts    ResolveOpts

	// inFlight tracks alias expansions on the current stack; re-entering one
	// ties the knot with an any sentinel instead of looping
	inFlight map[memoKey]bool

	// depth is the expansion budget consumed by conditional aliases, which
	// cannot be knot-tied because each expansion may take a different branch
	depth int
}

func (r *resolver) resolve(t Type, b Bindings) (Type, error) {
	key := memoKey{typeHash: t.Hash(), envHash: r.memoFingerprint(b)}
	if cached, ok := r.session.resolveMemo[key]; ok {
		return cached, nil
	}
	out, err := r.resolveUncached(t, b)
	if err != nil {
		return nil, err
	}
	// only memoize outside of in-flight expansions: a result computed under
	// an any sentinel is not the fixed point of the full type
	if len(r.inFlight) == 0 {
		r.session.resolveMemo[key] = out
	}
	return out, nil
}

func (r *resolver) memoFingerprint(b Bindings) uint64 {
	fp := r.env.aliasFp ^ b.fingerprint()
	if r.opts.PreserveFree {
		fp ^= 0x9e3779b97f4a7c15
	}
	return fp
}

func (r *resolver) resolveUncached(t Type, b Bindings) (Type, error) {
	switch t := t.(type) {
	case *extremeType, *Primitive, *Literal:
		return t, nil

	case *Param:
		if bound, ok := b[t.ID]; ok && bound != t {
			return r.resolve(bound, b.without([]*Param{t}))
		}
		if r.opts.PreserveFree {
			return t, nil
		}
		return nil, tesserr.New(tesserr.NewUnboundParam{Name: t.String()})

	case *Ref:
		return r.expandRef(t, b)

	case *Conditional:
		return r.resolveConditional(t, b)

	case *Mapped:
		return r.resolveMapped(t, b)

	case *KeyOf:
		op, err := r.resolve(t.Operand, b)
		if err != nil {
			return nil, err
		}
		return r.keysOf(op)

	case *IndexedAccess:
		obj, err := r.resolve(t.Object, b)
		if err != nil {
			return nil, err
		}
		idx, err := r.resolve(t.Index, b)
		if err != nil {
			return nil, err
		}
		return r.indexInto(obj, idx)

	case *Union:
		members, err := r.resolveAll(t.Members, b)
		if err != nil {
			return nil, err
		}
		return r.session.interner.NewUnion(members...), nil

	case *Intersection:
		members, err := r.resolveAll(t.Members, b)
		if err != nil {
			return nil, err
		}
		return r.session.interner.NewIntersection(members...), nil

	default:
		var firstErr error
		changed := false
		mapped := t.mapChildren(func(c Type) Type {
			if firstErr != nil {
				return c
			}
			res, err := r.resolve(c, b)
			if err != nil {
				firstErr = err
				return c
			}
			if res != c {
				changed = true
			}
			return res
		})
		if firstErr != nil {
			return nil, firstErr
		}
		if !changed {
			return t, nil
		}
		return r.session.interner.canonical(mapped), nil
	}
}

func (r *resolver) resolveAll(ts []Type, b Bindings) ([]Type, error) {
	out := make([]Type, len(ts))
	for i, t := range ts {
		res, err := r.resolve(t, b)
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

// expandRef inlines an alias reference. Non-conditional bodies are knot-tied:
// re-entering the same (ref, args) on the stack yields the any sentinel, so
// recursive object aliases resolve to finite graphs. Conditional bodies take
// a different branch per expansion and so burn the depth budget instead.
func (r *resolver) expandRef(t *Ref, b Bindings) (Type, error) {
	def, ok := r.env.lookup(t.Name)
	if !ok {
		return nil, tesserr.New(tesserr.NewUnknownAlias{Name: t.Name})
	}
	args, err := r.resolveAll(t.Args, b)
	if err != nil {
		return nil, err
	}
	binds, err := r.session.Instantiate(def.params, args)
	if err != nil {
		return nil, err
	}

	if _, conditionalBody := def.body.(*Conditional); !conditionalBody {
		key := memoKey{typeHash: t.Hash(), envHash: binds.fingerprint()}
		if r.inFlight[key] {
			r.session.logger.Debug("tying recursive alias", "alias", t.Name)
			return Any, nil
		}
		r.inFlight[key] = true
		defer delete(r.inFlight, key)
	} else {
		r.depth++
		if r.depth > r.session.DepthLimit {
			r.session.addWarning(tesserr.New(tesserr.NewRecursionLimit{
				Depth:     r.session.DepthLimit,
				Offending: t,
			}))
			return Never, nil
		}
	}
	return r.resolve(def.body, binds)
}

// keysOf computes `keyof op` for an already-resolved operand.
func (r *resolver) keysOf(op Type) (Type, error) {
	switch op := op.(type) {
	case *extremeType:
		if op == Any {
			return r.session.interner.NewUnion(StringPrim, NumberPrim, SymbolPrim), nil
		}
		return Never, nil

	case *Object:
		keys := make([]Type, len(op.Fields))
		for i, f := range op.Fields {
			keys[i] = r.session.interner.canonical(StringLit(f.Name))
		}
		return r.session.interner.NewUnion(keys...), nil

	case *Array, *Tuple:
		return NumberPrim, nil

	case *Branded:
		return r.keysOf(op.Base)

	case *Intersection:
		// keys of an intersection are the union of each member's keys
		keys := make([]Type, len(op.Members))
		for i, m := range op.Members {
			k, err := r.keysOf(m)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
		return r.session.interner.NewUnion(keys...), nil

	case *Union:
		// only keys every member has survive
		keys := make([]Type, len(op.Members))
		for i, m := range op.Members {
			k, err := r.keysOf(m)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
		return r.session.interner.NewIntersection(keys...), nil

	default:
		return Never, nil
	}
}

// indexInto computes `obj[idx]` for already-resolved operands.
func (r *resolver) indexInto(obj, idx Type) (Type, error) {
	if obj == Any || idx == Any {
		return Any, nil
	}
	if u, ok := idx.(*Union); ok {
		out := make([]Type, len(u.Members))
		for i, m := range u.Members {
			res, err := r.indexInto(obj, m)
			if err != nil {
				return nil, err
			}
			out[i] = res
		}
		return r.session.interner.NewUnion(out...), nil
	}
	if u, ok := obj.(*Union); ok {
		out := make([]Type, len(u.Members))
		for i, m := range u.Members {
			res, err := r.indexInto(m, idx)
			if err != nil {
				return nil, err
			}
			out[i] = res
		}
		return r.session.interner.NewUnion(out...), nil
	}

	switch obj := obj.(type) {
	case *Object:
		lit, ok := idx.(*Literal)
		if !ok || lit.Kind != LitString {
			return nil, tesserr.New(tesserr.NewBadIndex{Object: obj, Index: idx})
		}
		f, ok := obj.FieldByName(lit.Text)
		if !ok {
			return nil, tesserr.New(tesserr.NewBadIndex{Object: obj, Index: idx})
		}
		if f.Optional {
			return r.session.interner.NewUnion(f.Type, UndefinedPrim), nil
		}
		return f.Type, nil

	case *Tuple:
		if idx == NumberPrim {
			return r.session.interner.NewUnion(obj.Elems...), nil
		}
		lit, ok := idx.(*Literal)
		if !ok || lit.Kind != LitNumber {
			return nil, tesserr.New(tesserr.NewBadIndex{Object: obj, Index: idx})
		}
		i, err := strconv.Atoi(lit.Text)
		if err != nil || i < 0 || i >= len(obj.Elems) {
			return nil, tesserr.New(tesserr.NewBadIndex{Object: obj, Index: idx})
		}
		if i >= len(obj.Elems)-obj.OptionalTail {
			return r.session.interner.NewUnion(obj.Elems[i], UndefinedPrim), nil
		}
		return obj.Elems[i], nil

	case *Array:
		if idx == NumberPrim {
			return obj.Elem, nil
		}
		if lit, ok := idx.(*Literal); ok && lit.Kind == LitNumber {
			return obj.Elem, nil
		}
		return nil, tesserr.New(tesserr.NewBadIndex{Object: obj, Index: idx})

	case *Branded:
		return r.indexInto(obj.Base, idx)

	default:
		return nil, tesserr.New(tesserr.NewBadIndex{Object: obj, Index: idx})
	}
}
