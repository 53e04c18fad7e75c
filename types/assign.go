package types

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/tessera-lang/tessera/util"
)

// Relation is the outcome of comparing two canonical types.
type Relation int

const (
	Unrelated Relation = iota
	// SourceToTarget: the first type is assignable to the second, not back.
	SourceToTarget
	// TargetToSource: the second type is assignable to the first, not back.
	TargetToSource
	Equal
)

func (r Relation) String() string {
	switch r {
	case Equal:
		return "equal"
	case SourceToTarget:
		return "source-to-target"
	case TargetToSource:
		return "target-to-source"
	default:
		return "unrelated"
	}
}

// CompareOptions tunes assignability checking.
type CompareOptions struct {
	// CheckMutability makes a readonly source field unassignable to a
	// mutable target field. Off by default: readonly is advisory unless the
	// host opts in.
	CheckMutability bool
}

// assignKey carries the environment fingerprint: nested refs resolve through
// the per-call env, so a pair's verdict is only valid under the env that
// produced it.
type assignKey struct {
	src, dst uint64
	env      uint64
	mut      bool
}

type assignCache map[assignKey]bool

// Assignable reports whether src may be used where dst is expected, under the
// default options and an empty environment.
func (s *Session) Assignable(src, dst Type) bool {
	return s.AssignableIn(s.NewEnv(), src, dst, CompareOptions{})
}

// AssignableIn is Assignable with an explicit environment (for types that
// still contain alias references) and options.
//
// Recursive types are handled coinductively: a pair already being checked
// higher up the stack is assumed assignable, which makes the overall answer
// the greatest fixed point and terminates on cyclic structures.
func (s *Session) AssignableIn(env *Env, src, dst Type, opts CompareOptions) bool {
	c := &assignChecker{
		session:  s,
		env:      env,
		envFp:    env.Fingerprint(),
		opts:     opts,
		inFlight: set.New[util.Pair[uint64, uint64]](8),
	}
	return c.check(src, dst)
}

// Compare classifies the relation between a and b by checking both directions.
func (s *Session) Compare(a, b Type) Relation {
	if a == b {
		return Equal
	}
	ab := s.Assignable(a, b)
	ba := s.Assignable(b, a)
	switch {
	case ab && ba:
		return Equal
	case ab:
		return SourceToTarget
	case ba:
		return TargetToSource
	default:
		return Unrelated
	}
}

type assignChecker struct {
	session *Session
	env     *Env
	envFp   uint64
	opts    CompareOptions

	// inFlight pairs are per checker, where env and options are fixed
	inFlight *set.Set[util.Pair[uint64, uint64]]
}

func (c *assignChecker) check(src, dst Type) bool {
	if src == dst {
		return true
	}
	src = c.shallowResolve(src)
	dst = c.shallowResolve(dst)
	if src == dst {
		return true
	}
	key := assignKey{src: src.Hash(), dst: dst.Hash(), env: c.envFp, mut: c.opts.CheckMutability}
	if cached, ok := c.session.assignCache[key]; ok {
		return cached
	}
	pair := util.NewPair(key.src, key.dst)
	if c.inFlight.Contains(pair) {
		return true
	}
	c.inFlight.Insert(pair)
	result := c.rules(src, dst)
	c.inFlight.Remove(pair)
	c.session.assignCache[key] = result
	return result
}

// shallowResolve reduces computed shapes (refs, conditionals, mapped types,
// keyof, indexed access) to structural ones so the rules below only see
// structure. Resolution failures leave the type as-is, which lands in the
// default unrelated case.
func (c *assignChecker) shallowResolve(t Type) Type {
	switch t.(type) {
	case *Ref, *Conditional, *Mapped, *KeyOf, *IndexedAccess:
		resolved, err := c.session.ResolveOpt(t, c.env, ResolveOpts{PreserveFree: true})
		if err != nil {
			return t
		}
		return resolved
	default:
		return t
	}
}

func (c *assignChecker) rules(src, dst Type) bool {
	// extremes first: any is assignable in both directions, unknown accepts
	// everything, never is assignable to everything
	if dst == Any || dst == Unknown || src == Any || src == Never {
		return true
	}
	if dst == Never || src == Unknown {
		return false
	}

	// a source union must be assignable member-wise; this must come before
	// the target-union rule so union-to-union gets forall-exists semantics
	if u, ok := src.(*Union); ok {
		for _, m := range u.Members {
			if !c.check(m, dst) {
				return false
			}
		}
		return true
	}
	if u, ok := dst.(*Union); ok {
		for _, m := range u.Members {
			if c.check(src, m) {
				return true
			}
		}
		return false
	}
	if i, ok := dst.(*Intersection); ok {
		for _, m := range i.Members {
			if !c.check(src, m) {
				return false
			}
		}
		return true
	}
	if i, ok := src.(*Intersection); ok {
		for _, m := range i.Members {
			if c.check(m, dst) {
				return true
			}
		}
		return false
	}

	switch src := src.(type) {
	case *Literal:
		// literal widening is one-way: "a" is a string, string is not "a"
		if dst, ok := dst.(*Primitive); ok {
			return src.Widened() == dst
		}
		return false

	case *Param:
		// a free param is assignable through its constraint only
		if src.Constraint != nil {
			return c.check(src.Constraint, dst)
		}
		return false

	case *Branded:
		if dst, ok := dst.(*Branded); ok {
			return src.Brand == dst.Brand && c.check(src.Base, dst.Base)
		}
		// a brand may be forgotten, never conjured
		return c.check(src.Base, dst)

	case *Object:
		dst, ok := dst.(*Object)
		if !ok {
			return false
		}
		return c.checkObject(src, dst)

	case *Array:
		dst, ok := dst.(*Array)
		if !ok {
			return false
		}
		return c.check(src.Elem, dst.Elem)

	case *Tuple:
		switch dst := dst.(type) {
		case *Array:
			for _, e := range src.Elems {
				if !c.check(e, dst.Elem) {
					return false
				}
			}
			return true
		case *Tuple:
			return c.checkTuple(src, dst)
		}
		return false

	case *Function:
		dst, ok := dst.(*Function)
		if !ok {
			return false
		}
		return c.checkFunction(src, dst)

	default:
		return false
	}
}

// checkObject applies width subtyping: src must provide every field dst
// requires, at an assignable type. Extra src fields are fine.
func (c *assignChecker) checkObject(src, dst *Object) bool {
	for _, want := range dst.Fields {
		have, ok := src.FieldByName(want.Name)
		if !ok {
			if want.Optional {
				continue
			}
			return false
		}
		if have.Optional && !want.Optional {
			return false
		}
		if c.opts.CheckMutability && have.Readonly && !want.Readonly {
			return false
		}
		if !c.check(have.Type, want.Type) {
			return false
		}
	}
	return true
}

func (c *assignChecker) checkTuple(src, dst *Tuple) bool {
	srcRequired := len(src.Elems) - src.OptionalTail
	dstRequired := len(dst.Elems) - dst.OptionalTail
	if srcRequired < dstRequired || len(src.Elems) > len(dst.Elems) {
		return false
	}
	for i, e := range src.Elems {
		if !c.check(e, dst.Elems[i]) {
			return false
		}
	}
	return true
}

// checkFunction: parameters contravariant, return covariant. A source taking
// fewer parameters is fine (it ignores the extras); a source demanding more
// than the target supplies is not, unless the target's rest covers them.
func (c *assignChecker) checkFunction(src, dst *Function) bool {
	for i, sp := range src.Params {
		var dp Type
		switch {
		case i < len(dst.Params):
			dp = dst.Params[i]
		case dst.Rest != nil:
			dp = dst.Rest
		default:
			return false
		}
		if !c.check(dp, sp) {
			return false
		}
	}
	if src.Rest != nil {
		for i := len(src.Params); i < len(dst.Params); i++ {
			if !c.check(dst.Params[i], src.Rest) {
				return false
			}
		}
		if dst.Rest != nil && !c.check(dst.Rest, src.Rest) {
			return false
		}
	}
	// a void-returning target discards whatever the source returns
	if dst.Return == VoidPrim {
		return true
	}
	return c.check(src.Return, dst.Return)
}
