package types

import (
	"github.com/tessera-lang/tessera/tesserr"
)

// resolveConditional evaluates `Check extends Extends ? True : False`.
//
// Distribution happens only when the check is a naked type parameter bound to
// a union: the conditional then runs once per member and the results are
// unioned. A wrapped check ([T] extends ... spellings at the surface level
// arrive here as non-Param check types) evaluates once against the whole
// union. never distributes over zero members, so a distributive conditional
// over never is never without either branch running.
func (r *resolver) resolveConditional(c *Conditional, b Bindings) (Type, error) {
	r.depth++
	if r.depth > r.session.DepthLimit {
		r.session.addWarning(tesserr.New(tesserr.NewRecursionLimit{
			Depth:     r.session.DepthLimit,
			Offending: c,
		}))
		return Never, nil
	}

	if p, naked := c.Check.(*Param); naked {
		bound, ok := b[p.ID]
		if ok {
			resolved, err := r.resolve(bound, b.without([]*Param{p}))
			if err != nil {
				return nil, err
			}
			if u, isUnion := resolved.(*Union); isUnion {
				return r.distribute(c, p, u, b)
			}
			if resolved == Never {
				return Never, nil
			}
		}
	}
	return r.evaluateConditional(c, b)
}

func (r *resolver) distribute(c *Conditional, p *Param, u *Union, b Bindings) (Type, error) {
	results := make([]Type, len(u.Members))
	for i, m := range u.Members {
		res, err := r.evaluateConditional(c, b.with(p.ID, m))
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return r.session.interner.NewUnion(results...), nil
}

// evaluateConditional runs the conditional once for the check type currently
// visible through b.
func (r *resolver) evaluateConditional(c *Conditional, b Bindings) (Type, error) {
	check, err := r.resolveFree(c.Check, b)
	if err != nil {
		return nil, err
	}

	inner := b.without(c.Infer)

	// inside a generic body the check may still mention free parameters; the
	// branch cannot be decided until they are bound, so defer
	if r.opts.PreserveFree && hasFreeParam(check, inner) {
		return r.session.interner.canonical(&Conditional{
			Check:   check,
			Extends: r.session.Substitute(c.Extends, inner),
			True:    r.session.Substitute(c.True, inner),
			False:   r.session.Substitute(c.False, inner),
			Infer:   c.Infer,
		}), nil
	}

	// any is related to everything and to nothing: take both branches
	if check == Any {
		trueBranch, err := r.resolve(c.True, withUnknownSlots(inner, c.Infer))
		if err != nil {
			return nil, err
		}
		falseBranch, err := r.resolve(c.False, inner)
		if err != nil {
			return nil, err
		}
		return r.session.interner.NewUnion(trueBranch, falseBranch), nil
	}

	pattern := r.session.Substitute(c.Extends, inner)
	u := newUnifier(r.session, r.env, c.Infer)
	if u.unify(check, pattern) {
		return r.resolve(c.True, inner.merge(u.bindings()))
	}
	return r.resolve(c.False, inner)
}

// resolveFree resolves in preserve-free mode regardless of the outer mode:
// the check side of a conditional inside a generic body legitimately contains
// free parameters.
func (r *resolver) resolveFree(t Type, b Bindings) (Type, error) {
	if r.opts.PreserveFree {
		return r.resolve(t, b)
	}
	saved := r.opts
	r.opts.PreserveFree = true
	out, err := r.resolve(t, b)
	r.opts = saved
	return out, err
}

func hasFreeParam(t Type, b Bindings) bool {
	if p, ok := t.(*Param); ok {
		_, bound := b[p.ID]
		return !bound
	}
	for c := range t.children() {
		if hasFreeParam(c, b) {
			return true
		}
	}
	return false
}

func withUnknownSlots(b Bindings, slots []*Param) Bindings {
	if len(slots) == 0 {
		return b
	}
	out := b.merge(nil)
	for _, p := range slots {
		out[p.ID] = Unknown
	}
	return out
}
