package types

// Substitute replaces bound parameters in t with their bindings and returns
// the canonical result. Substitution is pure: it never consults aliases and
// never reports diagnostics, so results are memoized per (type, bindings)
// for the life of the session.
//
// Scoping: a conditional's infer parameters and a mapped type's key parameter
// shadow outer bindings of the same ID inside the subterms they scope over.
func (s *Session) Substitute(t Type, b Bindings) Type {
	if len(b) == 0 {
		return t
	}
	key := memoKey{typeHash: t.Hash(), envHash: b.fingerprint()}
	if cached, ok := s.subMemo[key]; ok {
		return cached
	}
	out := s.substitute(t, b)
	s.subMemo[key] = out
	return out
}

func (s *Session) substitute(t Type, b Bindings) Type {
	switch t := t.(type) {
	case *Param:
		if bound, ok := b[t.ID]; ok {
			return bound
		}
		return t

	case *Conditional:
		// infer slots scope over Extends and the True branch; Check and
		// False see the outer bindings unshadowed. Since infer params are
		// session-fresh their IDs cannot collide with Check's params, so
		// shadowing the whole node is equivalent and keeps one binding set.
		inner := b.without(t.Infer)
		return s.interner.canonical(&Conditional{
			Check:   s.Substitute(t.Check, b),
			Extends: s.Substitute(t.Extends, inner),
			True:    s.Substitute(t.True, inner),
			False:   s.Substitute(t.False, b),
			Infer:   t.Infer,
		})

	case *Mapped:
		inner := b.without([]*Param{t.Key})
		var remap Type
		if t.Remap != nil {
			remap = s.Substitute(t.Remap, inner)
		}
		return s.interner.canonical(&Mapped{
			Key:      t.Key,
			Source:   s.Substitute(t.Source, b),
			Value:    s.Substitute(t.Value, inner),
			Remap:    remap,
			Readonly: t.Readonly,
			Optional: t.Optional,
		})

	case *Union:
		members := make([]Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = s.Substitute(m, b)
		}
		return s.interner.NewUnion(members...)

	case *Intersection:
		members := make([]Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = s.Substitute(m, b)
		}
		return s.interner.NewIntersection(members...)

	default:
		changed := false
		mapped := t.mapChildren(func(c Type) Type {
			sub := s.Substitute(c, b)
			if sub != c {
				changed = true
			}
			return sub
		})
		if !changed {
			return t
		}
		return s.interner.canonical(mapped)
	}
}
