package types

// unifier matches a check type against an extends-pattern containing infer
// slots, collecting a binding per slot. Matching is one level of structural
// decomposition plus assignability at the leaves, which mirrors how
// conditional-type inference behaves in practice: positions, not proofs.
type unifier struct {
	session *Session
	env     *Env
	slots   map[ParamID]*Param
	found   Bindings
}

func newUnifier(s *Session, env *Env, slots []*Param) *unifier {
	byID := make(map[ParamID]*Param, len(slots))
	for _, p := range slots {
		byID[p.ID] = p
	}
	return &unifier{session: s, env: env, slots: byID, found: make(Bindings, len(slots))}
}

// bindings returns the collected slot bindings, filling unbound slots with
// unknown so the true branch never sees a dangling parameter.
func (u *unifier) bindings() Bindings {
	for id := range u.slots {
		if _, ok := u.found[id]; !ok {
			u.found[id] = Unknown
		}
	}
	return u.found
}

func (u *unifier) unify(check, pattern Type) bool {
	if p, ok := pattern.(*Param); ok {
		if slot, isSlot := u.slots[p.ID]; isSlot {
			return u.bind(slot, check)
		}
	}
	if check == pattern {
		return true
	}

	switch pattern := pattern.(type) {
	case *Union:
		// the check must match some alternative
		for _, m := range pattern.Members {
			if u.unify(check, m) {
				return true
			}
		}
		return false

	case *Array:
		switch check := check.(type) {
		case *Array:
			return u.unify(check.Elem, pattern.Elem)
		case *Tuple:
			for _, e := range check.Elems {
				if !u.unify(e, pattern.Elem) {
					return false
				}
			}
			return true
		}
		return false

	case *Tuple:
		check, ok := check.(*Tuple)
		if !ok || len(check.Elems) != len(pattern.Elems) {
			return false
		}
		for i := range check.Elems {
			if !u.unify(check.Elems[i], pattern.Elems[i]) {
				return false
			}
		}
		return true

	case *Function:
		check, ok := check.(*Function)
		if !ok || len(check.Params) > len(pattern.Params) && pattern.Rest == nil {
			return false
		}
		for i, cp := range check.Params {
			pp := pattern.Rest
			if i < len(pattern.Params) {
				pp = pattern.Params[i]
			}
			if !u.unify(cp, pp) {
				return false
			}
		}
		return u.unify(check.Return, pattern.Return)

	case *Object:
		check, ok := check.(*Object)
		if !ok {
			return false
		}
		for _, want := range pattern.Fields {
			have, ok := check.FieldByName(want.Name)
			if !ok {
				if want.Optional {
					continue
				}
				return false
			}
			if !u.unify(have.Type, want.Type) {
				return false
			}
		}
		return true

	case *Branded:
		check, ok := check.(*Branded)
		return ok && check.Brand == pattern.Brand && u.unify(check.Base, pattern.Base)

	default:
		// no slots below this point: plain assignability decides
		return u.session.AssignableIn(u.env, check, pattern, CompareOptions{})
	}
}

// bind records a slot match. A slot matched in several positions accumulates
// a union of the matched types.
func (u *unifier) bind(slot *Param, t Type) bool {
	if slot.Constraint != nil && !u.session.AssignableIn(u.env, t, slot.Constraint, CompareOptions{}) {
		return false
	}
	if prev, ok := u.found[slot.ID]; ok {
		u.found[slot.ID] = u.session.interner.NewUnion(prev, t)
		return true
	}
	u.found[slot.ID] = t
	return true
}
