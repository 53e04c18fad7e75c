package types

import (
	"fmt"

	"github.com/tessera-lang/tessera/tesserr"
)

// Instantiate binds a generic parameter list to a (possibly shorter) argument
// list. A missing argument falls back to the parameter's default, which may
// reference parameters declared earlier in the list; a missing argument with
// no default simply stays free. Arguments must satisfy the declared
// constraints, themselves instantiated with the bindings collected so far.
func (s *Session) Instantiate(params []*Param, args []Type) (Bindings, error) {
	if len(args) > len(params) {
		return nil, tesserr.New(tesserr.NewMalformedType{
			Shape:  "instantiation",
			Reason: fmt.Sprintf("%d type arguments for %d parameters", len(args), len(params)),
		})
	}
	b := make(Bindings, len(params))
	for i, p := range params {
		var bound Type
		switch {
		case i < len(args) && args[i] != nil:
			interned, err := s.Intern(args[i])
			if err != nil {
				return nil, err
			}
			bound = interned
		case p.Default != nil:
			bound = s.Substitute(p.Default, b)
		default:
			continue
		}
		if p.Constraint != nil {
			constraint := s.Substitute(p.Constraint, b)
			if !s.Assignable(bound, constraint) {
				return nil, tesserr.New(tesserr.NewConstraintViolation{
					Param:      p.String(),
					Bound:      bound,
					Constraint: constraint,
				})
			}
		}
		b[p.ID] = bound
	}
	return b, nil
}
