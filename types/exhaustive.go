package types

import (
	"slices"

	"github.com/tessera-lang/tessera/tesserr"
	"github.com/tessera-lang/tessera/util"
)

// ExhaustiveResult is the outcome of a discriminant coverage check. Unhandled
// lists the variants whose discriminant value no handled case covers, in the
// union's canonical member order.
type ExhaustiveResult struct {
	Exhaustive bool
	Unhandled  []Type
}

// CheckExhaustive reports whether the handled discriminant literals cover
// every variant of the given union of tagged objects. Every member must be an
// object (possibly branded) whose discriminant field has a literal type;
// anything else cannot be discriminated and is an error.
//
// never is vacuously exhaustive. A non-union object counts as a one-variant
// union, matching how canonical single-member unions collapse.
func (s *Session) CheckExhaustive(union Type, field string, handled []*Literal) (ExhaustiveResult, error) {
	// canonical handles make coverage a plain identity-set membership test
	canonical := make([]*Literal, len(handled))
	for i, lit := range handled {
		interned, err := s.Intern(lit)
		if err != nil {
			return ExhaustiveResult{}, err
		}
		canonical[i] = interned.(*Literal)
	}
	covered := util.SetFromSeq(slices.Values(canonical), len(canonical))

	var unhandled []Type
	for _, member := range UnionMembers(union) {
		tag, err := discriminantOf(member, field)
		if err != nil {
			return ExhaustiveResult{}, err
		}
		if !covered.Contains(tag) {
			unhandled = append(unhandled, member)
		}
	}
	return ExhaustiveResult{Exhaustive: len(unhandled) == 0, Unhandled: unhandled}, nil
}

func discriminantOf(member Type, field string) (*Literal, error) {
	obj, ok := member.(*Object)
	if !ok {
		if branded, isBrand := member.(*Branded); isBrand {
			return discriminantOf(branded.Base, field)
		}
		return nil, tesserr.New(tesserr.NewNotAnObjectVariant{Member: member, Field: field})
	}
	f, ok := obj.FieldByName(field)
	if !ok || f.Optional {
		return nil, tesserr.New(tesserr.NewNotAnObjectVariant{Member: member, Field: field})
	}
	tag, ok := f.Type.(*Literal)
	if !ok {
		return nil, tesserr.New(tesserr.NewNotAnObjectVariant{Member: member, Field: field})
	}
	return tag, nil
}
