package types

import (
	"sort"

	xset "github.com/xtgo/set"
)

// byHash orders canonical handles by hash. Within one interner, hash equality
// is handle equality, so sorting by hash gives a stable canonical member
// order and lets xtgo/set deduplicate adjacent equal members.
type byHash []Type

func (s byHash) Len() int           { return len(s) }
func (s byHash) Less(i, j int) bool { return s[i].Hash() < s[j].Hash() }
func (s byHash) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// NewUnion builds the canonical union of already-interned members: nested
// unions are flattened, never is absorbed, any collapses the whole union,
// unknown subsumes everything but any, duplicates are removed and a
// single survivor collapses to itself.
func (in *Interner) NewUnion(members ...Type) Type {
	flat := make([]Type, 0, len(members))
	sawUnknown := false
	for _, m := range flattenMembers[*Union](members) {
		switch {
		case m == Any:
			return Any
		case m == Never:
			// absorbed
		case m == Unknown:
			sawUnknown = true
		default:
			flat = append(flat, m)
		}
	}
	if sawUnknown {
		return Unknown
	}
	if len(flat) == 0 {
		return Never
	}
	sort.Sort(byHash(flat))
	flat = flat[:xset.Uniq(byHash(flat))]
	if len(flat) == 1 {
		return flat[0]
	}
	return in.canonical(&Union{Members: flat})
}

// NewIntersection is the dual of NewUnion: never absorbs the whole
// intersection, unknown is the identity, any collapses (any & T is any).
func (in *Interner) NewIntersection(members ...Type) Type {
	flat := make([]Type, 0, len(members))
	for _, m := range flattenMembers[*Intersection](members) {
		switch {
		case m == Never:
			return Never
		case m == Any:
			return Any
		case m == Unknown:
			// identity
		default:
			flat = append(flat, m)
		}
	}
	if len(flat) == 0 {
		return Unknown
	}
	sort.Sort(byHash(flat))
	flat = flat[:xset.Uniq(byHash(flat))]
	if len(flat) == 1 {
		return flat[0]
	}
	return in.canonical(&Intersection{Members: flat})
}

type composite interface {
	Type
	memberTypes() []Type
}

func (t *Union) memberTypes() []Type        { return t.Members }
func (t *Intersection) memberTypes() []Type { return t.Members }

// flattenMembers inlines nested composites of kind C one level deep;
// canonical members are already flat, so one level is enough.
func flattenMembers[C composite](members []Type) []Type {
	flat := make([]Type, 0, len(members))
	for _, m := range members {
		if same, ok := m.(C); ok {
			flat = append(flat, same.memberTypes()...)
			continue
		}
		flat = append(flat, m)
	}
	return flat
}

// UnionMembers views t as a union member list: a canonical union yields its
// members, anything else yields itself. never yields nothing.
func UnionMembers(t Type) []Type {
	switch t := t.(type) {
	case *Union:
		return t.Members
	case *extremeType:
		if t == Never {
			return nil
		}
	}
	return []Type{t}
}
