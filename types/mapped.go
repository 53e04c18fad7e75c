package types

import (
	"github.com/tessera-lang/tessera/tesserr"
)

// resolveMapped transforms `{ [K in Source as Remap] modifiers: Value }` into
// a plain object.
//
// Keys come from the resolved source, in declaration order when the source is
// `keyof` of an object (the homomorphic case, which also carries the source
// field's optional/readonly flags through). A remap producing never drops the
// key; two source keys landing on the same output key is an error, not a
// silent overwrite.
func (r *resolver) resolveMapped(m *Mapped, b Bindings) (Type, error) {
	outer := b.without([]*Param{m.Key})

	var homomorphic *Object
	var keys []*Literal

	if ko, ok := m.Source.(*KeyOf); ok {
		op, err := r.resolve(ko.Operand, outer)
		if err != nil {
			return nil, err
		}
		if obj, isObj := op.(*Object); isObj {
			homomorphic = obj
			keys = make([]*Literal, len(obj.Fields))
			for i, f := range obj.Fields {
				keys[i] = r.session.interner.canonical(StringLit(f.Name)).(*Literal)
			}
		}
	}
	if keys == nil && homomorphic == nil {
		source, err := r.resolve(m.Source, outer)
		if err != nil {
			return nil, err
		}
		keys, err = keyLiterals(source)
		if err != nil {
			return nil, err
		}
	}

	fields := make([]Field, 0, len(keys))
	firstFrom := make(map[string]string, len(keys))
	for _, key := range keys {
		kb := outer.with(m.Key.ID, Type(key))

		name := key.Text
		if m.Remap != nil {
			remapped, err := r.resolve(m.Remap, kb)
			if err != nil {
				return nil, err
			}
			if remapped == Never {
				continue
			}
			lit, ok := remapped.(*Literal)
			if !ok || lit.Kind != LitString {
				return nil, tesserr.New(tesserr.NewMalformedType{
					Shape:  "mapped",
					Reason: "key remapping must produce a string literal or never, got " + remapped.String(),
				})
			}
			name = lit.Text
		}
		if from, dup := firstFrom[name]; dup {
			return nil, tesserr.New(tesserr.NewDuplicateKey{
				Key:        name,
				FirstFrom:  from,
				SecondFrom: key.Text,
			})
		}
		firstFrom[name] = key.Text

		value, err := r.resolve(m.Value, kb)
		if err != nil {
			return nil, err
		}

		var optional, readonly bool
		if homomorphic != nil {
			if f, ok := homomorphic.FieldByName(key.Text); ok {
				optional, readonly = f.Optional, f.Readonly
			}
		}
		switch m.Optional {
		case ModAdd:
			optional = true
		case ModRemove:
			optional = false
		}
		switch m.Readonly {
		case ModAdd:
			readonly = true
		case ModRemove:
			readonly = false
		}

		fields = append(fields, Field{Name: name, Type: value, Optional: optional, Readonly: readonly})
	}

	return r.session.interner.internObject(&Object{Fields: fields})
}

// keyLiterals views a resolved source type as an enumerable key set.
func keyLiterals(source Type) ([]*Literal, error) {
	switch source := source.(type) {
	case *extremeType:
		if source == Never {
			return nil, nil
		}
	case *Literal:
		if source.Kind == LitString {
			return []*Literal{source}, nil
		}
	case *Union:
		keys := make([]*Literal, 0, len(source.Members))
		for _, m := range source.Members {
			lit, ok := m.(*Literal)
			if !ok || lit.Kind != LitString {
				return nil, tesserr.New(tesserr.NewMalformedType{
					Shape:  "mapped",
					Reason: "mapped source must enumerate string literal keys, got " + m.String(),
				})
			}
			keys = append(keys, lit)
		}
		return keys, nil
	}
	return nil, tesserr.New(tesserr.NewMalformedType{
		Shape:  "mapped",
		Reason: "cannot enumerate keys of " + source.String(),
	})
}
