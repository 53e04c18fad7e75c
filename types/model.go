package types

import (
	"fmt"
	"hash/fnv"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/tessera-lang/tessera/util"
)

// Type is the canonical representation of a type shape. After interning,
// structural equality of two types implies handle equality, so == on the
// interface is the identity check everywhere in the engine.
//
// Equality is defined through Hash rather than per-type Equals methods: each
// shape mixes its own primes so that distinct shapes land in distinct buckets.
type Type interface {
	fmt.Stringer
	Hash() uint64
	children() iter.Seq[Type]
	mapChildren(func(Type) Type) Type
}

var (
	_ Type = (*extremeType)(nil)
	_ Type = (*Primitive)(nil)
	_ Type = (*Literal)(nil)
	_ Type = (*Object)(nil)
	_ Type = (*Array)(nil)
	_ Type = (*Tuple)(nil)
	_ Type = (*Function)(nil)
	_ Type = (*Union)(nil)
	_ Type = (*Intersection)(nil)
	_ Type = (*Param)(nil)
	_ Type = (*Conditional)(nil)
	_ Type = (*Mapped)(nil)
	_ Type = (*Branded)(nil)
	_ Type = (*KeyOf)(nil)
	_ Type = (*IndexedAccess)(nil)
	_ Type = (*Ref)(nil)
)

var emptySeq iter.Seq[Type] = func(_ func(Type) bool) {}

// extremeType covers never, unknown and any. never is the empty type (bottom),
// unknown the top type, and any the unsound escape hatch that short-circuits
// checking in both directions.
type extremeType struct {
	name string
}

var (
	Never   Type = &extremeType{name: "never"}
	Unknown Type = &extremeType{name: "unknown"}
	Any     Type = &extremeType{name: "any"}
)

func (t *extremeType) String() string { return t.name }
func (t *extremeType) Hash() uint64 {
	switch t.name {
	case "never":
		return 16777619
	case "unknown":
		return 1099511628211
	default:
		return 14695981039346656037
	}
}
func (t *extremeType) children() iter.Seq[Type]         { return emptySeq }
func (t *extremeType) mapChildren(func(Type) Type) Type { return t }

// Primitive is a built-in non-composite type.
type Primitive struct {
	Name string
}

var (
	StringPrim    = &Primitive{Name: "string"}
	NumberPrim    = &Primitive{Name: "number"}
	BooleanPrim   = &Primitive{Name: "boolean"}
	SymbolPrim    = &Primitive{Name: "symbol"}
	BigIntPrim    = &Primitive{Name: "bigint"}
	NullPrim      = &Primitive{Name: "null"}
	UndefinedPrim = &Primitive{Name: "undefined"}
	VoidPrim      = &Primitive{Name: "void"}
)

var primitives = []*Primitive{
	StringPrim, NumberPrim, BooleanPrim, SymbolPrim,
	BigIntPrim, NullPrim, UndefinedPrim, VoidPrim,
}

func (t *Primitive) String() string { return t.Name }
func (t *Primitive) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("prim:" + t.Name))
	return h.Sum64()
}
func (t *Primitive) children() iter.Seq[Type]         { return emptySeq }
func (t *Primitive) mapChildren(func(Type) Type) Type { return t }

type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
)

// Literal is a string/number/boolean literal type. Text holds the canonical
// spelling of the value, so hashing and display need no reparsing.
type Literal struct {
	Kind LiteralKind
	Text string
}

func StringLit(s string) *Literal { return &Literal{Kind: LitString, Text: s} }
func NumberLit(f float64) *Literal {
	return &Literal{Kind: LitNumber, Text: strconv.FormatFloat(f, 'g', -1, 64)}
}
func BoolLit(b bool) *Literal {
	return &Literal{Kind: LitBool, Text: strconv.FormatBool(b)}
}

// Widened returns the primitive this literal widens to.
func (t *Literal) Widened() *Primitive {
	switch t.Kind {
	case LitString:
		return StringPrim
	case LitNumber:
		return NumberPrim
	default:
		return BooleanPrim
	}
}

func (t *Literal) String() string {
	if t.Kind == LitString {
		return strconv.Quote(t.Text)
	}
	return t.Text
}
func (t *Literal) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("lit:" + strconv.Itoa(int(t.Kind)) + ":" + t.Text))
	return h.Sum64()
}
func (t *Literal) children() iter.Seq[Type]         { return emptySeq }
func (t *Literal) mapChildren(func(Type) Type) Type { return t }

// Field is a single member of an Object. Order of fields is kept for display
// and mapped-type key enumeration, but does not affect equality.
type Field struct {
	Name     string
	Type     Type
	Optional bool
	Readonly bool
}

type Object struct {
	Fields []Field
}

func (t *Object) FieldByName(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *Object) String() string {
	var fieldStrs = make([]string, 0, len(t.Fields))
	for i, field := range t.Fields {
		if i > 3 {
			fieldStrs = append(fieldStrs, "...")
			break
		}
		s := field.Name
		if field.Readonly {
			s = "readonly " + s
		}
		if field.Optional {
			s += "?"
		}
		fieldStrs = append(fieldStrs, s+": "+field.Type.String())
	}
	return "{" + strings.Join(fieldStrs, ", ") + "}"
}

// Hash is commutative over fields so that field order does not affect
// equality.
func (t *Object) Hash() uint64 {
	const prime uint64 = 15487469
	var hash uint64 = 32452843
	for _, field := range t.Fields {
		h := fnv.New64a()
		_, _ = h.Write([]byte(field.Name))
		fieldHash := h.Sum64() ^ prime*field.Type.Hash()
		if field.Optional {
			fieldHash = fieldHash*31 + 1
		}
		if field.Readonly {
			fieldHash = fieldHash*37 + 1
		}
		hash += fieldHash // commutative
	}
	return hash * prime
}

func (t *Object) children() iter.Seq[Type] {
	return util.MapIter(slices.Values(t.Fields), func(f Field) Type { return f.Type })
}

func (t *Object) mapChildren(f func(Type) Type) Type {
	mapped := make([]Field, len(t.Fields))
	for i, field := range t.Fields {
		mapped[i] = Field{
			Name:     field.Name,
			Type:     f(field.Type),
			Optional: field.Optional,
			Readonly: field.Readonly,
		}
	}
	return &Object{Fields: mapped}
}

// Array is a homogeneous unknown-length sequence.
type Array struct {
	Elem Type
}

func (t *Array) String() string { return t.Elem.String() + "[]" }
func (t *Array) Hash() uint64   { return 2166136261*16777619 ^ t.Elem.Hash() }
func (t *Array) children() iter.Seq[Type] {
	return util.SingleIter(t.Elem)
}
func (t *Array) mapChildren(f func(Type) Type) Type {
	return &Array{Elem: f(t.Elem)}
}

// Tuple is a known-width sequence. The last OptionalTail elements may be
// absent.
type Tuple struct {
	Elems        []Type
	OptionalTail int
}

func (t *Tuple) String() string {
	strs := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		strs[i] = e.String()
		if i >= len(t.Elems)-t.OptionalTail {
			strs[i] += "?"
		}
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
func (t *Tuple) Hash() uint64 {
	const prime uint64 = 433
	var hash uint64 = 9973
	for _, elem := range t.Elems {
		hash = hash*prime ^ elem.Hash()
	}
	return hash*prime + uint64(t.OptionalTail)
}
func (t *Tuple) children() iter.Seq[Type] { return slices.Values(t.Elems) }
func (t *Tuple) mapChildren(f func(Type) Type) Type {
	mapped := make([]Type, len(t.Elems))
	for i, elem := range t.Elems {
		mapped[i] = f(elem)
	}
	return &Tuple{Elems: mapped, OptionalTail: t.OptionalTail}
}

// Function is a call signature. Rest may be nil; when present it is the
// element type of the variadic tail.
type Function struct {
	Params []Type
	Rest   Type
	Return Type
}

func (t *Function) String() string {
	strs := make([]string, 0, len(t.Params)+1)
	for _, p := range t.Params {
		strs = append(strs, p.String())
	}
	if t.Rest != nil {
		strs = append(strs, "..."+t.Rest.String()+"[]")
	}
	return "(" + strings.Join(strs, ", ") + ") => " + t.Return.String()
}
func (t *Function) Hash() uint64 {
	var hash uint64 = 2166136261
	for _, arg := range t.Params {
		hash = hash*16777619 ^ arg.Hash()
	}
	if t.Rest != nil {
		hash = hash*53 ^ t.Rest.Hash()
	}
	return hash*16777619 ^ t.Return.Hash()
}
func (t *Function) children() iter.Seq[Type] {
	return func(yield func(Type) bool) {
		for _, p := range t.Params {
			if !yield(p) {
				return
			}
		}
		if t.Rest != nil && !yield(t.Rest) {
			return
		}
		yield(t.Return)
	}
}
func (t *Function) mapChildren(f func(Type) Type) Type {
	mapped := make([]Type, len(t.Params))
	for i, p := range t.Params {
		mapped[i] = f(p)
	}
	var rest Type
	if t.Rest != nil {
		rest = f(t.Rest)
	}
	return &Function{Params: mapped, Rest: rest, Return: f(t.Return)}
}

// Union members are flattened, deduplicated and hash-sorted by the interner;
// a canonical union always has at least two members.
type Union struct {
	Members []Type
}

func (t *Union) String() string {
	strs := make([]string, len(t.Members))
	for i, m := range t.Members {
		strs[i] = m.String()
	}
	return "(" + strings.Join(strs, " | ") + ")"
}
func (t *Union) Hash() uint64 {
	var hash uint64 = 104717
	for _, m := range t.Members {
		hash += m.Hash() * 31 // commutative
	}
	return hash * 37
}
func (t *Union) children() iter.Seq[Type] { return slices.Values(t.Members) }
func (t *Union) mapChildren(f func(Type) Type) Type {
	mapped := make([]Type, len(t.Members))
	for i, m := range t.Members {
		mapped[i] = f(m)
	}
	return &Union{Members: mapped}
}

// Intersection members follow the same canonical form as Union.
type Intersection struct {
	Members []Type
}

func (t *Intersection) String() string {
	strs := make([]string, len(t.Members))
	for i, m := range t.Members {
		strs[i] = m.String()
	}
	return "(" + strings.Join(strs, " & ") + ")"
}
func (t *Intersection) Hash() uint64 {
	var hash uint64 = 104729
	for _, m := range t.Members {
		hash += m.Hash() * 41 // commutative
	}
	return hash * 43
}
func (t *Intersection) children() iter.Seq[Type] { return slices.Values(t.Members) }
func (t *Intersection) mapChildren(f func(Type) Type) Type {
	mapped := make([]Type, len(t.Members))
	for i, m := range t.Members {
		mapped[i] = f(m)
	}
	return &Intersection{Members: mapped}
}

type ParamID = uint64

// Param is a generic type parameter. Identity is by ID, never by structure:
// two params with the same declared name in different scopes are different
// types. Construct through Session.NewParam so IDs stay unique.
type Param struct {
	ID         ParamID
	Name       string
	Constraint Type // may be nil
	Default    Type // may be nil
}

func (t *Param) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "T" + strconv.FormatUint(t.ID, 10)
}

func (t *Param) Hash() uint64 {
	const prime1 uint64 = 31
	const prime2 uint64 = 7919
	return prime1 * prime2 * (t.ID + 1)
}

// children deliberately excludes Constraint and Default: they are part of the
// declaration, not of the type's structure, and substituting inside them
// would capture outer bindings.
func (t *Param) children() iter.Seq[Type]         { return emptySeq }
func (t *Param) mapChildren(func(Type) Type) Type { return t }

// Conditional is `Check extends Extends ? True : False`. Infer lists the
// params declared by `infer` inside Extends; they scope over Extends and the
// True branch only.
type Conditional struct {
	Check   Type
	Extends Type
	True    Type
	False   Type
	Infer   []*Param
}

func (t *Conditional) String() string {
	return fmt.Sprintf("%s extends %s ? %s : %s", t.Check, t.Extends, t.True, t.False)
}
func (t *Conditional) Hash() uint64 {
	var hash uint64 = 1299709
	hash = hash*31 ^ t.Check.Hash()
	hash = hash*31 ^ t.Extends.Hash()
	hash = hash*31 ^ t.True.Hash()
	hash = hash*31 ^ t.False.Hash()
	for _, p := range t.Infer {
		hash = hash*37 ^ p.Hash()
	}
	return hash
}
func (t *Conditional) children() iter.Seq[Type] {
	return func(yield func(Type) bool) {
		if !yield(t.Check) {
			return
		}
		if !yield(t.Extends) {
			return
		}
		if !yield(t.True) {
			return
		}
		yield(t.False)
	}
}
func (t *Conditional) mapChildren(f func(Type) Type) Type {
	return &Conditional{
		Check:   f(t.Check),
		Extends: f(t.Extends),
		True:    f(t.True),
		False:   f(t.False),
		Infer:   t.Infer,
	}
}

type Modifier int

const (
	ModNone Modifier = iota
	ModAdd
	ModRemove
)

func (m Modifier) String() string {
	switch m {
	case ModAdd:
		return "+"
	case ModRemove:
		return "-"
	default:
		return ""
	}
}

// Mapped is `{ [Key in Source as Remap]: Value }` with readonly/optional
// modifiers. Value and Remap are templates over Key; the transformer
// substitutes each enumerated key literal for Key.
type Mapped struct {
	Key      *Param
	Source   Type
	Value    Type
	Remap    Type // may be nil
	Readonly Modifier
	Optional Modifier
}

func (t *Mapped) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	if t.Readonly != ModNone {
		sb.WriteString(t.Readonly.String() + "readonly ")
	}
	sb.WriteString("[" + t.Key.String() + " in " + t.Source.String())
	if t.Remap != nil {
		sb.WriteString(" as " + t.Remap.String())
	}
	sb.WriteString("]")
	if t.Optional != ModNone {
		sb.WriteString(t.Optional.String() + "?")
	}
	sb.WriteString(": " + t.Value.String() + " }")
	return sb.String()
}
func (t *Mapped) Hash() uint64 {
	var hash uint64 = 10007
	hash = hash*31 ^ t.Key.Hash()
	hash = hash*31 ^ t.Source.Hash()
	hash = hash*31 ^ t.Value.Hash()
	if t.Remap != nil {
		hash = hash*37 ^ t.Remap.Hash()
	}
	return hash*41 + uint64(t.Readonly)*3 + uint64(t.Optional)
}
func (t *Mapped) children() iter.Seq[Type] {
	return func(yield func(Type) bool) {
		if !yield(t.Source) {
			return
		}
		if !yield(t.Value) {
			return
		}
		if t.Remap != nil {
			yield(t.Remap)
		}
	}
}
func (t *Mapped) mapChildren(f func(Type) Type) Type {
	var remap Type
	if t.Remap != nil {
		remap = f(t.Remap)
	}
	return &Mapped{
		Key:      t.Key,
		Source:   f(t.Source),
		Value:    f(t.Value),
		Remap:    remap,
		Readonly: t.Readonly,
		Optional: t.Optional,
	}
}

// Branded attaches a nominal tag to a structural base. Brands only unify with
// the identical brand string; the base stays visible for field access.
type Branded struct {
	Base  Type
	Brand string
}

func (t *Branded) String() string {
	return fmt.Sprintf("Brand<%s, %q>", t.Base, t.Brand)
}
func (t *Branded) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("brand:" + t.Brand))
	return h.Sum64() ^ 53*t.Base.Hash()
}
func (t *Branded) children() iter.Seq[Type] {
	return util.SingleIter(t.Base)
}
func (t *Branded) mapChildren(f func(Type) Type) Type {
	return &Branded{Base: f(t.Base), Brand: t.Brand}
}

// KeyOf resolves to the union of the operand object's key literals.
type KeyOf struct {
	Operand Type
}

func (t *KeyOf) String() string { return "keyof " + t.Operand.String() }
func (t *KeyOf) Hash() uint64   { return 15485863 ^ 59*t.Operand.Hash() }
func (t *KeyOf) children() iter.Seq[Type] {
	return util.SingleIter(t.Operand)
}
func (t *KeyOf) mapChildren(f func(Type) Type) Type {
	return &KeyOf{Operand: f(t.Operand)}
}

// IndexedAccess is `Object[Index]`.
type IndexedAccess struct {
	Object Type
	Index  Type
}

func (t *IndexedAccess) String() string {
	return t.Object.String() + "[" + t.Index.String() + "]"
}
func (t *IndexedAccess) Hash() uint64 {
	return 23*t.Object.Hash() ^ 61*t.Index.Hash() ^ 27644437
}
func (t *IndexedAccess) children() iter.Seq[Type] {
	return util.ConcatIter(util.SingleIter(t.Object), util.SingleIter(t.Index))
}
func (t *IndexedAccess) mapChildren(f func(Type) Type) Type {
	return &IndexedAccess{Object: f(t.Object), Index: f(t.Index)}
}

// Ref is a reference to an alias defined in the environment, possibly with
// type arguments. Refs are what make recursive aliases representable as
// finite graphs; the resolver expands them with a depth budget.
type Ref struct {
	Name string
	Args []Type
}

func (t *Ref) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	strs := make([]string, len(t.Args))
	for i, a := range t.Args {
		strs[i] = a.String()
	}
	return t.Name + "<" + strings.Join(strs, ", ") + ">"
}
func (t *Ref) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ref:" + t.Name))
	hash := h.Sum64()
	for _, a := range t.Args {
		hash = hash*31 ^ a.Hash()
	}
	return hash
}
func (t *Ref) children() iter.Seq[Type] { return slices.Values(t.Args) }
func (t *Ref) mapChildren(f func(Type) Type) Type {
	mapped := make([]Type, len(t.Args))
	for i, a := range t.Args {
		mapped[i] = f(a)
	}
	return &Ref{Name: t.Name, Args: mapped}
}
