// Package graph loads declarative type-graph documents: a YAML description
// of aliases and queries that the CLI feeds into a checking session.
package graph

import (
	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of a type graph.
type Document struct {
	Aliases    []AliasDecl      `yaml:"aliases"`
	Resolve    []ResolveDecl    `yaml:"resolve"`
	Checks     []CheckDecl      `yaml:"checks"`
	Exhaustive []ExhaustiveDecl `yaml:"exhaustive"`
}

// AliasDecl declares `type Name<Params> = Type`.
type AliasDecl struct {
	Name   string      `yaml:"name"`
	Params []ParamDecl `yaml:"params"`
	Type   *TypeExpr   `yaml:"type"`
}

type ParamDecl struct {
	Name       string    `yaml:"name"`
	Constraint *TypeExpr `yaml:"constraint"`
	Default    *TypeExpr `yaml:"default"`
}

// ResolveDecl names a type expression to resolve and print.
type ResolveDecl struct {
	Name string    `yaml:"name"`
	Type *TypeExpr `yaml:"type"`
}

// CheckDecl asks whether Source is assignable to Target.
type CheckDecl struct {
	Source          *TypeExpr `yaml:"source"`
	Target          *TypeExpr `yaml:"target"`
	CheckMutability bool      `yaml:"checkMutability"`
}

// ExhaustiveDecl asks whether the handled discriminant values cover the union.
type ExhaustiveDecl struct {
	Union   *TypeExpr `yaml:"union"`
	Field   string    `yaml:"field"`
	Handled []string  `yaml:"handled"`
}

// TypeExpr is one node of a type expression tree. Kind selects which of the
// remaining fields are meaningful.
type TypeExpr struct {
	// any | unknown | never | primitive | literal | param | object | array |
	// tuple | function | union | intersection | conditional | mapped |
	// branded | keyof | index | ref
	Kind string `yaml:"kind"`

	// primitive, param and ref name
	Name string `yaml:"name"`

	// literal payload; kept as a raw node so strings, numbers and booleans
	// stay distinguishable
	Literal *yaml.Node `yaml:"literal"`

	Fields []FieldExpr `yaml:"fields"`

	Elem *TypeExpr `yaml:"elem"`

	Elems        []*TypeExpr `yaml:"elems"`
	OptionalTail int         `yaml:"optionalTail"`

	Params []*TypeExpr `yaml:"params"`
	Rest   *TypeExpr   `yaml:"rest"`
	Return *TypeExpr   `yaml:"return"`

	Members []*TypeExpr `yaml:"members"`

	Check   *TypeExpr   `yaml:"check"`
	Extends *TypeExpr   `yaml:"extends"`
	True    *TypeExpr   `yaml:"true"`
	False   *TypeExpr   `yaml:"false"`
	Infer   []ParamDecl `yaml:"infer"`

	Key      string    `yaml:"key"`
	Source   *TypeExpr `yaml:"source"`
	Value    *TypeExpr `yaml:"value"`
	Remap    *TypeExpr `yaml:"remap"`
	Readonly string    `yaml:"readonly"` // "+" | "-" | ""
	Optional string    `yaml:"optional"` // "+" | "-" | ""

	Base  *TypeExpr `yaml:"base"`
	Brand string    `yaml:"brand"`

	Operand *TypeExpr `yaml:"operand"`

	Object *TypeExpr `yaml:"object"`
	Index  *TypeExpr `yaml:"index"`

	Args []*TypeExpr `yaml:"args"`
}

type FieldExpr struct {
	Name     string    `yaml:"name"`
	Type     *TypeExpr `yaml:"type"`
	Optional bool      `yaml:"optional"`
	Readonly bool      `yaml:"readonly"`
}
