package graph

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tessera-lang/tessera/types"
)

// Graph is a loaded document: an environment holding the declared aliases
// plus the built queries, ready for the session to run.
type Graph struct {
	Session *types.Session
	Env     *types.Env

	Resolve    []NamedType
	Checks     []Check
	Exhaustive []ExhaustiveQuery
}

type NamedType struct {
	Name string
	Type types.Type
}

type Check struct {
	Source types.Type
	Target types.Type
	Opts   types.CompareOptions
}

type ExhaustiveQuery struct {
	Union   types.Type
	Field   string
	Handled []*types.Literal
}

// Load parses a YAML type-graph document and builds it in the given session.
func Load(r io.Reader, session *types.Session) (*Graph, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding type graph")
	}
	return build(&doc, session)
}

func build(doc *Document, session *types.Session) (*Graph, error) {
	b := &builder{session: session}
	env := session.NewEnv()

	for _, decl := range doc.Aliases {
		params, scope, err := b.buildParams(decl.Params)
		if err != nil {
			return nil, errors.Wrapf(err, "alias %q", decl.Name)
		}
		b.pushScope(scope)
		body, err := b.buildType(decl.Type)
		b.popScope()
		if err != nil {
			return nil, errors.Wrapf(err, "alias %q", decl.Name)
		}
		env, err = env.DefineAlias(decl.Name, params, body)
		if err != nil {
			return nil, errors.Wrapf(err, "alias %q", decl.Name)
		}
	}

	g := &Graph{Session: session, Env: env}

	for _, decl := range doc.Resolve {
		t, err := b.buildType(decl.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %q", decl.Name)
		}
		interned, err := session.Intern(t)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %q", decl.Name)
		}
		g.Resolve = append(g.Resolve, NamedType{Name: decl.Name, Type: interned})
	}

	for i, decl := range doc.Checks {
		src, err := b.buildInterned(decl.Source)
		if err != nil {
			return nil, errors.Wrapf(err, "check #%d source", i)
		}
		dst, err := b.buildInterned(decl.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "check #%d target", i)
		}
		g.Checks = append(g.Checks, Check{
			Source: src,
			Target: dst,
			Opts:   types.CompareOptions{CheckMutability: decl.CheckMutability},
		})
	}

	for i, decl := range doc.Exhaustive {
		union, err := b.buildInterned(decl.Union)
		if err != nil {
			return nil, errors.Wrapf(err, "exhaustive #%d", i)
		}
		handled := make([]*types.Literal, len(decl.Handled))
		for j, tag := range decl.Handled {
			handled[j] = types.StringLit(tag)
		}
		g.Exhaustive = append(g.Exhaustive, ExhaustiveQuery{
			Union:   union,
			Field:   decl.Field,
			Handled: handled,
		})
	}

	return g, nil
}

type builder struct {
	session *types.Session
	scopes  []map[string]*types.Param
}

func (b *builder) pushScope(scope map[string]*types.Param) {
	b.scopes = append(b.scopes, scope)
}

func (b *builder) popScope() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *builder) lookupParam(name string) (*types.Param, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if p, ok := b.scopes[i][name]; ok {
			return p, true
		}
	}
	return nil, false
}

// buildParams declares a parameter list. Later constraints and defaults may
// reference earlier parameters, so each declaration extends the scope the
// next one is built in.
func (b *builder) buildParams(decls []ParamDecl) ([]*types.Param, map[string]*types.Param, error) {
	params := make([]*types.Param, 0, len(decls))
	scope := make(map[string]*types.Param, len(decls))
	b.pushScope(scope)
	defer b.popScope()
	for _, decl := range decls {
		if decl.Name == "" {
			return nil, nil, errors.New("type parameter with empty name")
		}
		var constraint, deflt types.Type
		var err error
		if decl.Constraint != nil {
			constraint, err = b.buildType(decl.Constraint)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "constraint of %q", decl.Name)
			}
		}
		if decl.Default != nil {
			deflt, err = b.buildType(decl.Default)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "default of %q", decl.Name)
			}
		}
		p := b.session.NewParam(decl.Name, constraint, deflt)
		params = append(params, p)
		scope[decl.Name] = p
	}
	return params, scope, nil
}

func (b *builder) buildInterned(e *TypeExpr) (types.Type, error) {
	t, err := b.buildType(e)
	if err != nil {
		return nil, err
	}
	return b.session.Intern(t)
}

func (b *builder) buildType(e *TypeExpr) (types.Type, error) {
	if e == nil {
		return nil, errors.New("missing type expression")
	}
	switch e.Kind {
	case "any":
		return types.Any, nil
	case "unknown":
		return types.Unknown, nil
	case "never":
		return types.Never, nil

	case "primitive":
		return &types.Primitive{Name: e.Name}, nil

	case "literal":
		return buildLiteral(e.Literal)

	case "param":
		p, ok := b.lookupParam(e.Name)
		if !ok {
			return nil, errors.Errorf("type parameter %q is not in scope", e.Name)
		}
		return p, nil

	case "object":
		fields := make([]types.Field, len(e.Fields))
		for i, f := range e.Fields {
			ft, err := b.buildType(f.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q", f.Name)
			}
			fields[i] = types.Field{Name: f.Name, Type: ft, Optional: f.Optional, Readonly: f.Readonly}
		}
		return &types.Object{Fields: fields}, nil

	case "array":
		elem, err := b.buildType(e.Elem)
		if err != nil {
			return nil, err
		}
		return &types.Array{Elem: elem}, nil

	case "tuple":
		elems, err := b.buildAll(e.Elems)
		if err != nil {
			return nil, err
		}
		return &types.Tuple{Elems: elems, OptionalTail: e.OptionalTail}, nil

	case "function":
		params, err := b.buildAll(e.Params)
		if err != nil {
			return nil, err
		}
		var rest types.Type
		if e.Rest != nil {
			rest, err = b.buildType(e.Rest)
			if err != nil {
				return nil, err
			}
		}
		ret, err := b.buildType(e.Return)
		if err != nil {
			return nil, errors.Wrap(err, "return type")
		}
		return &types.Function{Params: params, Rest: rest, Return: ret}, nil

	case "union":
		members, err := b.buildAll(e.Members)
		if err != nil {
			return nil, err
		}
		return &types.Union{Members: members}, nil

	case "intersection":
		members, err := b.buildAll(e.Members)
		if err != nil {
			return nil, err
		}
		return &types.Intersection{Members: members}, nil

	case "conditional":
		return b.buildConditional(e)

	case "mapped":
		return b.buildMapped(e)

	case "branded":
		base, err := b.buildType(e.Base)
		if err != nil {
			return nil, err
		}
		return &types.Branded{Base: base, Brand: e.Brand}, nil

	case "keyof":
		op, err := b.buildType(e.Operand)
		if err != nil {
			return nil, err
		}
		return &types.KeyOf{Operand: op}, nil

	case "index":
		obj, err := b.buildType(e.Object)
		if err != nil {
			return nil, err
		}
		idx, err := b.buildType(e.Index)
		if err != nil {
			return nil, err
		}
		return &types.IndexedAccess{Object: obj, Index: idx}, nil

	case "ref":
		args, err := b.buildAll(e.Args)
		if err != nil {
			return nil, err
		}
		return &types.Ref{Name: e.Name, Args: args}, nil

	default:
		return nil, errors.Errorf("unknown type kind %q", e.Kind)
	}
}

func (b *builder) buildAll(exprs []*TypeExpr) ([]types.Type, error) {
	out := make([]types.Type, len(exprs))
	for i, e := range exprs {
		t, err := b.buildType(e)
		if err != nil {
			return nil, errors.Wrapf(err, "#%d", i)
		}
		out[i] = t
	}
	return out, nil
}

func (b *builder) buildConditional(e *TypeExpr) (types.Type, error) {
	check, err := b.buildType(e.Check)
	if err != nil {
		return nil, errors.Wrap(err, "check")
	}
	infer, scope, err := b.buildParams(e.Infer)
	if err != nil {
		return nil, errors.Wrap(err, "infer")
	}
	// infer slots scope over the extends pattern and the true branch
	b.pushScope(scope)
	extends, err := b.buildType(e.Extends)
	if err != nil {
		b.popScope()
		return nil, errors.Wrap(err, "extends")
	}
	trueT, err := b.buildType(e.True)
	b.popScope()
	if err != nil {
		return nil, errors.Wrap(err, "true branch")
	}
	falseT, err := b.buildType(e.False)
	if err != nil {
		return nil, errors.Wrap(err, "false branch")
	}
	return &types.Conditional{
		Check:   check,
		Extends: extends,
		True:    trueT,
		False:   falseT,
		Infer:   infer,
	}, nil
}

func (b *builder) buildMapped(e *TypeExpr) (types.Type, error) {
	if e.Key == "" {
		return nil, errors.New("mapped type without a key parameter name")
	}
	source, err := b.buildType(e.Source)
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	key := b.session.NewParam(e.Key, nil, nil)
	b.pushScope(map[string]*types.Param{e.Key: key})
	defer b.popScope()
	value, err := b.buildType(e.Value)
	if err != nil {
		return nil, errors.Wrap(err, "value")
	}
	var remap types.Type
	if e.Remap != nil {
		remap, err = b.buildType(e.Remap)
		if err != nil {
			return nil, errors.Wrap(err, "remap")
		}
	}
	readonly, err := parseModifier(e.Readonly)
	if err != nil {
		return nil, errors.Wrap(err, "readonly modifier")
	}
	optional, err := parseModifier(e.Optional)
	if err != nil {
		return nil, errors.Wrap(err, "optional modifier")
	}
	return &types.Mapped{
		Key:      key,
		Source:   source,
		Value:    value,
		Remap:    remap,
		Readonly: readonly,
		Optional: optional,
	}, nil
}

func parseModifier(s string) (types.Modifier, error) {
	switch s {
	case "":
		return types.ModNone, nil
	case "+":
		return types.ModAdd, nil
	case "-":
		return types.ModRemove, nil
	default:
		return types.ModNone, errors.Errorf("unknown modifier %q (want \"+\" or \"-\")", s)
	}
}

func buildLiteral(node *yaml.Node) (types.Type, error) {
	if node == nil {
		return nil, errors.New("literal without a value")
	}
	if node.Kind != yaml.ScalarNode {
		return nil, errors.New("literal value must be a scalar")
	}
	switch node.Tag {
	case "!!str":
		return types.StringLit(node.Value), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decoding number literal")
		}
		return types.NumberLit(f), nil
	case "!!bool":
		var v bool
		if err := node.Decode(&v); err != nil {
			return nil, errors.Wrap(err, "decoding boolean literal")
		}
		return types.BoolLit(v), nil
	default:
		return nil, errors.Errorf("unsupported literal tag %s", node.Tag)
	}
}
