package types

import (
	"fmt"
	"hash/fnv"

	"github.com/benbjohnson/immutable"
	"github.com/tessera-lang/tessera/tesserr"
)

// aliasDef is one named alias: `type Name<params> = body`.
type aliasDef struct {
	name   string
	params []*Param
	body   Type
}

// Env is the immutable naming environment the resolver reads aliases from.
// Deriving a new Env (DefineAlias, WithBindings) leaves the parent untouched,
// so a host can branch environments per scope and keep memo entries valid: the
// fingerprint changes whenever the visible aliases or bindings change.
type Env struct {
	session  *Session
	aliases  *immutable.Map
	bindings Bindings
	aliasFp  uint64
}

func (s *Session) NewEnv() *Env {
	return &Env{
		session: s,
		aliases: immutable.NewMap(nil),
	}
}

// DefineAlias derives an environment with name bound to body (parameterized
// by params). Redeclaring a name merges the declarations when both bodies are
// plain non-generic objects, the way interface declarations merge; any other
// redeclaration is malformed.
func (e *Env) DefineAlias(name string, params []*Param, body Type) (*Env, error) {
	if name == "" {
		return nil, tesserr.New(tesserr.NewMalformedType{Shape: "alias", Reason: "empty alias name"})
	}
	interned, err := e.session.Intern(body)
	if err != nil {
		return nil, err
	}
	canonParams := make([]*Param, len(params))
	for i, p := range params {
		ip, err := e.session.interner.internParam(p)
		if err != nil {
			return nil, err
		}
		canonParams[i] = ip.(*Param)
	}
	def := aliasDef{name: name, params: canonParams, body: interned}
	if prev, ok := e.lookup(name); ok {
		def, err = e.mergeAliases(prev, def)
		if err != nil {
			return nil, err
		}
	}
	return &Env{
		session:  e.session,
		aliases:  e.aliases.Set(name, def),
		bindings: e.bindings,
		aliasFp:  mixAliasFp(e.aliasFp, def),
	}, nil
}

// mergeAliases combines two declarations of the same name. Both must be
// non-generic object types; fields present in both must agree exactly.
func (e *Env) mergeAliases(prev, next aliasDef) (aliasDef, error) {
	prevObj, prevOk := prev.body.(*Object)
	nextObj, nextOk := next.body.(*Object)
	if !prevOk || !nextOk || len(prev.params) > 0 || len(next.params) > 0 {
		return aliasDef{}, tesserr.New(tesserr.NewMalformedType{
			Shape:  "alias",
			Reason: fmt.Sprintf("cannot redeclare %q: only non-generic object declarations merge", next.name),
		})
	}
	fields := make([]Field, 0, len(prevObj.Fields)+len(nextObj.Fields))
	fields = append(fields, prevObj.Fields...)
	for _, f := range nextObj.Fields {
		existing, ok := prevObj.FieldByName(f.Name)
		if !ok {
			fields = append(fields, f)
			continue
		}
		if existing.Type != f.Type || existing.Optional != f.Optional || existing.Readonly != f.Readonly {
			return aliasDef{}, tesserr.New(tesserr.NewMalformedType{
				Shape:  "alias",
				Reason: fmt.Sprintf("conflicting declarations of %s.%s", next.name, f.Name),
			})
		}
	}
	merged, err := e.session.Intern(&Object{Fields: fields})
	if err != nil {
		return aliasDef{}, err
	}
	return aliasDef{name: next.name, body: merged}, nil
}

// WithBindings derives an environment whose free parameters resolve through b.
// Bound types must be canonical handles of this env's session.
func (e *Env) WithBindings(b Bindings) *Env {
	return &Env{
		session:  e.session,
		aliases:  e.aliases,
		bindings: e.bindings.merge(b),
		aliasFp:  e.aliasFp,
	}
}

func (e *Env) lookup(name string) (aliasDef, bool) {
	v, ok := e.aliases.Get(name)
	if !ok {
		return aliasDef{}, false
	}
	return v.(aliasDef), true
}

// Fingerprint identifies the resolution-relevant content of this env; the
// memo caches key on it together with the type hash.
func (e *Env) Fingerprint() uint64 {
	return e.aliasFp ^ e.bindings.fingerprint()
}

func mixAliasFp(fp uint64, def aliasDef) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(def.name))
	mixed := h.Sum64() ^ def.body.Hash()
	for _, p := range def.params {
		mixed = mixed*31 ^ p.Hash()
	}
	return fp*1099511628211 ^ mixed
}
