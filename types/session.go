package types

import (
	"hash/fnv"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/tessera-lang/tessera/internal/log"
	"github.com/tessera-lang/tessera/tesserr"
)

var logger = slog.New(TypeLogHandler(log.DefaultLogger.Handler())).With("section", "resolve")

// defaultDepthLimit bounds non-productive recursive conditional aliases.
const defaultDepthLimit = 50

// Session owns all mutable state of one resolution run: the interner, the
// memo caches and the collected warnings. A session is single-threaded;
// hosts that want parallel checking run one session per worker with no
// sharing between them.
type Session struct {
	ID uuid.UUID

	// DepthLimit is the recursion budget for conditional/alias expansion.
	// Exceeding it is a warning, not a session failure.
	DepthLimit int

	// Warnings accumulates non-fatal diagnostics (RecursionLimit and the
	// like) so a host can batch-report them after resolution.
	Warnings *tesserr.Errors

	// Failures are irrecoverable internal-invariant violations; a normal
	// type graph should never produce one.
	Failures []error

	interner *Interner
	nextID   ParamID

	resolveMemo map[memoKey]Type
	subMemo     map[memoKey]Type
	assignCache assignCache

	logger *slog.Logger
}

type memoKey struct {
	typeHash uint64
	envHash  uint64
}

func NewSession() *Session {
	return &Session{
		ID:          uuid.New(),
		DepthLimit:  defaultDepthLimit,
		interner:    NewInterner(),
		resolveMemo: make(map[memoKey]Type),
		subMemo:     make(map[memoKey]Type),
		assignCache: make(assignCache),
		logger:      logger,
	}
}

// Intern canonicalizes t in this session's interner.
func (s *Session) Intern(t Type) (Type, error) {
	return s.interner.Intern(t)
}

// MustIntern is Intern for shapes known to be well-formed; a malformed shape
// here is an engine bug, not a user error.
func (s *Session) MustIntern(t Type) Type {
	interned, err := s.interner.Intern(t)
	if err != nil {
		panic(err)
	}
	return interned
}

// Union interns the canonical union of the given (raw or canonical) members.
func (s *Session) Union(members ...Type) (Type, error) {
	interned, err := s.interner.internAll(members)
	if err != nil {
		return nil, err
	}
	return s.interner.NewUnion(interned...), nil
}

// Intersection interns the canonical intersection of the given members.
func (s *Session) Intersection(members ...Type) (Type, error) {
	interned, err := s.interner.internAll(members)
	if err != nil {
		return nil, err
	}
	return s.interner.NewIntersection(interned...), nil
}

// NewParam declares a fresh generic parameter. Identity is the issued ID, so
// params from different declarations never collide even when names do.
func (s *Session) NewParam(name string, constraint, deflt Type) *Param {
	s.nextID++
	p := &Param{ID: s.nextID, Name: name, Constraint: constraint, Default: deflt}
	interned, err := s.interner.internParam(p)
	if err != nil {
		s.addFailure(err)
		return p
	}
	return interned.(*Param)
}

func (s *Session) addWarning(err tesserr.TessError) {
	s.logger.Warn("diagnostic during resolution", "msg", err.Error())
	s.Warnings = s.Warnings.With(err)
}

func (s *Session) addFailure(err error) {
	s.logger.Error("internal failure", "err", err)
	s.Failures = append(s.Failures, err)
}

// Bindings maps generic parameter IDs to the types they are bound to. All
// bound types must be canonical handles from the session's interner.
type Bindings map[ParamID]Type

func (b Bindings) fingerprint() uint64 {
	if len(b) == 0 {
		return 0
	}
	ids := make([]ParamID, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, id := range ids {
		putUint64(buf, id)
		_, _ = h.Write(buf)
		putUint64(buf, b[id].Hash())
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

func putUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func (b Bindings) with(id ParamID, t Type) Bindings {
	out := make(Bindings, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	out[id] = t
	return out
}

func (b Bindings) without(params []*Param) Bindings {
	if len(params) == 0 {
		return b
	}
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	for _, p := range params {
		delete(out, p.ID)
	}
	return out
}

func (b Bindings) merge(other Bindings) Bindings {
	out := make(Bindings, len(b)+len(other))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
