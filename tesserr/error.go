package tesserr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = true
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Malformed
	ConstraintViolation
	DuplicateKey
	RecursionLimit
	UnboundParam
	UnknownAlias
	BadIndex
	NotAnObjectVariant
	Internal
)

// TessError is a structured diagnostic. Resolution APIs return these as typed
// results rather than panicking; warnings (like RecursionLimit) accumulate on
// the session instead of aborting it.
type TessError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) TessError
	getStack() []byte
}

func FormatWithCode(e TessError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", strings.TrimSpace(stack), e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E TessError](err E) TessError {
	return err.withStack(debug.Stack())
}

// IsCode reports whether err is a TessError carrying the given code.
func IsCode(err error, code ErrCode) bool {
	te, ok := err.(TessError)
	return ok && te.Code() == code
}

type Unclassified struct {
	From  error
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewMalformedType is raised by the interner when a raw shape violates a
// structural invariant (zero-member union, negative tuple tail, nil field).
type NewMalformedType struct {
	Shape  string
	Reason string
	stack  []byte
}

func (e NewMalformedType) Error() string {
	return fmt.Sprintf("malformed %s type: %s", e.Shape, e.Reason)
}
func (e NewMalformedType) Code() ErrCode    { return Malformed }
func (e NewMalformedType) getStack() []byte { return e.stack }
func (e NewMalformedType) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewConstraintViolation is raised by generic instantiation when a bound
// argument fails its declared constraint.
type NewConstraintViolation struct {
	Param      string
	Bound      fmt.Stringer
	Constraint fmt.Stringer
	stack      []byte
}

func (e NewConstraintViolation) Error() string {
	return fmt.Sprintf("type '%v' does not satisfy the constraint '%v' of type parameter '%s'", e.Bound, e.Constraint, e.Param)
}
func (e NewConstraintViolation) Code() ErrCode    { return ConstraintViolation }
func (e NewConstraintViolation) getStack() []byte { return e.stack }
func (e NewConstraintViolation) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewDuplicateKey is raised by the mapped-type transformer when two distinct
// source keys remap to the same output key.
type NewDuplicateKey struct {
	Key        string
	FirstFrom  string
	SecondFrom string
	stack      []byte
}

func (e NewDuplicateKey) Error() string {
	return fmt.Sprintf("mapped type produces duplicate key '%s' (from source keys '%s' and '%s')", e.Key, e.FirstFrom, e.SecondFrom)
}
func (e NewDuplicateKey) Code() ErrCode    { return DuplicateKey }
func (e NewDuplicateKey) getStack() []byte { return e.stack }
func (e NewDuplicateKey) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewRecursionLimit is a warning, not a fatal error: the resolver substitutes
// a sentinel and keeps going.
type NewRecursionLimit struct {
	Depth     int
	Offending fmt.Stringer
	stack     []byte
}

func (e NewRecursionLimit) Error() string {
	return fmt.Sprintf("type resolution exceeded the recursion limit (%d) at '%v'", e.Depth, e.Offending)
}
func (e NewRecursionLimit) Code() ErrCode    { return RecursionLimit }
func (e NewRecursionLimit) getStack() []byte { return e.stack }
func (e NewRecursionLimit) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewUnboundParam is raised in fully-resolved mode when free type parameters
// remain after substitution.
type NewUnboundParam struct {
	Name  string
	stack []byte
}

func (e NewUnboundParam) Error() string {
	return fmt.Sprintf("type parameter '%s' is not bound in this scope", e.Name)
}
func (e NewUnboundParam) Code() ErrCode    { return UnboundParam }
func (e NewUnboundParam) getStack() []byte { return e.stack }
func (e NewUnboundParam) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

type NewUnknownAlias struct {
	Name  string
	stack []byte
}

func (e NewUnknownAlias) Error() string {
	return fmt.Sprintf("type alias '%s' is not defined", e.Name)
}
func (e NewUnknownAlias) Code() ErrCode    { return UnknownAlias }
func (e NewUnknownAlias) getStack() []byte { return e.stack }
func (e NewUnknownAlias) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewBadIndex is raised by indexed-access resolution when the index type
// cannot select anything from the object type.
type NewBadIndex struct {
	Object fmt.Stringer
	Index  fmt.Stringer
	stack  []byte
}

func (e NewBadIndex) Error() string {
	return fmt.Sprintf("type '%v' cannot be used to index type '%v'", e.Index, e.Object)
}
func (e NewBadIndex) Code() ErrCode    { return BadIndex }
func (e NewBadIndex) getStack() []byte { return e.stack }
func (e NewBadIndex) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewNotAnObjectVariant is raised by the exhaustiveness checker when a union
// member has no literal-typed discriminant field.
type NewNotAnObjectVariant struct {
	Member fmt.Stringer
	Field  string
	stack  []byte
}

func (e NewNotAnObjectVariant) Error() string {
	return fmt.Sprintf("union member '%v' has no literal discriminant field '%s'", e.Member, e.Field)
}
func (e NewNotAnObjectVariant) Code() ErrCode    { return NotAnObjectVariant }
func (e NewNotAnObjectVariant) getStack() []byte { return e.stack }
func (e NewNotAnObjectVariant) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}

// NewInternal marks engine-invariant violations. These are the only
// diagnostics that should abort a session.
type NewInternal struct {
	Message string
	stack   []byte
}

func (e NewInternal) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Message)
}
func (e NewInternal) Code() ErrCode    { return Internal }
func (e NewInternal) getStack() []byte { return e.stack }
func (e NewInternal) withStack(stack []byte) TessError {
	e.stack = stack
	return e
}
