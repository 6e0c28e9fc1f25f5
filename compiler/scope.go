package compiler

import "github.com/Gregofi/cacom/ast"

// Local is a per-function local binding: its slot index in the runtime
// local frame and whether it was declared mutable (`var`) or not
// (`val`). §3.
type Local struct {
	Slot    uint16
	Mutable bool
}

// Environment is the ordered stack of lexical scopes the data model (§3)
// describes: a vector-of-hashtables, since scope entry/exit is always
// LIFO (§9 design notes) and lookup walks innermost to outermost.
// Grounded on the teacher's varScope (pkg/compiler/vars.go): a slice of
// `map[string]Local` rather than a single flattened map, so a shadowing
// inner declaration never has to know about or mutate the outer one.
type Environment struct {
	scopes []map[string]Local
}

// NewEnvironment returns an Environment with no scopes pushed. Local- and
// Class-location compilation must EnterScope before binding anything.
func NewEnvironment() *Environment {
	return &Environment{}
}

// EnterScope pushes a fresh, empty scope.
func (e *Environment) EnterScope() {
	e.scopes = append(e.scopes, map[string]Local{})
}

// LeaveScope pops the innermost scope and returns how many bindings it
// owned, so the caller can release that many local slots (invariant I4).
func (e *Environment) LeaveScope() int {
	n := len(e.scopes) - 1
	released := len(e.scopes[n])
	e.scopes = e.scopes[:n]
	return released
}

// Depth returns the number of scopes currently pushed.
func (e *Environment) Depth() int {
	return len(e.scopes)
}

// AddLocal binds name in the innermost scope. It fails with
// ErrRedefinition if that scope already binds name — shadowing a name
// from an OUTER scope is fine, only the innermost scope's own bindings
// are checked (§4.2).
func (e *Environment) AddLocal(span ast.Span, name string, slot uint16, mutable bool) error {
	top := e.scopes[len(e.scopes)-1]
	if _, ok := top[name]; ok {
		return errRedefinition(span, name)
	}
	top[name] = Local{Slot: slot, Mutable: mutable}
	return nil
}

// FetchLocal walks scopes innermost-to-outermost and returns the first
// binding for name, or false if name is unbound in every pushed scope.
func (e *Environment) FetchLocal(name string) (Local, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if l, ok := e.scopes[i][name]; ok {
			return l, true
		}
	}
	return Local{}, false
}

// LocationKind distinguishes where a name currently resolves: the
// global namespace, a local function's Environment, or a class body
// (where method definitions get compiled; it has no Environment of its
// own, and each method body switches to LocationLocal). §3.
type LocationKind int

const (
	LocationGlobal LocationKind = iota
	LocationLocal
	LocationClass
)
