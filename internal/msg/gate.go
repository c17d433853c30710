package msg

import "sync"

// Scope controls how long the output gate is held.
type Scope string

const (
	// ScopeLine serializes individual line emissions only. Transactions from
	// concurrent sessions may interleave line-by-line, matching the original
	// firmware behavior.
	ScopeLine Scope = "line"

	// ScopeTransaction holds the gate from Begin until End, so a whole
	// transaction is contiguous on the shared channel.
	ScopeTransaction Scope = "transaction"
)

// Valid reports whether s is a known gate scope.
func (s Scope) Valid() bool {
	return s == ScopeLine || s == ScopeTransaction
}

// Gate is the mutual-exclusion primitive around the shared output channel.
// One Gate is shared by every Stream writing to the same logical channel;
// it guarantees that no two emissions interleave their bytes.
type Gate struct {
	mu    sync.Mutex
	scope Scope
}

// NewGate creates a Gate with the given scope. An invalid scope falls back
// to ScopeLine.
func NewGate(scope Scope) *Gate {
	if !scope.Valid() {
		scope = ScopeLine
	}
	return &Gate{scope: scope}
}

// Scope returns the configured scope.
func (g *Gate) Scope() Scope {
	return g.scope
}
