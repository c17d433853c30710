package fetch

import "github.com/phuonglab/marionette-firmware/internal/msg"

// HandlerFunc is a terminal command handler. It receives the full token path
// and the argument list for one dispatch call; both are owned by the caller
// and must not be retained after the call returns. The boolean result
// becomes the transaction verdict.
type HandlerFunc func(st *msg.Stream, path []string, args []string) bool

// Command is one dispatch table entry.
type Command struct {
	Name    string
	Help    string
	Handler HandlerFunc
}

// Table is a module's ordered command table. Tables are built once at
// startup and never mutated afterwards, which is what makes concurrent
// dispatch safe without locks.
type Table []Command

// Lookup scans the table for the first entry whose name matches, case
// insensitively. Returns nil when nothing matches; the caller reports the
// unknown command, there is no default handler.
func (t Table) Lookup(name string) HandlerFunc {
	if name == "" {
		return nil
	}
	for i := range t {
		if tokenEqual(t[i].Name, name) {
			return t[i].Handler
		}
	}
	return nil
}

// Names returns the table's command names in order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i := range t {
		names[i] = t[i].Name
	}
	return names
}
