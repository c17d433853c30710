package fetch

import (
	"strings"

	"github.com/phuonglab/marionette-firmware/internal/msg"
)

// Dispatch resolves tok against a command table and invokes the bound
// handler with the remaining path and the argument list, propagating its
// verdict unchanged. Module-level dispatch calls this with the module name,
// and module handlers call it again with their own table and the next path
// token.
func Dispatch(st *msg.Stream, table Table, tok string, path []string, args []string) bool {
	if tok == "" {
		st.Error("missing sub-command")
		return false
	}
	h := table.Lookup(tok)
	if h == nil {
		st.Error("unknown command: %s", tok)
		return false
	}
	return h(st, path, args)
}

// InputCheck validates a handler's input before it runs: the token path must
// be populated through slot lastTok and the argument count must equal want
// exactly. A diagnostic naming the failing condition is emitted on
// mismatch. Handlers call this first, so malformed input never reaches
// hardware-affecting code.
func InputCheck(st *msg.Stream, path []string, lastTok int, args []string, want int) bool {
	if len(path) <= lastTok {
		st.Error("missing command token, expected %d got %d", lastTok+1, len(path))
		return false
	}
	for i := 0; i <= lastTok; i++ {
		if path[i] == "" {
			st.Error("missing command token, expected %d got %d", lastTok+1, i)
			return false
		}
	}
	if len(args) != want {
		st.Error("invalid number of arguments, expected %d got %d", want, len(args))
		return false
	}
	return true
}

// DisplayHelp emits one help line per table entry. Multi-line help strings
// are split so each line stays a single protocol record.
func DisplayHelp(st *msg.Stream, table Table) {
	for i := range table {
		for j, line := range strings.Split(table[i].Help, "\n") {
			if j == 0 {
				st.Info("%s - %s", table[i].Name, line)
				continue
			}
			st.Info("  %s", line)
		}
	}
}
