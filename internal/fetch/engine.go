package fetch

import (
	"errors"
	"log/slog"

	"github.com/phuonglab/marionette-firmware/internal/log"
	"github.com/phuonglab/marionette-firmware/internal/msg"
)

// Module is one peripheral command module: a name at the root grammar
// level, a sub-command table, and optionally extra root-level commands it
// contributes (gpio's resetpins, for example).
type Module struct {
	Name  string
	Help  string
	Table Table
	Root  Table
}

// Engine owns the root dispatch table. All tables are assembled at
// construction and are read-only afterwards, so Execute may be called from
// any number of goroutines concurrently.
type Engine struct {
	version string
	root    Table
	modules []Module
	logger  *slog.Logger
}

// NewEngine builds the root table from the built-in commands plus one entry
// per registered module.
func NewEngine(version string, modules ...Module) *Engine {
	e := &Engine{
		version: version,
		modules: modules,
		logger:  log.WithComponent("fetch"),
	}

	root := Table{
		{Name: "help", Help: "list available commands", Handler: e.helpCmd},
		{Name: "version", Help: "report firmware name and version", Handler: e.versionCmd},
	}
	for _, m := range modules {
		root = append(root, Command{Name: m.Name, Help: m.Help, Handler: moduleHandler(m.Table)})
		root = append(root, m.Root...)
	}
	e.root = root
	return e
}

// moduleHandler wraps a module table as a root-level handler that descends
// one grammar level.
func moduleHandler(t Table) HandlerFunc {
	return func(st *msg.Stream, path []string, args []string) bool {
		return Dispatch(st, t, tokenAt(path, TokSubcmd0), path, args)
	}
}

func tokenAt(path []string, i int) string {
	if i >= len(path) {
		return ""
	}
	return path[i]
}

// Execute parses one assembled command line and dispatches it inside a
// single BEGIN/END transaction. Empty lines produce no output and count as
// success. The returned verdict matches the transaction's END line.
func (e *Engine) Execute(st *msg.Stream, line string) bool {
	path, args, err := ParseLine(line)
	if errors.Is(err, ErrEmptyLine) {
		return true
	}

	st.Begin()
	ok := false
	if err != nil {
		st.Error("%s", err)
	} else {
		ok = Dispatch(st, e.root, path[TokCmd], path, args)
	}
	st.End(ok)

	e.logger.Debug("dispatched", "line", line, "ok", ok)
	return ok
}

// Version returns the firmware version string the engine reports.
func (e *Engine) Version() string {
	return e.version
}

// CommandSummary describes one dispatchable command for introspection.
type CommandSummary struct {
	Name string `json:"name"`
	Help string `json:"help"`
}

// ModuleSummary describes one registered module for introspection.
type ModuleSummary struct {
	Name     string           `json:"name"`
	Help     string           `json:"help"`
	Commands []CommandSummary `json:"commands"`
}

// Modules reports the registered modules and their command tables.
func (e *Engine) Modules() []ModuleSummary {
	out := make([]ModuleSummary, 0, len(e.modules))
	for _, m := range e.modules {
		ms := ModuleSummary{Name: m.Name, Help: m.Help}
		for i := range m.Table {
			ms.Commands = append(ms.Commands, CommandSummary{Name: m.Table[i].Name, Help: m.Table[i].Help})
		}
		out = append(out, ms)
	}
	return out
}

func (e *Engine) helpCmd(st *msg.Stream, path []string, args []string) bool {
	if !InputCheck(st, path, TokCmd, args, 0) {
		return false
	}
	st.Info("Fetch Commands:")
	DisplayHelp(st, e.root)
	return true
}

func (e *Engine) versionCmd(st *msg.Stream, path []string, args []string) bool {
	if !InputCheck(st, path, TokCmd, args, 0) {
		return false
	}
	st.String("firmware", "marionette")
	st.String("version", "%s", e.version)
	return true
}
