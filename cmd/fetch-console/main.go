package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/phuonglab/marionette-firmware/internal/console"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7788", "fetchd session address")
	flag.Parse()

	model, err := console.New(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch-console: %v\n", err)
		os.Exit(1)
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "fetch-console: %v\n", err)
		os.Exit(1)
	}
}
