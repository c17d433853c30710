package console

import (
	"net"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestStyleLineByTag(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"BEGIN:", "BEGIN:"},
		{"END:OK", "END:OK"},
		{"END:ERROR", "END:ERROR"},
		{"E:invalid channel", "E:invalid channel"},
		{"W:dac saturated", "W:dac saturated"},
		{"#:Fetch Commands:", "#:Fetch Commands:"},
		{"B:state:true", "B:state:true"},
		{"H16:samples:0FFF", "H16:samples:0FFF"},
	}
	for _, c := range cases {
		got := styleLine(c.line)
		if !strings.Contains(got, c.want) {
			t.Fatalf("styleLine(%q) lost the line text: %q", c.line, got)
		}
	}
}

func TestNextLineStopsOnClosedChannel(t *testing.T) {
	m := &Model{lines: make(chan string)}
	close(m.lines)
	if msg := m.nextLine()(); msg != nil {
		t.Fatalf("closed channel must end the pump, got %v", msg)
	}
}

func TestReadLoopClosesLinesOnDisconnect(t *testing.T) {
	client, server := net.Pipe()
	m := &Model{conn: client, lines: make(chan string, 4)}

	done := make(chan tea.Msg, 1)
	go func() { done <- m.readLoop()() }()

	if _, err := server.Write([]byte("BEGIN:\r\nEND:OK\r\n")); err != nil {
		t.Fatal(err)
	}
	_ = server.Close()

	if _, ok := (<-done).(disconnectMsg); !ok {
		t.Fatal("read loop must report the disconnect")
	}
	if got := <-m.lines; got != "BEGIN:" {
		t.Fatalf("got %q", got)
	}
	if got := <-m.lines; got != "END:OK" {
		t.Fatalf("got %q", got)
	}
	if _, ok := <-m.lines; ok {
		t.Fatal("lines channel must be closed after disconnect")
	}
}

func TestAppendLineCapsHistory(t *testing.T) {
	m := &Model{}
	for i := 0; i < 600; i++ {
		m.appendLine("line")
	}
	if len(m.history) != 500 {
		t.Fatalf("expected history capped at 500, got %d", len(m.history))
	}
}
