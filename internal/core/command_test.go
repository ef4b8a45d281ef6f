package core

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantOK   bool
		wantName string
		wantArgs []string
	}{
		{text: "hallo", wantOK: false},
		{text: " /help", wantOK: false},
		{text: "/help", wantOK: true, wantName: "help", wantArgs: []string{}},
		{text: "/msg Max  hallo welt", wantOK: true, wantName: "msg", wantArgs: []string{"Max", "hallo", "welt"}},
		{text: "/", wantOK: true, wantName: ""},
		{text: "/bancake Max", wantOK: true, wantName: "bancake", wantArgs: []string{"Max"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, ok := ParseCommand(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cmd.Name != tt.wantName {
				t.Fatalf("name = %q, want %q", cmd.Name, tt.wantName)
			}
			if len(tt.wantArgs) == 0 && len(cmd.Args) == 0 {
				return
			}
			if !reflect.DeepEqual(cmd.Args, tt.wantArgs) {
				t.Fatalf("args = %q, want %q", cmd.Args, tt.wantArgs)
			}
		})
	}
}

func TestCommandTail(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{text: "/topic Ein  neues   Thema ", n: 1, want: "Ein  neues   Thema"},
		{text: "/msg Max hallo   du da", n: 2, want: "hallo   du da"},
		{text: "/msg Max", n: 2, want: ""},
		{text: "/name", n: 1, want: ""},
		{text: "/name   Max  ", n: 1, want: "Max"},
		{text: "/topic", n: 0, want: "topic"},
	}

	for _, tt := range tests {
		cmd, ok := ParseCommand(tt.text)
		if !ok {
			t.Fatalf("%q did not parse", tt.text)
		}
		if got := cmd.Tail(tt.n); got != tt.want {
			t.Fatalf("Tail(%d) of %q = %q, want %q", tt.n, tt.text, got, tt.want)
		}
	}
}
