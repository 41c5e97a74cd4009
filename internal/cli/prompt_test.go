package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/example/triage/internal/app"
)

func TestReadConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out := &bytes.Buffer{}
			got, err := readConfirm(bufio.NewReader(strings.NewReader(tt.input)), out, "Ship Ada?")
			if err != nil {
				t.Fatalf("readConfirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readConfirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if out.String() != "Ship Ada? [y/N]: " {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	asked := 0
	ask := func(answer string, err error) func() (string, error) {
		return func() (string, error) {
			asked++
			return answer, err
		}
	}

	tests := []struct {
		name       string
		configured string
		supplied   string
		ask        func() (string, error)
		wantErr    bool
		wantAsked  int
	}{
		{"flag matches", "open sesame", "open sesame", nil, false, 0},
		{"flag wrong", "open sesame", "nope", ask("open sesame", nil), true, 0},
		{"prompted", "open sesame", "", ask("open sesame\n", nil), false, 1},
		{"prompt wrong", "open sesame", "", ask("nope", nil), true, 1},
		{"prompt fails", "open sesame", "", ask("", errors.New("closed")), true, 1},
		{"nothing configured", "", "anything", ask("x", nil), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asked = 0
			err := authorize(tt.configured, tt.supplied, tt.ask)
			if (err != nil) != tt.wantErr {
				t.Fatalf("authorize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if asked != tt.wantAsked {
				t.Errorf("asked %d times, want %d", asked, tt.wantAsked)
			}
		})
	}

	err := authorize("open sesame", "nope", nil)
	if !errors.Is(err, app.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}
