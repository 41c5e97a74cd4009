package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	cliadapter "github.com/example/triage/internal/adapters/cli"
	"github.com/example/triage/internal/app"
	"github.com/example/triage/internal/core/gate"
	"github.com/example/triage/internal/wire"
)

// passphraseEnv supplies the passphrase to non-interactive invocations.
const passphraseEnv = "TRIAGE_PASSPHRASE"

// readConfirm writes msg to out and reads a y/N answer. End of input declines.
func readConfirm(r *bufio.Reader, out io.Writer, msg string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", msg)
	response, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// stdinConfirmer prompts on stdout and reads stdin, or accepts everything
// when yes is set.
func stdinConfirmer(yes bool) cliadapter.Confirmer {
	if yes {
		return cliadapter.AlwaysConfirm
	}
	reader := bufio.NewReader(os.Stdin)
	return cliadapter.ConfirmFunc(func(prompt string) (bool, error) {
		return readConfirm(reader, os.Stdout, prompt)
	})
}

// authorize checks supplied against the configured passphrase. When nothing
// was supplied and a passphrase is configured, ask is called for one.
func authorize(configured, supplied string, ask func() (string, error)) error {
	if supplied == "" && configured != "" && ask != nil {
		s, err := ask()
		if err != nil {
			return fmt.Errorf("failed to read passphrase: %w", err)
		}
		supplied = strings.TrimSpace(s)
	}
	if result := gate.CanAccess(gate.PassphraseContext{Configured: configured, Supplied: supplied}); !result.Allowed {
		return fmt.Errorf("%w: %s", app.ErrAccessDenied, result.Reason)
	}
	return nil
}

// requireGate opens the staff queue for this invocation: --passphrase, then
// $TRIAGE_PASSPHRASE, then an interactive prompt.
func requireGate(flagValue string) error {
	supplied := flagValue
	if supplied == "" {
		supplied = os.Getenv(passphraseEnv)
	}
	return authorize(wire.Config().Gate.Passphrase, supplied, func() (string, error) {
		line := liner.NewLiner()
		defer line.Close()
		return askPassphrase(line)
	})
}

// askPassphrase reads without echo on a terminal and falls back to a plain
// line read otherwise.
func askPassphrase(line *liner.State) (string, error) {
	s, err := line.PasswordPrompt("Passphrase: ")
	if errors.Is(err, liner.ErrNotTerminalOutput) {
		fmt.Fprint(os.Stderr, "Passphrase: ")
		s, err = bufio.NewReader(os.Stdin).ReadString('\n')
		if errors.Is(err, io.EOF) && s != "" {
			err = nil
		}
	}
	return s, err
}
