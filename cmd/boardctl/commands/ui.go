package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// cliView is the view a command runs in until a forced logout redirects it.
const cliView = "/cli"

// terminalUI is the Notifier, Navigator and Confirmer of the CLI.
type terminalUI struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool

	mu   sync.Mutex
	view string
}

func newTerminalUI(in io.Reader, out io.Writer, assumeYes bool) *terminalUI {
	return &terminalUI{in: bufio.NewReader(in), out: out, assumeYes: assumeYes, view: cliView}
}

func (u *terminalUI) Notify(message string) {
	fmt.Fprintln(u.out, "! "+message)
}

func (u *terminalUI) CurrentView() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.view
}

func (u *terminalUI) Redirect(view string) {
	u.mu.Lock()
	u.view = view
	u.mu.Unlock()
	fmt.Fprintln(u.out, "Run `boardctl login` to sign in again.")
}

func (u *terminalUI) Confirm(ctx context.Context, prompt string) (bool, error) {
	if u.assumeYes {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(u.out, "%s [y/N]: ", prompt)
	line, err := u.readLine()
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (u *terminalUI) readLine() (string, error) {
	line, err := u.in.ReadString('\n')
	return strings.TrimSpace(line), err
}
