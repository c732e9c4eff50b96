package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/roach88/thisme/internal/secret"
)

// passwordPrompt reads passwords from the command's stdin. On a terminal
// echo is disabled; piped input is read one line per password.
type passwordPrompt struct {
	in    io.Reader
	out   io.Writer
	lines *bufio.Reader

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

func newPasswordPrompt(in io.Reader, out io.Writer) *passwordPrompt {
	return &passwordPrompt{
		in:           in,
		out:          out,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

// terminalFD returns the descriptor of in when it is an interactive
// terminal.
func (p *passwordPrompt) terminalFD() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, p.isTerminal(fd)
}

// Read prints prompt to out and reads one password.
func (p *passwordPrompt) Read(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	if fd, ok := p.terminalFD(); ok {
		raw, err := p.readPassword(fd)
		fmt.Fprintln(p.out)
		defer secret.Zero(raw)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	// Stdin is piped: read one line without echo control.
	if p.lines == nil {
		p.lines = bufio.NewReader(p.in)
	}
	line, err := p.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
