package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// prompter reads interactive input from the command's reader. Passwords are read
// without echo when the reader is a terminal.
type prompter struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newPrompter(cmd *cli.Command) *prompter {
	root := cmd.Root()
	in := root.Reader
	if in == nil {
		in = os.Stdin
	}
	out := root.ErrWriter
	if out == nil {
		out = os.Stderr
	}
	return &prompter{in: in, out: out, reader: bufio.NewReader(in)}
}

func (p *prompter) ReadInput(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) ReadPassword(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.ReadInput(prompt)
	}

	_, _ = fmt.Fprint(p.out, prompt)
	pw, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// valueOrPrompt returns the flag value, prompting for it when unset.
func valueOrPrompt(cmd *cli.Command, p *prompter, flag, prompt string, secret bool) (string, error) {
	if v := cmd.String(flag); v != "" {
		return v, nil
	}
	read := p.ReadInput
	if secret {
		read = p.ReadPassword
	}
	v, err := read(prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", flag)
	}
	return v, nil
}
