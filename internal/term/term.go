// Package term describes the streams a command talks to and whether
// they are attached to a terminal.
package term

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

var ErrNotTTY = errors.New("not a tty")

type Term interface {
	In() io.Reader
	Out() io.Writer
	ErrOut() io.Writer
	IsTTY() bool
	Size() (int, int, error)
}

func System() Term {
	return FromIO(os.Stdin, os.Stdout, os.Stderr)
}

// FromIO wraps the given streams. Only *os.File outputs can be
// recognized as terminals.
func FromIO(in io.Reader, out, errOut io.Writer) Term {
	t := &streams{in: in, out: out, errOut: errOut}
	if f, ok := out.(*os.File); ok {
		t.outFile = f
		t.isTTY = IsTerminal(f)
	}
	return t
}

// IsTerminal reports whether f is a terminal, including Cygwin ones.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Width returns the width of t or DefaultWidth when it is unknown.
func Width(t Term) int {
	w, _, err := t.Size()
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

type streams struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	outFile *os.File
	isTTY   bool
}

func (t *streams) In() io.Reader     { return t.in }
func (t *streams) Out() io.Writer    { return t.out }
func (t *streams) ErrOut() io.Writer { return t.errOut }
func (t *streams) IsTTY() bool       { return t.isTTY }

func (t *streams) Size() (int, int, error) {
	if !t.isTTY {
		return -1, -1, ErrNotTTY
	}
	w, h, err := term.GetSize(int(t.outFile.Fd()))
	return w, h, errors.WithStack(err)
}
