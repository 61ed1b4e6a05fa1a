package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress shows a spinner on a terminal and stays silent elsewhere.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner with message on w. Nothing is drawn when
// quiet is set or w is not a terminal.
func StartProgress(w io.Writer, message string, quiet bool) *Progress {
	if quiet || !IsTerminal(w) {
		return &Progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Update replaces the spinner message.
func (p *Progress) Update(message string) {
	if p.s == nil {
		return
	}
	p.s.Lock()
	p.s.Suffix = " " + message
	p.s.Unlock()
}

// Stop clears the spinner, leaving final on its line when not empty.
func (p *Progress) Stop(final string) {
	if p.s == nil {
		return
	}
	if final != "" {
		p.s.FinalMSG = final + "\n"
	}
	p.s.Stop()
}
