package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
)

// painter colours terminal output. Every colour is disabled unless enabled
// explicitly or the writer is a terminal.
type painter struct {
	locator *color.Color
	failure *color.Color
	added   *color.Color
	removed *color.Color
	hunk    *color.Color
}

func newPainter(mode string, w io.Writer) (*painter, error) {
	var enabled bool
	switch mode {
	case "always":
		enabled = true
	case "never":
	case "auto", "":
		if f, ok := w.(*os.File); ok {
			enabled = isatty.IsTerminal(f.Fd())
		}
	default:
		return nil, fmt.Errorf("unknown --color mode %q (want auto, always or never)", mode)
	}

	p := &painter{
		locator: color.New(color.FgCyan, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		hunk:    color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{p.locator, p.failure, p.added, p.removed, p.hunk} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p, nil
}

// diff writes a unified diff of before and after, one coloured line at a time.
func (p *painter) diff(w io.Writer, name, before, after string) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name + " (edited)",
		Context:  3,
	})
	if err != nil {
		return err
	}
	if text == "" {
		_, err := fmt.Fprintln(w, "no changes")
		return err
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		c := p.lineColor(line)
		if c == nil {
			fmt.Fprint(w, line)
			continue
		}
		fmt.Fprint(w, c.Sprint(strings.TrimSuffix(line, "\n")))
		if strings.HasSuffix(line, "\n") {
			fmt.Fprintln(w)
		}
	}
	return nil
}

func (p *painter) lineColor(line string) *color.Color {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return nil
	case strings.HasPrefix(line, "@@"):
		return p.hunk
	case strings.HasPrefix(line, "+"):
		return p.added
	case strings.HasPrefix(line, "-"):
		return p.removed
	}
	return nil
}
