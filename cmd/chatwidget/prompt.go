package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// lockedWriter serializes writes from the console and the prompter so a redraw
// never lands in the middle of a question.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// linePrompter answers widget dialogs on a line-oriented terminal.
type linePrompter struct {
	out   io.Writer
	lines <-chan string
}

func newLinePrompter(out io.Writer, lines <-chan string) *linePrompter {
	return &linePrompter{out: out, lines: lines}
}

// Confirm asks a yes/no question. End of input or a done ctx counts as no.
func (p *linePrompter) Confirm(ctx context.Context, message string) bool {
	for {
		fmt.Fprintf(p.out, "%s [y/N]: ", message)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.out)
			return false
		case l, ok := <-p.lines:
			if !ok {
				fmt.Fprintln(p.out)
				return false
			}
			line = l
		}

		switch strings.TrimSpace(strings.ToLower(line)) {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		default:
			fmt.Fprintln(p.out, "Please enter 'y' or 'n'.")
		}
	}
}

func (p *linePrompter) Alert(message string) {
	fmt.Fprintf(p.out, "! %s\n", message)
}
