package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// lineReader hands out input lines. The console loop and the delete prompt
// share one so neither swallows the other's input.
type lineReader struct {
	sc *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{sc: bufio.NewScanner(r)}
}

func (r *lineReader) next() (string, bool) {
	if !r.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.sc.Text()), true
}

// promptConfirmer asks a yes/no question on the terminal. Anything but y or
// yes declines.
type promptConfirmer struct {
	in  *lineReader
	out io.Writer
}

func (p *promptConfirmer) Confirm(ctx context.Context, prompt string) bool {
	if ctx.Err() != nil {
		return false
	}
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	answer, ok := p.in.next()
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// writerAlerter prints alerts as error lines.
type writerAlerter struct {
	w io.Writer
}

func (a writerAlerter) Alert(message string) {
	fmt.Fprintf(a.w, "error: %s\n", message)
}

// syncWriter serializes writes from the console loop and the list
// controller's fetch goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
