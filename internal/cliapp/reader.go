package cliapp

import (
	"bufio"
	"io"
	"strings"
)

// Reader combines a one-shot initial command (the process's argv) with an
// optional stream of further lines from stdin when --interactive is set,
// mirroring the original cli/reader.rs's Reader: the CLI is driven the
// same way whether a command came from argv or from a follow-up line.
type Reader struct {
	initial []string
	scanner *bufio.Scanner
	done    bool
}

func NewReader(initial []string, stdin io.Reader) *Reader {
	return &Reader{initial: initial, scanner: bufio.NewScanner(stdin)}
}

// Next returns the next command line's tokens, or ok=false once both the
// initial command and the stdin stream (if any) are exhausted.
func (r *Reader) Next() ([]string, bool) {
	if r.initial != nil {
		next := r.initial
		r.initial = nil
		return next, true
	}
	if r.done || r.scanner == nil {
		return nil, false
	}
	if !r.scanner.Scan() {
		r.done = true
		return nil, false
	}
	line := strings.TrimSpace(r.scanner.Text())
	if line == "" {
		return r.Next()
	}
	return strings.Fields(line), true
}
