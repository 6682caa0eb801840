package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// stdinDialogs asks questions on the terminal. An empty answer to a prompt
// accepts the shown default; end of input cancels.
type stdinDialogs struct {
	r *bufio.Reader
	w io.Writer
}

func newStdinDialogs(r io.Reader, w io.Writer) *stdinDialogs {
	return &stdinDialogs{r: bufio.NewReader(r), w: w}
}

func (d *stdinDialogs) Confirm(prompt string) bool {
	fmt.Fprintf(d.w, "%s [y/N]: ", prompt)
	line, ok := d.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (d *stdinDialogs) PromptText(label, def string) (string, bool) {
	fmt.Fprintf(d.w, "%s [%s]: ", label, def)
	line, ok := d.readLine()
	if !ok {
		return "", false
	}
	if line == "" {
		return def, true
	}
	return line, true
}

func (d *stdinDialogs) readLine() (string, bool) {
	line, err := d.r.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(d.w)
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}
