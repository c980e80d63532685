// Package actions writes GitHub Actions workflow commands: log groups,
// secret masks, error annotations and step outputs.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvOutput names the file the runner collects step outputs from.
const EnvOutput = "GITHUB_OUTPUT"

// Writer emits workflow commands on W.  Outputs go to OutputPath when it
// is set, otherwise to W using the legacy set-output command.
type Writer struct {
	W          io.Writer
	OutputPath string
}

// NewWriter returns a Writer on w that appends outputs to the file named
// by $GITHUB_OUTPUT.
func NewWriter(w io.Writer) *Writer {
	return &Writer{W: w, OutputPath: os.Getenv(EnvOutput)}
}

// StartGroup begins a collapsible log group.
func (w *Writer) StartGroup(title string) {
	w.command("group", "", title)
}

// EndGroup closes the current log group.
func (w *Writer) EndGroup() {
	w.command("endgroup", "", "")
}

// Group runs fn inside a log group.
func (w *Writer) Group(title string, fn func() error) error {
	w.StartGroup(title)
	defer w.EndGroup()
	return fn()
}

// Mask registers value as a secret so the runner redacts it from logs.
func (w *Writer) Mask(value string) {
	if value == "" {
		return
	}
	w.command("add-mask", "", value)
}

// Error emits an error annotation.
func (w *Writer) Error(err error) {
	w.command("error", "", err.Error())
}

// SetOutput records a step output.
func (w *Writer) SetOutput(name, value string) error {
	if w.OutputPath == "" {
		w.command("set-output", "name="+escapeProperty(name), value)
		return nil
	}

	f, err := os.OpenFile(w.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", EnvOutput, err)
	}
	defer f.Close()

	if strings.ContainsAny(value, "\r\n") {
		// Multiline values use the heredoc form with a delimiter that
		// cannot appear in the value.
		delim := "ghadelimiter_" + name
		for strings.Contains(value, delim) {
			delim += "_"
		}
		_, err = fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delim, value, delim)
	} else {
		_, err = fmt.Fprintf(f, "%s=%s\n", name, value)
	}
	if err != nil {
		return fmt.Errorf("writing output %s: %w", name, err)
	}
	return nil
}

func (w *Writer) command(name, props, msg string) {
	if props != "" {
		name += " " + props
	}
	fmt.Fprintf(w.W, "::%s::%s\n", name, escapeData(msg))
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}
