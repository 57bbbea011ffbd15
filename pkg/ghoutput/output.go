// Package ghoutput writes results and annotations for the surrounding
// pipeline: key=value lines appended to the output file, and workflow
// commands printed to stdout.
package ghoutput

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

var ErrNoOutput = errors.New("pipeline output file is not configured")

type Output struct {
	path string
}

func Open(path string) *Output {
	return &Output{path: path}
}

func (o *Output) Path() string {
	return o.path
}

// Set appends key=value to the output file.
func (o *Output) Set(key, value string) error {
	if o.path == "" {
		return ErrNoOutput
	}

	if strings.ContainsAny(value, "\r\n") {
		return errors.Errorf("output %s: multi-line values are not supported", key)
	}

	f, err := os.OpenFile(o.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening pipeline output")
	}

	defer f.Close()

	_, err = fmt.Fprintf(f, "%s=%s\n", key, value)
	if err != nil {
		return errors.Wrapf(err, "writing pipeline output")
	}

	return f.Close()
}

// SetBool appends key=true or key=false.
func (o *Output) SetBool(key string, v bool) error {
	if v {
		return o.Set(key, "true")
	}

	return o.Set(key, "false")
}

// Annotator prints workflow commands that the pipeline renders as
// annotations on the run.
type Annotator struct {
	W     io.Writer
	Title string
}

func (a *Annotator) Warning(format string, args ...interface{}) {
	a.emit("warning", fmt.Sprintf(format, args...))
}

func (a *Annotator) Error(format string, args ...interface{}) {
	a.emit("error", fmt.Sprintf(format, args...))
}

func (a *Annotator) emit(level, msg string) {
	w := a.W
	if w == nil {
		w = os.Stdout
	}

	props := ""
	if a.Title != "" {
		props = " title=" + escapeProperty(a.Title)
	}

	fmt.Fprintf(w, "::%s%s::%s\n", level, props, escapeData(msg))
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
