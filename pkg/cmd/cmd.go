package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"

	"github.com/jessevdk/go-flags"
	"lab47.dev/hfsci/pkg/ghoutput"
	"lab47.dev/hfsci/pkg/progress"
)

// Cmd adapts a func(ctx, opts) error to a cli.Command. The fields of opts
// are parsed as flags with go-flags struct tags.
type Cmd struct {
	syn, name string
	f         reflect.Value

	opts   reflect.Value
	parser *flags.Parser

	// Stdout receives the error report. Defaults to os.Stdout.
	Stdout io.Writer
}

func New(name, syn string, f interface{}) *Cmd {
	rv := reflect.ValueOf(f)

	if rv.Kind() != reflect.Func {
		panic("must pass a function")
	}

	rt := rv.Type()

	if rt.NumIn() != 2 {
		panic("must provide two arguments only")
	}

	if rt.NumOut() != 1 {
		panic("must return one argument only")
	}

	in := rt.In(1)

	if in.Kind() != reflect.Struct {
		panic("argument must be a struct")
	}

	sv := reflect.New(in)

	parser := flags.NewNamedParser(name, flags.Default)
	parser.ShortDescription = syn
	parser.LongDescription = syn

	_, err := parser.AddGroup("Application Options", "", sv.Interface())
	if err != nil {
		panic(err)
	}

	return &Cmd{
		syn:    syn,
		name:   name,
		f:      rv,
		opts:   sv,
		parser: parser,
	}
}

func (w *Cmd) Help() string {
	var buf bytes.Buffer
	w.parser.WriteHelp(&buf)
	return buf.String()
}

func (w *Cmd) Synopsis() string {
	return w.syn
}

func (w *Cmd) Run(args []string) int {
	_, err := w.parser.ParseArgs(args)
	if err != nil {
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := cancelOnSignal(cancel, shutdownSignals...)
	defer stop()

	ctx = progress.OpenTerminal(ctx, os.Stderr)

	return w.invoke(ctx)
}

func (w *Cmd) invoke(ctx context.Context) int {
	rets := w.f.Call([]reflect.Value{reflect.ValueOf(ctx), w.opts.Elem()})

	err, _ := rets[0].Interface().(error)
	if err == nil {
		return 0
	}

	out := w.Stdout
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, "! Error: %+v\n", err)

	// Surface the failure on the run summary as well as in the log.
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		notes := ghoutput.Annotator{W: out, Title: w.name}
		notes.Error("%s", err)
	}

	return 1
}

func cancelOnSignal(cancel func(), signals ...os.Signal) func() {
	c := make(chan os.Signal, 2)
	signal.Notify(c, signals...)

	go func() {
		for range c {
			cancel()
		}
	}()

	return func() {
		signal.Stop(c)
		close(c)
	}
}
