package ops

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/morikuni/aec"
	"lab47.dev/hfsci/pkg/ghoutput"
	"lab47.dev/hfsci/pkg/humanize"
	"lab47.dev/hfsci/pkg/sesiweb"
)

// UI prints progress for a human reading the pipeline log.
type UI struct {
	w      io.Writer
	styled bool
	notes  ghoutput.Annotator
}

func NewUI(w io.Writer) *UI {
	ui := &UI{w: w}
	ui.notes.W = w

	if f, ok := w.(*os.File); ok {
		ui.styled = isatty.IsTerminal(f.Fd())
	}

	return ui
}

func (u *UI) out() io.Writer {
	if u.w == nil {
		return os.Stdout
	}

	return u.w
}

func (u *UI) heading(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if u.styled {
		msg = aec.Bold.Apply(msg)
	}

	fmt.Fprintln(u.out(), msg)
}

func (u *UI) dim(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if u.styled {
		msg = aec.Faint.Apply(msg)
	}

	fmt.Fprintln(u.out(), msg)
}

func (u *UI) Printf(format string, args ...interface{}) {
	fmt.Fprintf(u.out(), format, args...)
}

func (u *UI) QueryPrologue(product, version string) {
	u.heading("Selecting build to use for %s %s", product, version)
}

func (u *UI) ListBuilds(version, platform string, builds []sesiweb.Build) {
	u.heading("Builds available for %s %s:", version, platform)

	for _, b := range builds {
		u.dim("    %s %s", b.FullVersion(), b.Platform)
	}

	fmt.Fprintln(u.out())
}

func (u *UI) Considering(product, version, build string) {
	u.Printf("Considering %s %s.%s\n", product, version, build)
}

func (u *UI) Rejected(product, version, build string) {
	u.dim("%s %s.%s is not available on all platforms", product, version, build)
}

func (u *UI) Selected(product, version, build string) {
	u.heading("Selected build %s %s.%s", product, version, build)
}

func (u *UI) Installing(product string, b sesiweb.Build) {
	u.heading("Installing %s %s for %s...", product, b.FullVersion(), b.Platform)
}

func (u *UI) Downloaded(dl *sesiweb.Download) {
	u.Printf("Download successful (%s)\n", humanize.Bytes(dl.Size))
}

// Warning is shown in the log and raised as a pipeline annotation.
func (u *UI) Warning(format string, args ...interface{}) {
	u.notes.Warning(format, args...)
}

type uiMarker struct{}

// WithUI attaches ui to ctx.
func WithUI(ctx context.Context, ui *UI) context.Context {
	return context.WithValue(ctx, uiMarker{}, ui)
}

func GetUI(ctx context.Context) *UI {
	v := ctx.Value(uiMarker{})
	if v == nil {
		return NewUI(os.Stdout)
	}

	return v.(*UI)
}
