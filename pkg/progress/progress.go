package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	pb "github.com/schollz/progressbar/v3"
)

type pbVal struct {
	w io.Writer
}

type pbKey struct{}

// Open enables progress bars on w for operations run with the returned
// context.
func Open(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, pbKey{}, pbVal{w})
}

// OpenTerminal is Open, but only when f is an interactive terminal. CI
// logs are not, and a redrawn bar there is just noise.
func OpenTerminal(ctx context.Context, f *os.File) context.Context {
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return ctx
	}

	return Open(ctx, f)
}

type Progress struct {
	bar *pb.ProgressBar
}

// Write counts len(b) bytes, so a Progress can sit in an io.MultiWriter.
func (t *Progress) Write(b []byte) (int, error) {
	if t.bar != nil {
		t.bar.Add(len(b))
	}

	return len(b), nil
}

func (t *Progress) Close() {
	if t.bar == nil {
		return
	}

	t.bar.Finish()
}

// Bytes returns a byte counting bar for a transfer of total bytes. Without
// an opened context it does nothing.
func Bytes(ctx context.Context, total int64, desc string) *Progress {
	h := ctx.Value(pbKey{})
	if h == nil {
		return &Progress{}
	}

	val := h.(pbVal)

	bar := pb.NewOptions64(
		total,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(val.w),
		pb.OptionSetWidth(30),
		pb.OptionThrottle(250*time.Millisecond),
		pb.OptionShowBytes(true),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(val.w, "\n")
		}),
	)
	bar.RenderBlank()

	return &Progress{bar: bar}
}
