package ops

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"lab47.dev/hfsci/pkg/ghoutput"
	"lab47.dev/hfsci/pkg/sesiweb"
)

type listCall struct {
	sel            sesiweb.Selection
	onlyProduction bool
}

// fakeService serves build lists keyed by platform.
type fakeService struct {
	builds   map[string][]string
	download *sesiweb.Download

	lists     []listCall
	downloads []sesiweb.Build
}

func (f *fakeService) LatestBuilds(ctx context.Context, sel sesiweb.Selection, onlyProduction bool) ([]sesiweb.Build, error) {
	f.lists = append(f.lists, listCall{sel: sel, onlyProduction: onlyProduction})

	var out []sesiweb.Build

	for _, num := range f.builds[sel.Platform] {
		out = append(out, sesiweb.Build{
			Product:  sel.Product,
			Version:  sel.Version,
			Platform: sel.Platform,
			Build:    sesiweb.BuildNumber(num),
		})
	}

	return out, nil
}

func (f *fakeService) BuildDownload(ctx context.Context, b sesiweb.Build) (*sesiweb.Download, error) {
	f.downloads = append(f.downloads, b)
	return f.download, nil
}

func (f *fakeService) calls() int {
	return len(f.lists) + len(f.downloads)
}

// fakeRunner returns the queued exit codes in order, repeating the last.
type fakeRunner struct {
	codes []int
	onRun func(Command)

	ran     []Command
	ctxErrs []error
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) (int, error) {
	f.ran = append(f.ran, cmd)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())

	if f.onRun != nil {
		f.onRun(cmd)
	}

	if len(f.codes) == 0 {
		return 0, nil
	}

	code := f.codes[0]
	if len(f.codes) > 1 {
		f.codes = f.codes[1:]
	}

	return code, nil
}

func testUI() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	return WithUI(context.Background(), NewUI(&buf)), &buf
}

func testOutput(t *testing.T) (*ghoutput.Output, func() string) {
	path := filepath.Join(t.TempDir(), "output")

	return ghoutput.Open(path), func() string {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return ""
		}

		return string(data)
	}
}

func requireKind(t *testing.T, err error, target interface{}) {
	t.Helper()
	require.Error(t, err)
	require.ErrorAs(t, err, target)
}
