package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"lab47.dev/hfsci/pkg/config"
	"lab47.dev/hfsci/pkg/ghoutput"
	"lab47.dev/hfsci/pkg/ops"
	"lab47.dev/hfsci/pkg/platform"
)

type LogOptions struct {
	Verbose bool `short:"v" long:"verbose" description:"explain what is being done"`
	Trace   bool `long:"trace" description:"log in trace mode"`
}

func (o LogOptions) level() hclog.Level {
	switch {
	case o.Trace:
		return hclog.Trace
	case o.Verbose:
		return hclog.Debug
	default:
		return hclog.Warn
	}
}

// app carries what every command builds from the environment.
type app struct {
	L        hclog.Logger
	Settings *config.Settings
	Host     *platform.Host
	Output   *ghoutput.Output
}

func setup(ctx context.Context, opts LogOptions) (*app, error) {
	L := hclog.New(&hclog.LoggerOptions{
		Name:  "hfsci",
		Level: opts.level(),
	})

	hclog.SetDefault(L)

	s, err := config.Load()
	if err != nil {
		return nil, err
	}

	host, err := platform.Current()
	if err != nil {
		return nil, err
	}

	if s.StateDir != "" {
		host = host.WithStateDir(s.StateDir)
	}

	return &app{
		L:        L,
		Settings: s,
		Host:     host,
		Output:   ghoutput.Open(s.OutputPath),
	}, nil
}

func (a *app) query(verbose bool) (*ops.BuildQuery, error) {
	client, err := ops.Connect(a.Settings, a.L)
	if err != nil {
		return nil, err
	}

	q := &ops.BuildQuery{Service: client, Verbose: verbose}
	ops.Attach(a.L, map[string]ops.Logged{"query": q})

	return q, nil
}

func (a *app) buildSelect(verbose bool) (*ops.BuildSelect, error) {
	q, err := a.query(verbose)
	if err != nil {
		return nil, err
	}

	sel := &ops.BuildSelect{Query: q, Output: a.Output}
	ops.Attach(a.L, map[string]ops.Logged{"select": sel})

	return sel, nil
}

func (a *app) buildList(verbose bool) (*ops.BuildList, error) {
	q, err := a.query(verbose)
	if err != nil {
		return nil, err
	}

	bl := &ops.BuildList{Query: q}
	ops.Attach(a.L, map[string]ops.Logged{"list": bl})

	return bl, nil
}

func (a *app) buildMatrix() (*ops.BuildMatrix, error) {
	q, err := a.query(false)
	if err != nil {
		return nil, err
	}

	bm := &ops.BuildMatrix{Query: q, Output: a.Output}
	ops.Attach(a.L, map[string]ops.Logged{"matrix": bm})

	return bm, nil
}

func matrixRequest(s *config.Settings, allPlatforms, allBuilds bool, version, build string, yaml bool) ops.MatrixRequest {
	return ops.MatrixRequest{
		Product:         s.Product,
		Versions:        s.Versions,
		Platforms:       s.Platforms,
		AllPlatforms:    allPlatforms,
		AllBuilds:       allBuilds,
		SpecificVersion: version,
		SpecificBuild:   build,
		YAML:            yaml,
	}
}

func (a *app) install() *ops.Install {
	dl := &ops.ArtifactDownload{}

	inst := &ops.Install{
		Connect:  a.connect,
		Download: dl,
		Runner:   &ops.ExecRunner{L: a.L.Named("exec")},
		Host:     a.Host,
		WorkDir:  a.Settings.WorkDir,
		Timeout:  time.Duration(a.Settings.InstallTimeout),
	}
	ops.Attach(a.L, map[string]ops.Logged{
		"download": dl,
		"install":  inst,
	})

	return inst
}

// connect defers the credential check until the vendor is actually needed.
func (a *app) connect() (ops.BuildService, error) {
	client, err := ops.Connect(a.Settings, a.L)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func installRequest(opts TargetOptions, plat string, retries int) ops.InstallRequest {
	return ops.InstallRequest{
		Product:     opts.Product,
		Platform:    plat,
		Version:     opts.Version,
		Build:       opts.Build,
		InstallPath: opts.InstallPath,
		Retries:     retries,
	}
}

func (a *app) installCheck() *ops.InstallCheck {
	c := &ops.InstallCheck{Host: a.Host, Output: a.Output}
	ops.Attach(a.L, map[string]ops.Logged{"check": c})

	return c
}

// vendorPlatform returns given, or the platform of this machine.
func (a *app) vendorPlatform(ctx context.Context, given string) (string, error) {
	if given != "" {
		return given, nil
	}

	info := platform.Detect(ctx)

	plat, err := info.VendorPlatform()
	if err != nil {
		return "", err
	}

	a.L.Debug("detected platform", "host", info.String(), "platform", plat)

	return plat, nil
}

func (a *app) showEnv(ctx context.Context, w io.Writer, dump bool) error {
	info := platform.Detect(ctx)

	plat, err := info.VendorPlatform()
	if err != nil {
		plat = err.Error()
	}

	statePath, err := a.Host.StatePath(a.Settings.Product, "<version>")
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 4, 2, 1, ' ', 0)

	fmt.Fprintf(tw, "Host:\t%s\n", info)
	fmt.Fprintf(tw, "Vendor Platform:\t%s\n", plat)
	fmt.Fprintf(tw, "Install Strategy:\t%s\n", a.Host.Strategy)
	fmt.Fprintf(tw, "Install Path:\t%s\n", a.Host.InstallPath("<version>", "<build>"))
	fmt.Fprintf(tw, "Install Record:\t%s\n", statePath)
	fmt.Fprintf(tw, "Product:\t%s\n", a.Settings.Product)
	fmt.Fprintf(tw, "Versions:\t%v\n", a.Settings.Versions)
	fmt.Fprintf(tw, "Platforms:\t%v\n", a.Settings.Platforms)
	fmt.Fprintf(tw, "Output File:\t%s\n", a.Output.Path())

	if missing := a.Settings.MissingSecrets(); len(missing) > 0 {
		fmt.Fprintf(tw, "Missing Secrets:\t%v\n", missing)
	}

	err = tw.Flush()
	if err != nil {
		return err
	}

	if dump {
		// Credentials are excluded from the dump.
		cp := *a.Settings
		cp.ClientID, cp.ClientSecret = "", ""

		spew.Fdump(w, cp, *a.Host)
	}

	return nil
}
