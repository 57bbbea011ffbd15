package main

import (
	"context"
	"log"
	"os"

	"github.com/mitchellh/cli"
	"lab47.dev/hfsci/pkg/cmd"
)

func main() {
	c := cli.NewCLI("hfsci", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"select-build": func() (cli.Command, error) {
			return cmd.New(
				"select-build",
				"Select the newest build available on all platforms",
				selectBuildF,
			), nil
		},
		"install": func() (cli.Command, error) {
			return cmd.New(
				"install",
				"Download and install a build, reusing an existing install",
				installF,
			), nil
		},
		"is-installed": func() (cli.Command, error) {
			return cmd.New(
				"is-installed",
				"Report whether a build still needs to be installed",
				isInstalledF,
			), nil
		},
		"build-matrix": func() (cli.Command, error) {
			return cmd.New(
				"build-matrix",
				"Generate the job matrix for the pipeline",
				buildMatrixF,
			), nil
		},
		"list-builds": func() (cli.Command, error) {
			return cmd.New(
				"list-builds",
				"List builds available on all platforms",
				listBuildsF,
			), nil
		},
		"env": func() (cli.Command, error) {
			return cmd.New(
				"env",
				"Output the detected host and effective settings",
				envF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}

type QueryOptions struct {
	LogOptions

	Product    string   `long:"product" description:"product to query" default:"houdini"`
	Version    string   `long:"version" description:"version within which to find builds" required:"true"`
	Platforms  []string `long:"platform" description:"vendor platform the build must exist on, repeatable" required:"true"`
	AllowDaily bool     `long:"allow-daily" description:"consider daily builds, not only production ones"`
}

func selectBuildF(ctx context.Context, opts QueryOptions) error {
	a, err := setup(ctx, opts.LogOptions)
	if err != nil {
		return err
	}

	sel, err := a.buildSelect(opts.Verbose)
	if err != nil {
		return err
	}

	_, err = sel.Select(ctx, opts.Product, opts.Version, opts.Platforms, opts.AllowDaily)
	return err
}

func listBuildsF(ctx context.Context, opts QueryOptions) error {
	a, err := setup(ctx, opts.LogOptions)
	if err != nil {
		return err
	}

	bl, err := a.buildList(opts.Verbose)
	if err != nil {
		return err
	}

	_, err = bl.List(ctx, opts.Product, opts.Version, opts.Platforms, opts.AllowDaily)
	return err
}

type TargetOptions struct {
	LogOptions

	Product     string `long:"product" description:"product to install" default:"houdini"`
	Platform    string `long:"platform" description:"vendor platform to install, detected when omitted"`
	Version     string `long:"version" description:"version to install" required:"true"`
	Build       string `long:"build" description:"build to install" required:"true"`
	InstallPath string `long:"install-path" description:"installation path, must match the computed one" required:"true"`
}

func installF(ctx context.Context, opts struct {
	TargetOptions

	RetryCount int `long:"retry-count" description:"number of installer attempts, 1 to 5" required:"true"`
}) error {
	a, err := setup(ctx, opts.LogOptions)
	if err != nil {
		return err
	}

	inst := a.install()

	plat, err := a.vendorPlatform(ctx, opts.Platform)
	if err != nil {
		return err
	}

	res, err := inst.Run(ctx, installRequest(opts.TargetOptions, plat, opts.RetryCount))
	if err != nil {
		return err
	}

	if res.Skipped {
		a.L.Info("install skipped", "version", opts.Version, "build", opts.Build)
	}

	return nil
}

func isInstalledF(ctx context.Context, opts TargetOptions) error {
	a, err := setup(ctx, opts.LogOptions)
	if err != nil {
		return err
	}

	_, err = a.installCheck().Check(ctx, opts.Product, opts.Version, opts.Build, opts.InstallPath)
	return err
}

func buildMatrixF(ctx context.Context, opts struct {
	LogOptions

	AllPlatforms    bool   `long:"all-platforms" description:"include windows and macOS entries"`
	AllBuilds       bool   `long:"all-builds" description:"include every common build, not only the newest"`
	SpecificVersion string `long:"specific-version" description:"only this version, requires --specific-build"`
	SpecificBuild   string `long:"specific-build" description:"only this build, requires --specific-version"`
	Format          string `long:"format" description:"also print the matrix for humans" choice:"json" choice:"yaml" default:"json"`
}) error {
	a, err := setup(ctx, opts.LogOptions)
	if err != nil {
		return err
	}

	bm, err := a.buildMatrix()
	if err != nil {
		return err
	}

	_, err = bm.Build(ctx, matrixRequest(a.Settings, opts.AllPlatforms, opts.AllBuilds,
		opts.SpecificVersion, opts.SpecificBuild, opts.Format == "yaml"))

	return err
}

func envF(ctx context.Context, opts struct {
	LogOptions
}) error {
	a, err := setup(ctx, opts.LogOptions)
	if err != nil {
		return err
	}

	return a.showEnv(ctx, os.Stdout, opts.Trace)
}
