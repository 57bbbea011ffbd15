package ops

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"lab47.dev/hfsci/pkg/platform"
	"lab47.dev/hfsci/pkg/sesiweb"
	"lab47.dev/hfsci/pkg/state"
)

const (
	MinRetries = 1
	MaxRetries = 5
)

type InstallRequest struct {
	Product     string
	Platform    string
	Version     string
	Build       string
	InstallPath string
	Retries     int
}

type InstallResult struct {
	// Skipped is set when the requested build was already installed.
	Skipped bool

	// Replaced is the build that was removed to make room, if any.
	Replaced string

	Build sesiweb.Build
}

// Install makes sure exactly one build of a version is installed at its
// expected path, and records it.
type Install struct {
	common

	Service BuildService

	// Connect builds Service on first use when it is nil. Local checks and
	// the already-installed case never need it.
	Connect func() (BuildService, error)

	Download *ArtifactDownload
	Runner   Runner
	Host     *platform.Host

	// WorkDir holds the artifact while it is installed.
	WorkDir string

	// Timeout bounds each installer attempt.
	Timeout time.Duration
}

// CheckInstallPath recomputes the install path and compares it with the one
// the pipeline handed us. The pipeline uses the path on its own as well, so
// disagreeing about it would mean removing or caching the wrong directory.
func CheckInstallPath(h *platform.Host, version, build, given string) error {
	expected := h.InstallPath(version, build)
	if expected != given {
		return configErr("install-path", "provided install path %s does not match expected path %s", given, expected)
	}

	return nil
}

func (i *Install) Run(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	if req.Retries < MinRetries || req.Retries > MaxRetries {
		return nil, configErr("retry-count", "retry count %d is out of range, must be between %d and %d",
			req.Retries, MinRetries, MaxRetries)
	}

	err := CheckInstallPath(i.Host, req.Version, req.Build, req.InstallPath)
	if err != nil {
		return nil, err
	}

	ui := GetUI(ctx)
	log := i.L().With("product", req.Product, "version", req.Version, "build", req.Build)

	statePath, err := i.Host.StatePath(req.Product, req.Version)
	if err != nil {
		return nil, track(err)
	}

	record := state.Open(statePath)

	cached, err := record.Build()
	if err != nil {
		return nil, err
	}

	var res InstallResult

	switch cached {
	case req.Build:
		ui.Printf("%s %s.%s is already installed\n", req.Product, req.Version, req.Build)

		if _, err := os.Stat(req.InstallPath); err == nil {
			ui.Printf("Skipping installation\n")
			res.Skipped = true
			return &res, nil
		}

		ui.Printf("Installation path %s does not exist, installation may be corrupted, proceeding with fresh install\n", req.InstallPath)
	case "":
		ui.Printf("Didn't detect installed %s %s, proceeding with fresh install\n", req.Product, req.Version)
	default:
		ui.Printf("Previously installed version was %s.%s but %s.%s is requested, overwriting\n",
			req.Version, cached, req.Version, req.Build)

		err = record.Remove()
		if err != nil {
			return nil, err
		}

		old := i.Host.InstallPath(req.Version, cached)

		log.Info("removing previous installation", "path", old, "previous-build", cached)

		err = os.RemoveAll(old)
		if err != nil {
			return nil, errors.Wrapf(err, "removing previous installation %s", old)
		}

		res.Replaced = cached
	}

	svc, err := i.service()
	if err != nil {
		return nil, err
	}

	build, err := resolveBuild(ctx, svc, req)
	if err != nil {
		return nil, err
	}

	res.Build = build

	dl, err := svc.BuildDownload(ctx, build)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving download for %s %s", req.Product, build.FullVersion())
	}

	ui.Installing(req.Product, build)

	workDir := i.WorkDir
	if workDir == "" {
		workDir = "."
	}

	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving work dir")
	}

	artifact, err := i.Download.Fetch(ctx, dl, workDir)
	if err != nil {
		return nil, err
	}

	ui.Downloaded(dl)

	err = i.installArtifact(ctx, req, artifact, workDir)
	if err != nil {
		return nil, err
	}

	ui.Printf("Install succeeded, cleaning up\n")

	err = os.Remove(artifact)
	if err != nil {
		log.Warn("unable to remove artifact", "path", artifact, "error", err)
	}

	err = record.Write(req.Build)
	if err != nil {
		return nil, err
	}

	ui.Printf("Installation of %s %s complete\n", req.Product, build.FullVersion())

	return &res, nil
}

func (i *Install) service() (BuildService, error) {
	if i.Service != nil {
		return i.Service, nil
	}

	if i.Connect == nil {
		return nil, configErr("secrets", "no vendor service configured")
	}

	svc, err := i.Connect()
	if err != nil {
		return nil, err
	}

	i.Service = svc

	return svc, nil
}

// resolveBuild finds the exact build, daily builds included.
func resolveBuild(ctx context.Context, svc BuildService, req InstallRequest) (sesiweb.Build, error) {
	sel := sesiweb.Selection{Product: req.Product, Version: req.Version, Platform: req.Platform}

	builds, err := svc.LatestBuilds(ctx, sel, false)
	if err != nil {
		return sesiweb.Build{}, errors.Wrapf(err, "listing builds for %s %s on %s", req.Product, req.Version, req.Platform)
	}

	for _, b := range builds {
		if b.Build.String() == req.Build {
			return b, nil
		}
	}

	return sesiweb.Build{}, track(&VendorDataError{
		Product:  req.Product,
		Version:  req.Version,
		Platform: req.Platform,
		Build:    req.Build,
		Reason:   "no build found",
	})
}

func (i *Install) installArtifact(ctx context.Context, req InstallRequest, artifact, workDir string) error {
	ui := GetUI(ctx)
	log := i.L().Named("installer")

	strat, err := newStrategy(i.Host.Strategy, strategyEnv{
		L:       log,
		UI:      ui,
		Runner:  i.Runner,
		Product: req.Product,
		WorkDir: workDir,
		Timeout: i.Timeout,
	})
	if err != nil {
		return err
	}

	ui.Printf("Starting install\n")

	err = strat.Prepare(ctx, artifact)
	if err != nil {
		strat.Cleanup(ctx)
		return err
	}

	var (
		lastErr  error
		attempts int
	)

	for attempt := 1; attempt <= req.Retries; attempt++ {
		attempts = attempt

		lastErr = strat.Attempt(ctx, req.InstallPath)
		if lastErr == nil {
			ui.Printf("Installation succeeded\n")
			break
		}

		ui.Printf("Installation attempt %d failed: %s\n", attempt, lastErr)
		log.Error("installation attempt failed", "attempt", attempt, "error", lastErr)

		if ctx.Err() != nil {
			break
		}

		if attempt < req.Retries {
			ui.Warning("%s installer failed: %s, retrying... (%d/%d)", req.Product, lastErr, attempt, req.Retries)
		}
	}

	if lastErr != nil {
		if cerr := strat.Cleanup(ctx); cerr != nil {
			log.Error("cleanup after failed install", "error", cerr)
		}

		return track(&InstallError{Attempts: attempts, Last: lastErr})
	}

	return track(strat.Cleanup(ctx))
}
