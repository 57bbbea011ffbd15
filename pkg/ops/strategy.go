package ops

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-getter"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/hfsci/pkg/platform"
)

// EULADate is the license agreement revision the silent installers are
// told we accept.
const EULADate = "2021-10-13"

// InstallStrategy turns a verified artifact into an installation. Prepare
// and Cleanup run once; Attempt is what the retry loop repeats.
type InstallStrategy interface {
	Prepare(ctx context.Context, artifact string) error
	Attempt(ctx context.Context, installPath string) error
	Cleanup(ctx context.Context) error
}

type strategyEnv struct {
	L       hclog.Logger
	UI      *UI
	Runner  Runner
	Product string
	WorkDir string
	Timeout time.Duration
}

var strategies = map[platform.Strategy]func(env strategyEnv) InstallStrategy{
	platform.Tarball: func(env strategyEnv) InstallStrategy {
		return &tarballStrategy{env: env}
	},
	platform.DiskImage: func(env strategyEnv) InstallStrategy {
		return &diskImageStrategy{
			env:        env,
			MountPoint: "/Volumes/Houdini",
			Package:    "Houdini.pkg",
		}
	},
	platform.SilentExe: func(env strategyEnv) InstallStrategy {
		return &silentExeStrategy{env: env, Tolerate: HDKMarkerPolicy}
	},
}

func newStrategy(s platform.Strategy, env strategyEnv) (InstallStrategy, error) {
	f, ok := strategies[s]
	if !ok {
		return nil, configErr("platform", "no install strategy %q", s)
	}

	return f(env), nil
}

func runChecked(ctx context.Context, r Runner, cmd Command) error {
	code, err := r.Run(ctx, cmd)
	if err != nil {
		return err
	}

	if code != 0 {
		return fmt.Errorf("%s exited with code %d", cmd.Name, code)
	}

	return nil
}

// tarballStrategy unpacks the archive and runs the bundled install script
// with every optional component switched off.
type tarballStrategy struct {
	env strategyEnv

	unpackDir string
	script    string
}

var tarballInstallFlags = []string{
	"--install-houdini",
	"--no-install-engine-maya",
	"--no-install-engine-unity",
	"--no-install-engine-unreal",
	"--no-install-menus",
	"--no-install-hfs-symlink",
	"--no-install-license",
	"--no-install-avahi",
	"--no-install-sidefxlabs",
	"--no-install-hqueue-server",
	"--no-install-hqueue-client",
	"--auto-install",
	"--make-dir",
	"--accept-EULA", EULADate,
}

func (t *tarballStrategy) Prepare(ctx context.Context, artifact string) error {
	dec, ok := getter.Decompressors["tar.gz"]
	if !ok {
		return fmt.Errorf("no tar.gz decompressor available")
	}

	t.unpackDir = filepath.Join(t.env.WorkDir, filepath.Base(artifact)+".d")

	if err := os.RemoveAll(t.unpackDir); err != nil {
		t.env.L.Debug("unable to clear unpack dir", "dir", t.unpackDir, "error", err)
	}

	t.env.L.Debug("unpacking artifact", "artifact", artifact, "dir", t.unpackDir)

	err := dec.Decompress(t.unpackDir, artifact, true, 0)
	if err != nil {
		return errors.Wrapf(err, "unpacking %s", artifact)
	}

	dir, err := findPrefixedDir(t.unpackDir, t.env.Product+"-")
	if err != nil {
		return err
	}

	t.script = filepath.Join(dir, t.env.Product+".install")

	err = os.Chmod(t.script, 0755)
	if err != nil {
		return errors.Wrapf(err, "making installer executable")
	}

	return nil
}

func findPrefixedDir(root, prefix string) (string, error) {
	entries, err := ioutil.ReadDir(root)
	if err != nil {
		return "", err
	}

	for _, ent := range entries {
		if ent.IsDir() && strings.HasPrefix(ent.Name(), prefix) {
			return filepath.Join(root, ent.Name()), nil
		}
	}

	return "", fmt.Errorf("archive did not contain a %s* directory", prefix)
}

func (t *tarballStrategy) Attempt(ctx context.Context, installPath string) error {
	args := append(append([]string(nil), tarballInstallFlags...), installPath)

	return runChecked(ctx, t.env.Runner, Command{
		Name:    t.script,
		Args:    args,
		Timeout: t.env.Timeout,
	})
}

func (t *tarballStrategy) Cleanup(ctx context.Context) error {
	if t.unpackDir == "" {
		return nil
	}

	return os.RemoveAll(t.unpackDir)
}

// diskImageStrategy mounts the image and runs the system package installer
// on the package inside it.
type diskImageStrategy struct {
	env strategyEnv

	MountPoint string
	Package    string

	mounted bool
}

func (d *diskImageStrategy) Prepare(ctx context.Context, artifact string) error {
	err := runChecked(ctx, d.env.Runner, Command{
		Name: "hdiutil",
		Args: []string{"attach", artifact},
	})
	if err != nil {
		return errors.Wrapf(err, "mounting %s", artifact)
	}

	d.mounted = true

	return nil
}

func (d *diskImageStrategy) Attempt(ctx context.Context, installPath string) error {
	return runChecked(ctx, d.env.Runner, Command{
		Name:    "sudo",
		Args:    []string{"installer", "-pkg", d.MountPoint + "/" + d.Package, "-target", "/"},
		Timeout: d.env.Timeout,
	})
}

// DetachTimeout bounds unmounting the disk image.
const DetachTimeout = time.Minute

// Cleanup detaches the image even when ctx is already cancelled, so an
// interrupted install does not leave it mounted.
func (d *diskImageStrategy) Cleanup(ctx context.Context) error {
	if !d.mounted {
		return nil
	}

	err := runChecked(context.Background(), d.env.Runner, Command{
		Name:    "hdiutil",
		Args:    []string{"detach", d.MountPoint},
		Timeout: DetachTimeout,
	})
	if err != nil {
		return errors.Wrapf(err, "unmounting %s", d.MountPoint)
	}

	d.mounted = false

	return nil
}

// ExitPolicy decides whether a failing installer exit code can be ignored
// because the installation is known to be complete anyway. It returns a
// description of the evidence when it tolerates the failure.
type ExitPolicy func(installPath string, code int) (bool, string)

// HDKMarkerPolicy tolerates a failing exit code from the Windows installer
// when the HDK version file is present. That installer is known to report
// failure on installs that actually completed.
func HDKMarkerPolicy(installPath string, code int) (bool, string) {
	marker := filepath.Join(installPath, "toolkit", "hdk_api_version.txt")

	if _, err := os.Stat(marker); err != nil {
		return false, ""
	}

	return true, "found " + marker
}

// silentExeStrategy runs the vendor's self-extracting installer.
type silentExeStrategy struct {
	env strategyEnv

	Tolerate ExitPolicy

	artifact string
}

func (s *silentExeStrategy) Prepare(ctx context.Context, artifact string) error {
	s.artifact = artifact
	return nil
}

func (s *silentExeStrategy) Attempt(ctx context.Context, installPath string) error {
	code, err := s.env.Runner.Run(ctx, Command{
		Name:    s.artifact,
		Args:    []string{"/S", "/InstallDir=" + installPath, "/acceptEULA=" + EULADate},
		Timeout: s.env.Timeout,
	})
	if err != nil {
		return err
	}

	if code == 0 {
		return nil
	}

	s.env.L.Warn("installer exited non-zero, checking installation", "code", code)

	if s.Tolerate != nil {
		if ok, evidence := s.Tolerate(installPath, code); ok {
			s.env.UI.Warning("installer failed with exit code %d, but installation seems fine (%s)", code, evidence)
			return nil
		}
	}

	return fmt.Errorf("installer exited with code %d", code)
}

func (s *silentExeStrategy) Cleanup(ctx context.Context) error {
	return nil
}
