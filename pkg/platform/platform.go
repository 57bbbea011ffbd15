// Package platform describes where and how the product is installed on each
// host operating system. Adding a platform is a matter of adding a Host to
// the table.
package platform

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Strategy names how an artifact is turned into an installation.
type Strategy string

const (
	// Tarball extracts the archive and runs the bundled install script.
	Tarball Strategy = "tarball"

	// DiskImage mounts the image and runs the system package installer.
	DiskImage Strategy = "diskimage"

	// SilentExe runs a self-extracting installer with silent flags.
	SilentExe Strategy = "exe"
)

type Host struct {
	// OS is the runtime.GOOS value the host matches.
	OS string

	// Extension of the vendor artifact for this host.
	Extension string

	Strategy Strategy

	// InstallRoot is the directory installations are created in.
	InstallRoot string

	// InstallName is a format taking version and build.
	InstallName string

	// StateDir holds the install records. It may start with ~. Record
	// paths never leave this process, so they use the native separator.
	StateDir string

	// Separator joins path elements. Install paths are compared as
	// strings with ones handed in by the pipeline, so they are built with
	// the separator of the target rather than the one we run on.
	Separator string

	// HFSSuffix is appended to the install path to locate the product's
	// HFS root, which differs from the install path on some hosts.
	HFSSuffix string
}

// InstallPath returns where version.build is installed on this host.
func (h *Host) InstallPath(version, build string) string {
	return h.InstallRoot + h.Separator + fmt.Sprintf(h.InstallName, version, build)
}

// HFSPath returns the HFS root inside an installation.
func (h *Host) HFSPath(version, build string) string {
	return h.InstallPath(version, build) + h.HFSSuffix
}

// StatePath returns the install record location for version.
func (h *Host) StatePath(product, version string) (string, error) {
	dir, err := homedir.Expand(h.StateDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, fmt.Sprintf("installed_%s_%s.txt", product, version)), nil
}

// Join joins path elements with the host separator.
func (h *Host) Join(elem ...string) string {
	return strings.Join(elem, h.Separator)
}

var Hosts = map[string]*Host{
	"linux": {
		OS:          "linux",
		Extension:   "tar.gz",
		Strategy:    Tarball,
		InstallRoot: "/opt",
		InstallName: "hfs%s.%s",
		StateDir:    "/opt",
		Separator:   "/",
	},
	"darwin": {
		OS:          "darwin",
		Extension:   "dmg",
		Strategy:    DiskImage,
		InstallRoot: "/Applications/Houdini",
		InstallName: "Houdini%s.%s",
		StateDir:    "~/Library/Application Support/ZibraAI",
		Separator:   "/",
		HFSSuffix:   "/Frameworks/Houdini.framework/Versions/Current/Resources",
	},
	"windows": {
		OS:          "windows",
		Extension:   "exe",
		Strategy:    SilentExe,
		InstallRoot: `C:\Houdini`,
		InstallName: "%s.%s",
		StateDir:    "C:/Houdini",
		Separator:   `\`,
	},
}

// ErrUnsupported is returned for operating systems without a Host entry.
type ErrUnsupported struct {
	OS string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.OS)
}

// Lookup returns the Host for the given GOOS value.
func Lookup(goos string) (*Host, error) {
	h, ok := Hosts[goos]
	if !ok {
		return nil, &ErrUnsupported{OS: goos}
	}

	return h, nil
}

// Current returns the Host for the running operating system.
func Current() (*Host, error) {
	return Lookup(runtime.GOOS)
}

// WithStateDir returns a copy of h recording installs in dir.
func (h *Host) WithStateDir(dir string) *Host {
	cp := *h
	cp.StateDir = filepath.Clean(dir)
	return &cp
}

// WithInstallRoot returns a copy of h installing into root.
func (h *Host) WithInstallRoot(root string) *Host {
	cp := *h
	cp.InstallRoot = filepath.Clean(root)
	return &cp
}
