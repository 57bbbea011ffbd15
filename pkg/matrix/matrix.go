// Package matrix lays out the pipeline job matrix: one entry per target
// operating system and product build, carrying the fields the downstream
// jobs need to configure themselves.
package matrix

import (
	"encoding/json"
	"fmt"

	"lab47.dev/hfsci/pkg/platform"
)

// Labels selects a runner. A single label is written as a plain string.
type Labels []string

func (l Labels) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}

	return json.Marshal([]string(l))
}

func (l Labels) MarshalYAML() (interface{}, error) {
	if len(l) == 1 {
		return l[0], nil
	}

	return []string(l), nil
}

// Optional is a string written as null when empty.
type Optional string

func (o Optional) MarshalJSON() ([]byte, error) {
	if o == "" {
		return []byte("null"), nil
	}

	return json.Marshal(string(o))
}

func (o Optional) MarshalYAML() (interface{}, error) {
	if o == "" {
		return nil, nil
	}

	return string(o), nil
}

type Entry struct {
	Name                string   `json:"name" yaml:"name"`
	Runner              Labels   `json:"runner" yaml:"runner"`
	Generator           string   `json:"generator" yaml:"generator"`
	ExecutableExtension Optional `json:"executable-extension" yaml:"executable-extension"`
	Version             string   `json:"houdini-version" yaml:"houdini-version"`
	Build               string   `json:"houdini-build" yaml:"houdini-build"`
	Platform            string   `json:"houdini-platform" yaml:"houdini-platform"`
	InstallPath         string   `json:"houdini-install-path" yaml:"houdini-install-path"`
	HFSPath             string   `json:"hfs-path" yaml:"hfs-path"`
	PythonCommand       string   `json:"python-command" yaml:"python-command"`
	VenvActivatePath    string   `json:"python-venv-activate-path" yaml:"python-venv-activate-path"`
	ConfigArgs          Optional `json:"additional-config-args" yaml:"additional-config-args"`
}

type Matrix struct {
	Include []Entry `json:"include" yaml:"include"`
}

// Target is one OS and architecture the pipeline builds on.
type Target struct {
	Label    string
	Platform string

	// OS selects the platform.Host that decides install paths, so the
	// matrix and the installer always agree on them.
	OS string

	Runner              Labels
	Generator           string
	ExecutableExtension string
	PythonCommand       string
	VenvActivatePath    string
	ConfigArgs          string
}

// Primary is built for every matrix; the rest only on request.
var Primary = Target{
	Label:            "Linux x64",
	Platform:         "linux_x86_64_gcc11.2",
	OS:               "linux",
	Runner:           Labels{"self-hosted", "Linux", "X64", "houdini"},
	Generator:        "Ninja Multi-Config",
	PythonCommand:    "python3",
	VenvActivatePath: "bin/Activate.ps1",
}

var Secondary = []Target{
	{
		Label:               "Windows x64",
		Platform:            "win64-vc143",
		OS:                  "windows",
		Runner:              Labels{"windows-latest"},
		Generator:           "Visual Studio 17 2022",
		ExecutableExtension: ".exe",
		PythonCommand:       "python",
		VenvActivatePath:    "Scripts/Activate.ps1",
	},
	{
		Label:            "macOS x64",
		Platform:         "macosx_x86_64",
		OS:               "darwin",
		Runner:           Labels{"macos-14"},
		Generator:        "Xcode",
		PythonCommand:    "python3",
		VenvActivatePath: "bin/Activate.ps1",
		ConfigArgs:       "-DCMAKE_OSX_ARCHITECTURES=x86_64",
	},
	{
		Label:            "macOS arm64",
		Platform:         "macosx_arm64",
		OS:               "darwin",
		Runner:           Labels{"macos-14"},
		Generator:        "Xcode",
		PythonCommand:    "python3",
		VenvActivatePath: "bin/Activate.ps1",
		ConfigArgs:       "-DCMAKE_OSX_ARCHITECTURES=arm64",
	},
}

// Targets returns the primary target, followed by the others when all is
// set.
func Targets(all bool) []Target {
	ts := []Target{Primary}
	if all {
		ts = append(ts, Secondary...)
	}

	return ts
}

func (t Target) Entry(version, build string) (Entry, error) {
	h, err := platform.Lookup(t.OS)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Name:                fmt.Sprintf("%s %s.%s", t.Label, version, build),
		Runner:              t.Runner,
		Generator:           t.Generator,
		ExecutableExtension: Optional(t.ExecutableExtension),
		Version:             version,
		Build:               build,
		Platform:            t.Platform,
		InstallPath:         h.InstallPath(version, build),
		HFSPath:             h.HFSPath(version, build),
		PythonCommand:       t.PythonCommand,
		VenvActivatePath:    t.VenvActivatePath,
		ConfigArgs:          Optional(t.ConfigArgs),
	}, nil
}

// Add appends an entry for every target for each of builds.
func (m *Matrix) Add(targets []Target, version string, builds []string) error {
	for _, b := range builds {
		for _, t := range targets {
			e, err := t.Entry(version, b)
			if err != nil {
				return err
			}

			m.Include = append(m.Include, e)
		}
	}

	return nil
}
