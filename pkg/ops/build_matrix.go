package ops

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"lab47.dev/hfsci/pkg/ghoutput"
	"lab47.dev/hfsci/pkg/matrix"
)

// MatrixOutputName is the pipeline variable the matrix is published as.
const MatrixOutputName = "build_matrix"

type MatrixRequest struct {
	Product   string
	Versions  []string
	Platforms []string

	AllPlatforms bool
	AllBuilds    bool

	// SpecificVersion and SpecificBuild pin the matrix to one build. They
	// are only valid together, and allow daily builds.
	SpecificVersion string
	SpecificBuild   string

	// YAML also prints the matrix to the UI for people reading the log.
	YAML bool
}

type BuildMatrix struct {
	common

	Query  *BuildQuery
	Output *ghoutput.Output
}

func (m *BuildMatrix) Build(ctx context.Context, req MatrixRequest) (*matrix.Matrix, error) {
	switch {
	case req.SpecificBuild != "" && req.SpecificVersion == "":
		return nil, configErr("specific-version", "when specifying a specific build, a specific version must also be specified")
	case req.SpecificVersion != "" && req.SpecificBuild == "":
		return nil, configErr("specific-build", "when specifying a specific version, a specific build must also be specified")
	}

	versions := req.Versions
	if req.SpecificVersion != "" {
		versions = []string{req.SpecificVersion}
	}

	if len(versions) == 0 {
		return nil, configErr("versions", "at least one version is required")
	}

	allowDaily := req.SpecificVersion != ""
	targets := matrix.Targets(req.AllPlatforms)

	mat := &matrix.Matrix{Include: []matrix.Entry{}}

	for _, version := range versions {
		builds, err := m.Query.Query(ctx, req.Product, version, req.Platforms, allowDaily)
		if err != nil {
			return nil, err
		}

		if len(builds) == 0 {
			return nil, track(&VendorDataError{
				Product:  req.Product,
				Version:  version,
				Platform: strings.Join(req.Platforms, ", "),
				Reason:   "no common builds found",
			})
		}

		if req.SpecificBuild != "" {
			if !contains(builds, req.SpecificBuild) {
				return nil, track(&VendorDataError{
					Product:  req.Product,
					Version:  version,
					Platform: strings.Join(req.Platforms, ", "),
					Build:    req.SpecificBuild,
					Reason:   "requested build is not available on all platforms",
				})
			}

			builds = []string{req.SpecificBuild}
		}

		if !req.AllBuilds {
			builds = builds[:1]
		}

		m.L().Debug("adding builds to matrix", "version", version, "builds", builds, "targets", len(targets))

		err = mat.Add(targets, version, builds)
		if err != nil {
			return nil, track(err)
		}
	}

	data, err := json.Marshal(mat)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding build matrix")
	}

	err = publish(m.Output, MatrixOutputName, string(data))
	if err != nil {
		return nil, err
	}

	ui := GetUI(ctx)

	if req.YAML {
		out, err := yaml.Marshal(mat)
		if err != nil {
			return nil, errors.Wrapf(err, "rendering build matrix")
		}

		ui.Printf("%s", out)
	}

	ui.Printf("Build matrix has %d entries\n", len(mat.Include))

	return mat, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
