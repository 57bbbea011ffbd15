package ops

import (
	"context"

	"lab47.dev/hfsci/pkg/ghoutput"
	"lab47.dev/hfsci/pkg/platform"
	"lab47.dev/hfsci/pkg/state"
)

// InstallCheck answers whether a build still needs installing. It only
// reads; nothing on disk is changed.
type InstallCheck struct {
	common

	Host   *platform.Host
	Output *ghoutput.Output
}

// NeedInstallName is the pipeline variable the answer is published as.
func NeedInstallName(product string) string {
	return "need_install_" + sanitize(product)
}

func (c *InstallCheck) Check(ctx context.Context, product, version, build, installPath string) (bool, error) {
	err := CheckInstallPath(c.Host, version, build, installPath)
	if err != nil {
		return false, err
	}

	ui := GetUI(ctx)

	statePath, err := c.Host.StatePath(product, version)
	if err != nil {
		return false, track(err)
	}

	record := state.Open(statePath)

	cached, err := record.Build()
	if err != nil {
		return false, err
	}

	installed, err := record.Matches(build, installPath)
	if err != nil {
		return false, err
	}

	switch {
	case installed:
		ui.Printf("%s %s.%s is already installed, skipping installation\n", product, version, build)
	case cached == build:
		ui.Printf("Installation path %s does not exist, installation may be corrupted\n", installPath)
	case cached == "":
		ui.Printf("Didn't detect installed %s %s\n", product, version)
	default:
		ui.Printf("Installed build is %s.%s, %s.%s is requested\n", version, cached, version, build)
	}

	c.L().Debug("install check", "record", statePath, "cached", cached, "installed", installed)

	need := !installed

	err = publishBool(c.Output, NeedInstallName(product), need)
	if err != nil {
		return false, err
	}

	return need, nil
}
