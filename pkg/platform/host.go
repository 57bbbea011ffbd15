package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
)

// Info describes the machine we are running on.
type Info struct {
	OS        string
	OSName    string
	OSVersion string
	Arch      string
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.OSName, i.OSVersion, i.Arch)
}

// Detect reports the running machine. Failures to read distribution
// details are not fatal; OS and arch fall back to the runtime values.
func Detect(ctx context.Context) Info {
	info := Info{
		OS:     runtime.GOOS,
		OSName: runtime.GOOS,
		Arch:   runtime.GOARCH,
	}

	name, _, version, err := host.PlatformInformationWithContext(ctx)
	if err == nil {
		if name != "" {
			info.OSName = name
		}
		info.OSVersion = version
	}

	arch, err := host.KernelArch()
	if err == nil && arch != "" {
		info.Arch = arch
	}

	return info
}

// VendorPlatform maps the machine to the vendor's platform identifier.
func (i Info) VendorPlatform() (string, error) {
	switch i.OS {
	case "linux":
		return "linux_x86_64_gcc11.2", nil
	case "windows":
		return "win64-vc143", nil
	case "darwin":
		switch i.Arch {
		case "arm64", "aarch64":
			return "macosx_arm64", nil
		default:
			return "macosx_x86_64", nil
		}
	default:
		return "", &ErrUnsupported{OS: i.OS}
	}
}
