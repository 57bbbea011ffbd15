package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHosts(t *testing.T) {
	t.Run("computes install paths per host", func(t *testing.T) {
		cases := map[string]string{
			"linux":   "/opt/hfs20.5.705",
			"darwin":  "/Applications/Houdini/Houdini20.5.705",
			"windows": `C:\Houdini\20.5.705`,
		}

		for goos, expected := range cases {
			h, err := Lookup(goos)
			require.NoError(t, err)

			assert.Equal(t, expected, h.InstallPath("20.5", "705"), goos)
		}
	})

	t.Run("places the hfs root inside the macOS bundle", func(t *testing.T) {
		h, err := Lookup("darwin")
		require.NoError(t, err)

		assert.Equal(t,
			"/Applications/Houdini/Houdini20.5.705/Frameworks/Houdini.framework/Versions/Current/Resources",
			h.HFSPath("20.5", "705"))
	})

	t.Run("keys install records by version only", func(t *testing.T) {
		h, err := Lookup("linux")
		require.NoError(t, err)

		path, err := h.StatePath("houdini", "20.5")
		require.NoError(t, err)

		assert.Equal(t, "/opt/installed_houdini_20.5.txt", path)

		h, err = Lookup("windows")
		require.NoError(t, err)

		path, err = h.StatePath("houdini", "21.0")
		require.NoError(t, err)

		assert.Equal(t, "C:/Houdini/installed_houdini_21.0.txt", path)
	})

	t.Run("rejects unknown operating systems", func(t *testing.T) {
		_, err := Lookup("plan9")
		require.Error(t, err)

		var unsup *ErrUnsupported
		require.ErrorAs(t, err, &unsup)
		assert.Equal(t, "plan9", unsup.OS)
	})

	t.Run("overrides roots without touching the table", func(t *testing.T) {
		h, err := Lookup("linux")
		require.NoError(t, err)

		moved := h.WithInstallRoot("/tmp/x").WithStateDir("/tmp/y")

		assert.Equal(t, "/tmp/x/hfs20.5.1", moved.InstallPath("20.5", "1"))
		assert.Equal(t, "/opt/hfs20.5.1", Hosts["linux"].InstallPath("20.5", "1"))
	})
}

func TestVendorPlatform(t *testing.T) {
	cases := []struct {
		info     Info
		expected string
	}{
		{Info{OS: "linux", Arch: "x86_64"}, "linux_x86_64_gcc11.2"},
		{Info{OS: "windows", Arch: "x86_64"}, "win64-vc143"},
		{Info{OS: "darwin", Arch: "arm64"}, "macosx_arm64"},
		{Info{OS: "darwin", Arch: "x86_64"}, "macosx_x86_64"},
	}

	for _, c := range cases {
		p, err := c.info.VendorPlatform()
		require.NoError(t, err)
		assert.Equal(t, c.expected, p)
	}

	_, err := Info{OS: "freebsd"}.VendorPlatform()
	assert.Error(t, err)
}
