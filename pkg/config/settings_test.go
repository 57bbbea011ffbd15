package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string {
		return m[k]
	}
}

func TestLoadEnv(t *testing.T) {
	top, err := ioutil.TempDir("", "config")
	require.NoError(t, err)

	defer os.RemoveAll(top)

	t.Run("reads secrets and output from the environment", func(t *testing.T) {
		s, err := LoadEnv(envMap(map[string]string{
			EnvConfig:    filepath.Join(top, "empty.json"),
			EnvClientID:  "id",
			EnvSecretKey: "secret",
			EnvOutput:    "/tmp/out",
		}))
		require.Error(t, err, "an explicit config path must exist")
		assert.Nil(t, s)

		require.NoError(t, ioutil.WriteFile(filepath.Join(top, "empty.json"), []byte(`{}`), 0644))

		s, err = LoadEnv(envMap(map[string]string{
			EnvConfig:    filepath.Join(top, "empty.json"),
			EnvClientID:  "id",
			EnvSecretKey: "secret",
			EnvOutput:    "/tmp/out",
		}))
		require.NoError(t, err)

		assert.Equal(t, "id", s.ClientID)
		assert.Equal(t, "secret", s.ClientSecret)
		assert.Equal(t, "/tmp/out", s.OutputPath)
		assert.Equal(t, DefaultProduct, s.Product)
		assert.Equal(t, DefaultVersions, s.Versions)
		assert.Equal(t, DefaultPlatforms, s.Platforms)
		assert.Equal(t, Duration(DefaultInstallTimeout), s.InstallTimeout)
		assert.Empty(t, s.MissingSecrets())
	})

	t.Run("applies the config file", func(t *testing.T) {
		path := filepath.Join(top, "config.json")

		err := ioutil.WriteFile(path, []byte(`{
			"versions": ["20.5"],
			"platforms": ["linux_x86_64_gcc11.2"],
			"state-dir": "/var/lib/hfsci",
			"install-timeout": "5m"
		}`), 0644)
		require.NoError(t, err)

		s, err := LoadEnv(envMap(map[string]string{
			EnvConfig:   path,
			EnvStateDir: "/override",
		}))
		require.NoError(t, err)

		assert.Equal(t, []string{"20.5"}, s.Versions)
		assert.Equal(t, []string{"linux_x86_64_gcc11.2"}, s.Platforms)
		assert.Equal(t, "/override", s.StateDir)
		assert.Equal(t, Duration(5*time.Minute), s.InstallTimeout)
		assert.Equal(t, []string{EnvClientID, EnvSecretKey}, s.MissingSecrets())
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		path := filepath.Join(top, "bad.json")

		require.NoError(t, ioutil.WriteFile(path, []byte(`{"client-secret": "x"}`), 0644))

		_, err := LoadEnv(envMap(map[string]string{EnvConfig: path}))
		assert.Error(t, err)
	})
}
