package state

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	top, err := ioutil.TempDir("", "state")
	require.NoError(t, err)

	defer os.RemoveAll(top)

	t.Run("reads nothing when no record exists", func(t *testing.T) {
		r := Open(filepath.Join(top, "missing.txt"))

		build, err := r.Build()
		require.NoError(t, err)
		assert.Equal(t, "", build)
	})

	t.Run("round trips the build number", func(t *testing.T) {
		r := Open(filepath.Join(top, "sub", "installed_houdini_20.5.txt"))

		require.NoError(t, r.Write("705"))

		data, err := ioutil.ReadFile(r.Path())
		require.NoError(t, err)
		assert.Equal(t, "705", string(data))

		build, err := r.Build()
		require.NoError(t, err)
		assert.Equal(t, "705", build)

		require.NoError(t, r.Write("710"))

		build, err = r.Build()
		require.NoError(t, err)
		assert.Equal(t, "710", build)
	})

	t.Run("matches only when the install dir exists", func(t *testing.T) {
		r := Open(filepath.Join(top, "match.txt"))
		require.NoError(t, r.Write("705"))

		install := filepath.Join(top, "hfs20.5.705")

		ok, err := r.Matches("705", install)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, os.Mkdir(install, 0755))

		ok, err = r.Matches("705", install)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.Matches("710", install)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("removes a record and tolerates a missing one", func(t *testing.T) {
		r := Open(filepath.Join(top, "rm.txt"))
		require.NoError(t, r.Write("1"))

		require.NoError(t, r.Remove())
		require.NoError(t, r.Remove())

		_, err := os.Stat(r.Path())
		assert.True(t, os.IsNotExist(err))
	})
}
