package ops

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allPlatforms = []string{"win64-vc143", "macosx_arm64", "macosx_x86_64", "linux_x86_64_gcc11.2"}

func matrixService() *fakeService {
	builds := map[string][]string{}
	for _, p := range allPlatforms {
		builds[p] = []string{"710", "705"}
	}

	return &fakeService{builds: builds}
}

func TestBuildMatrix(t *testing.T) {
	t.Run("includes the newest linux build of each version by default", func(t *testing.T) {
		svc := matrixService()
		out, read := testOutput(t)
		bm := &BuildMatrix{Query: &BuildQuery{Service: svc}, Output: out}
		ctx, _ := testUI()

		mat, err := bm.Build(ctx, MatrixRequest{
			Product:   "houdini",
			Versions:  []string{"20.0", "20.5", "21.0"},
			Platforms: allPlatforms,
		})
		require.NoError(t, err)

		require.Len(t, mat.Include, 3)
		assert.Equal(t, "Linux x64 20.0.710", mat.Include[0].Name)
		assert.Equal(t, "Linux x64 21.0.710", mat.Include[2].Name)

		for _, c := range svc.lists {
			assert.True(t, c.onlyProduction)
		}

		line := read()
		require.True(t, strings.HasPrefix(line, "build_matrix="))

		var decoded struct {
			Include []map[string]interface{} `json:"include"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "build_matrix=")), &decoded))
		assert.Len(t, decoded.Include, 3)
	})

	t.Run("expands every build and platform on request", func(t *testing.T) {
		out, _ := testOutput(t)
		bm := &BuildMatrix{Query: &BuildQuery{Service: matrixService()}, Output: out}
		ctx, _ := testUI()

		mat, err := bm.Build(ctx, MatrixRequest{
			Product:      "houdini",
			Versions:     []string{"20.5"},
			Platforms:    allPlatforms,
			AllPlatforms: true,
			AllBuilds:    true,
		})
		require.NoError(t, err)

		require.Len(t, mat.Include, 8)
		assert.Equal(t, "Linux x64 20.5.710", mat.Include[0].Name)
		assert.Equal(t, "Windows x64 20.5.710", mat.Include[1].Name)
		assert.Equal(t, "macOS x64 20.5.710", mat.Include[2].Name)
		assert.Equal(t, "macOS arm64 20.5.710", mat.Include[3].Name)
		assert.Equal(t, "Linux x64 20.5.705", mat.Include[4].Name)
	})

	t.Run("pins a specific build and allows daily builds", func(t *testing.T) {
		svc := matrixService()
		out, _ := testOutput(t)
		bm := &BuildMatrix{Query: &BuildQuery{Service: svc}, Output: out}
		ctx, _ := testUI()

		mat, err := bm.Build(ctx, MatrixRequest{
			Product:         "houdini",
			Versions:        []string{"20.0", "20.5"},
			Platforms:       allPlatforms,
			SpecificVersion: "21.0",
			SpecificBuild:   "705",
		})
		require.NoError(t, err)

		require.Len(t, mat.Include, 1)
		assert.Equal(t, "Linux x64 21.0.705", mat.Include[0].Name)

		for _, c := range svc.lists {
			assert.False(t, c.onlyProduction)
			assert.Equal(t, "21.0", c.sel.Version)
		}
	})

	t.Run("rejects a specific build not common to all platforms", func(t *testing.T) {
		out, read := testOutput(t)
		bm := &BuildMatrix{Query: &BuildQuery{Service: matrixService()}, Output: out}
		ctx, _ := testUI()

		_, err := bm.Build(ctx, MatrixRequest{
			Product:         "houdini",
			Platforms:       allPlatforms,
			SpecificVersion: "20.5",
			SpecificBuild:   "999",
		})

		var vde *VendorDataError
		requireKind(t, err, &vde)
		assert.Equal(t, "999", vde.Build)
		assert.Empty(t, read())
	})

	t.Run("requires specific version and build together", func(t *testing.T) {
		svc := matrixService()
		out, _ := testOutput(t)
		bm := &BuildMatrix{Query: &BuildQuery{Service: svc}, Output: out}
		ctx, _ := testUI()

		_, err := bm.Build(ctx, MatrixRequest{Product: "houdini", Platforms: allPlatforms, SpecificBuild: "705"})

		var ce *ConfigurationError
		requireKind(t, err, &ce)

		_, err = bm.Build(ctx, MatrixRequest{Product: "houdini", Platforms: allPlatforms, SpecificVersion: "20.5"})
		requireKind(t, err, &ce)

		assert.Equal(t, 0, svc.calls())
	})

	t.Run("fails when a version has no common build", func(t *testing.T) {
		svc := matrixService()
		svc.builds["macosx_arm64"] = []string{"600"}

		out, _ := testOutput(t)
		bm := &BuildMatrix{Query: &BuildQuery{Service: svc}, Output: out}
		ctx, _ := testUI()

		_, err := bm.Build(ctx, MatrixRequest{Product: "houdini", Versions: []string{"20.5"}, Platforms: allPlatforms})

		var vde *VendorDataError
		requireKind(t, err, &vde)
	})

	t.Run("prints yaml when asked", func(t *testing.T) {
		out, _ := testOutput(t)
		bm := &BuildMatrix{Query: &BuildQuery{Service: matrixService()}, Output: out}
		ctx, buf := testUI()

		_, err := bm.Build(ctx, MatrixRequest{
			Product:   "houdini",
			Versions:  []string{"20.5"},
			Platforms: allPlatforms,
			YAML:      true,
		})
		require.NoError(t, err)

		assert.Contains(t, buf.String(), "houdini-install-path: /opt/hfs20.5.710")
	})
}

func TestBuildList(t *testing.T) {
	t.Run("prints common builds", func(t *testing.T) {
		bl := &BuildList{Query: &BuildQuery{Service: matrixService()}}
		ctx, buf := testUI()

		builds, err := bl.List(ctx, "houdini", "20.5", allPlatforms, false)
		require.NoError(t, err)

		assert.Equal(t, []string{"710", "705"}, builds)
		assert.Contains(t, buf.String(), "20.5.705")
	})
}
