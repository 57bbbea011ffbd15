package ops

import (
	"crypto/md5"
	"encoding/hex"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lab47.dev/hfsci/pkg/sesiweb"
)

func TestArtifactDownload(t *testing.T) {
	payload := []byte("installer bits")
	sum := md5.Sum(payload)

	serve := func(t *testing.T, status int, body []byte) string {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write(body)
		}))
		t.Cleanup(srv.Close)

		return srv.URL
	}

	descriptor := func(url string) *sesiweb.Download {
		return &sesiweb.Download{
			URL:      url,
			Filename: "houdini.exe",
			Hash:     hex.EncodeToString(sum[:]),
			Size:     int64(len(payload)),
		}
	}

	t.Run("writes a verified file", func(t *testing.T) {
		dir := t.TempDir()
		ctx, _ := testUI()

		path, err := (&ArtifactDownload{}).Fetch(ctx, descriptor(serve(t, 200, payload)), dir)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "houdini.exe"), path)

		data, err := ioutil.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("accepts a padded uppercase hash", func(t *testing.T) {
		dl := descriptor(serve(t, 200, payload))
		dl.Hash = "  " + strings.ToUpper(hex.EncodeToString(sum[:])) + "\n"
		ctx, _ := testUI()

		_, err := (&ArtifactDownload{}).Fetch(ctx, dl, t.TempDir())
		require.NoError(t, err)
	})

	cases := []struct {
		name   string
		status int
		body   []byte
		edit   func(*sesiweb.Download)
		check  string
	}{
		{name: "rejects a failed response", status: 404, body: payload, check: "status code"},
		{name: "rejects an empty body", status: 200, check: "downloaded content is empty"},
		{name: "rejects a size mismatch", status: 200, body: payload, check: "size",
			edit: func(d *sesiweb.Download) { d.Size++ }},
		{name: "rejects a hash mismatch", status: 200, body: payload, check: "md5",
			edit: func(d *sesiweb.Download) { d.Hash = "ffffffffffffffffffffffffffffffff" }},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			dl := descriptor(serve(t, c.status, c.body))
			if c.edit != nil {
				c.edit(dl)
			}

			ctx, _ := testUI()

			_, err := (&ArtifactDownload{}).Fetch(ctx, dl, dir)

			var ie *IntegrityError
			requireKind(t, err, &ie)
			assert.Equal(t, c.check, ie.Check)

			entries, err := ioutil.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}
