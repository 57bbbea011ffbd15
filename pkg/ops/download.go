package ops

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"lab47.dev/hfsci/pkg/cleanhttp"
	"lab47.dev/hfsci/pkg/progress"
	"lab47.dev/hfsci/pkg/sesiweb"
)

// ArtifactDownload fetches an installer and checks it against its
// descriptor. A file that fails any check is removed; it is never left where
// an installer could pick it up.
type ArtifactDownload struct {
	common

	HTTP *http.Client
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	c.n += int64(len(b))
	return len(b), nil
}

// Fetch downloads dl into dir and returns the path of the verified file.
func (d *ArtifactDownload) Fetch(ctx context.Context, dl *sesiweb.Download, dir string) (string, error) {
	name := filepath.Base(dl.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", track(&IntegrityError{URL: dl.URL, Check: "download descriptor has no filename"})
	}

	client := d.HTTP
	if client == nil {
		client = cleanhttp.DownloadClient
	}

	req, err := http.NewRequestWithContext(ctx, "GET", dl.URL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "building download request")
	}

	d.L().Debug("downloading artifact", "url", dl.URL, "size", dl.Size)

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "downloading %s", dl.URL)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", track(&IntegrityError{
			URL:      dl.URL,
			Check:    "status code",
			Expected: strconv.Itoa(http.StatusOK),
			Actual:   strconv.Itoa(resp.StatusCode),
		})
	}

	// The installer is run by this path, so it must not depend on PATH
	// lookup of a bare file name.
	target, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrapf(err, "resolving download path")
	}

	part := target + ".part"

	f, err := os.Create(part)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", part)
	}

	keep := false

	defer func() {
		f.Close()
		if !keep {
			os.Remove(part)
		}
	}()

	var (
		h   = md5.New()
		cnt countingWriter
	)

	bar := progress.Bytes(ctx, dl.Size, "Downloading "+name)
	defer bar.Close()

	_, err = io.Copy(io.MultiWriter(f, h, &cnt, bar), resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "downloading %s", dl.URL)
	}

	if cnt.n == 0 {
		return "", track(&IntegrityError{URL: dl.URL, Check: "downloaded content is empty"})
	}

	if cnt.n != dl.Size {
		return "", track(&IntegrityError{
			URL:      dl.URL,
			Check:    "size",
			Expected: fmt.Sprint(dl.Size),
			Actual:   fmt.Sprint(cnt.n),
		})
	}

	sum := hex.EncodeToString(h.Sum(nil))

	if !strings.EqualFold(sum, strings.TrimSpace(dl.Hash)) {
		return "", track(&IntegrityError{
			URL:      dl.URL,
			Check:    "md5",
			Expected: dl.Hash,
			Actual:   sum,
		})
	}

	err = f.Close()
	if err != nil {
		return "", errors.Wrapf(err, "writing %s", part)
	}

	err = os.Rename(part, target)
	if err != nil {
		return "", errors.Wrapf(err, "moving download into place")
	}

	keep = true

	d.L().Debug("verified artifact", "path", target, "md5", sum)

	return target, nil
}
