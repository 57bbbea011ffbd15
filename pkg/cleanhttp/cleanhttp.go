package cleanhttp

import (
	"net"
	"net/http"
	"time"
)

const UserAgent = "hfsci/0.1"

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 2 * time.Minute,
		ExpectContinueTimeout: 1 * time.Second,
		// Installers are already compressed and we hash the exact bytes
		// the server sends.
		DisableCompression: true,
	}
}

type agentTransport struct {
	base http.RoundTripper
}

func (t *agentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}

	return t.base.RoundTrip(req)
}

// NewClient returns a client with its own transport. A zero timeout leaves
// request lifetime to the caller's context, which is what large downloads
// want.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &agentTransport{base: newTransport()},
	}
}

// DefaultClient is used for short API calls.
var DefaultClient = NewClient(2 * time.Minute)

// DownloadClient is used for artifact downloads.
var DownloadClient = NewClient(0)
