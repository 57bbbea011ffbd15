package sesiweb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/hfsci/pkg/cleanhttp"
)

const (
	DefaultEndpoint = "https://www.sidefx.com/api/"
	DefaultTokenURL = "https://www.sidefx.com/oauth2/application_token"
)

// Credentials authenticate against the vendor service with the OAuth2
// client credentials flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Client talks to the vendor web API. Calls are encoded as a JSON triple of
// [method, args, kwargs] in the "json" form field.
type Client struct {
	L hclog.Logger

	HTTP     *http.Client
	Endpoint string
	TokenURL string

	creds   Credentials
	token   string
	expires time.Time
	now     func() time.Time
}

func New(creds Credentials) *Client {
	return &Client{
		L:        hclog.L().Named("sesiweb"),
		HTTP:     cleanhttp.DefaultClient,
		Endpoint: DefaultEndpoint,
		TokenURL: DefaultTokenURL,
		creds:    creds,
		now:      time.Now,
	}
}

// APIError is returned when the service answers with a non-2xx status.
type APIError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sesiweb %s: HTTP %d: %s", e.Method, e.StatusCode, e.Body)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.TokenURL, nil)
	if err != nil {
		return "", err
	}

	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "requesting access token")
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Method: "access-token", StatusCode: resp.StatusCode, Body: readSnippet(resp.Body)}
	}

	var tr tokenResponse

	err = json.NewDecoder(resp.Body).Decode(&tr)
	if err != nil {
		return "", errors.Wrapf(err, "decoding access token")
	}

	if tr.AccessToken == "" {
		return "", fmt.Errorf("access token response did not include a token")
	}

	c.token = tr.AccessToken

	// Refresh a little early so a token never expires mid-call.
	c.expires = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - 10*time.Second)

	return c.token, nil
}

func (c *Client) call(ctx context.Context, method string, kwargs map[string]interface{}, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal([]interface{}{method, []interface{}{}, kwargs})
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("json", string(payload))

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	c.L.Trace("calling vendor api", "method", method, "kwargs", kwargs)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s", method)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Body: readSnippet(resp.Body)}
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return errors.Wrapf(err, "decoding %s response", method)
	}

	if c.L.IsTrace() {
		c.L.Trace("vendor api response", "method", method, "body", spew.Sdump(out))
	}

	return nil
}

// LatestBuilds lists the most recent builds for a product line on a
// platform. When onlyProduction is set daily builds are left out.
func (c *Client) LatestBuilds(ctx context.Context, sel Selection, onlyProduction bool) ([]Build, error) {
	var builds []Build

	err := c.call(ctx, "download.get_daily_builds_list", map[string]interface{}{
		"product":         sel.Product,
		"version":         sel.Version,
		"platform":        sel.Platform,
		"only_production": onlyProduction,
	}, &builds)
	if err != nil {
		return nil, err
	}

	return builds, nil
}

// BuildDownload resolves the download descriptor for exactly one build.
func (c *Client) BuildDownload(ctx context.Context, b Build) (*Download, error) {
	var dl Download

	err := c.call(ctx, "download.get_daily_build_download", map[string]interface{}{
		"product":  b.Product,
		"version":  b.Version,
		"build":    string(b.Build),
		"platform": b.Platform,
	}, &dl)
	if err != nil {
		return nil, err
	}

	return &dl, nil
}

func readSnippet(r io.Reader) string {
	data, _ := ioutil.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(data))
}
