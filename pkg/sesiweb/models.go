package sesiweb

import (
	"bytes"
	"encoding/json"
)

// BuildNumber is a vendor build identifier. The service reports it either
// as a JSON string or a bare number depending on the endpoint.
type BuildNumber string

func (b *BuildNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*b = BuildNumber(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	*b = BuildNumber(n.String())
	return nil
}

func (b BuildNumber) String() string {
	return string(b)
}

// Selection names a product line on one platform.
type Selection struct {
	Product  string `json:"product"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// Build is one published artifact of a product version for a platform.
type Build struct {
	Product  string      `json:"product"`
	Version  string      `json:"version"`
	Platform string      `json:"platform"`
	Build    BuildNumber `json:"build"`
	Date     string      `json:"date,omitempty"`
	Release  string      `json:"release,omitempty"`
	Status   string      `json:"status,omitempty"`
}

// FullVersion returns the version and build joined the way the vendor
// displays them, e.g. 20.5.370.
func (b Build) FullVersion() string {
	return b.Version + "." + string(b.Build)
}

// Download describes where to fetch a build and how to check it.
type Download struct {
	URL      string `json:"download_url"`
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Size     int64  `json:"size"`
	Date     string `json:"date,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
