package ops

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"
	"lab47.dev/hfsci/pkg/config"
	"lab47.dev/hfsci/pkg/sesiweb"
)

// BuildService is the part of the vendor API the operations use.
type BuildService interface {
	LatestBuilds(ctx context.Context, sel sesiweb.Selection, onlyProduction bool) ([]sesiweb.Build, error)
	BuildDownload(ctx context.Context, b sesiweb.Build) (*sesiweb.Download, error)
}

// Connect builds a vendor client from settings. Missing credentials are a
// configuration error, reported before anything touches the network.
func Connect(s *config.Settings, L hclog.Logger) (*sesiweb.Client, error) {
	if missing := s.MissingSecrets(); len(missing) > 0 {
		return nil, configErr("secrets", "missing secret: %s", strings.Join(missing, ", "))
	}

	c := sesiweb.New(sesiweb.Credentials{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
	})

	if L != nil {
		c.L = L.Named("sesiweb")
	}

	if s.Endpoint != "" {
		c.Endpoint = s.Endpoint
	}

	if s.TokenURL != "" {
		c.TokenURL = s.TokenURL
	}

	return c, nil
}
