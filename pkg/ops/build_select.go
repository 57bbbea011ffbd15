package ops

import (
	"context"
	"strings"
	"unicode"

	"lab47.dev/hfsci/pkg/ghoutput"
)

// BuildSelect picks the newest build common to a set of platforms and
// reports it to the pipeline.
type BuildSelect struct {
	common

	Query  *BuildQuery
	Output *ghoutput.Output
}

// OutputName is the pipeline variable a selected build is published as,
// e.g. houdini_build_20_5.
func OutputName(product, version string) string {
	return sanitize(product) + "_build_" + sanitize(version)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}

		return '_'
	}, s)
}

func (s *BuildSelect) Select(ctx context.Context, product, version string, platforms []string, allowDaily bool) (string, error) {
	builds, err := s.Query.Query(ctx, product, version, platforms, allowDaily)
	if err != nil {
		return "", err
	}

	if len(builds) == 0 {
		return "", track(&VendorDataError{
			Product:  product,
			Version:  version,
			Platform: strings.Join(platforms, ", "),
			Reason:   "no build is available on all platforms",
		})
	}

	selected := builds[0]

	err = publish(s.Output, OutputName(product, version), selected)
	if err != nil {
		return "", err
	}

	GetUI(ctx).Selected(product, version, selected)

	s.L().Info("selected build", "product", product, "version", version, "build", selected)

	return selected, nil
}
