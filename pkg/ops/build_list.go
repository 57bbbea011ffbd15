package ops

import (
	"context"
)

// BuildList prints the common builds without publishing anything.
type BuildList struct {
	common

	Query *BuildQuery
}

func (l *BuildList) List(ctx context.Context, product, version string, platforms []string, allowDaily bool) ([]string, error) {
	builds, err := l.Query.Query(ctx, product, version, platforms, allowDaily)
	if err != nil {
		return nil, err
	}

	ui := GetUI(ctx)

	if len(builds) == 0 {
		ui.Printf("No %s %s build is available on all of: %v\n", product, version, platforms)
		return builds, nil
	}

	ui.heading("Common builds of %s %s:", product, version)

	for _, b := range builds {
		ui.Printf("    %s.%s\n", version, b)
	}

	return builds, nil
}
