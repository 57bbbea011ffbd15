package ops

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"lab47.dev/hfsci/pkg/sesiweb"
)

// BuildQuery finds the builds of a product version that are published for
// every one of a set of platforms.
type BuildQuery struct {
	common

	Service BuildService
	Verbose bool
}

// Query returns the build numbers available on all platforms, newest
// first. Builds are compared as integers, so 10 sorts above 9.
func (q *BuildQuery) Query(ctx context.Context, product, version string, platforms []string, allowDaily bool) ([]string, error) {
	if len(platforms) == 0 {
		return nil, configErr("platforms", "at least one platform is required")
	}

	ui := GetUI(ctx)

	if q.Verbose {
		ui.QueryPrologue(product, version)
	}

	tally := make(map[string]int)

	// Keep first-seen order so verbose output is stable.
	var order []string

	for _, platform := range platforms {
		sel := sesiweb.Selection{Product: product, Version: version, Platform: platform}

		builds, err := q.Service.LatestBuilds(ctx, sel, !allowDaily)
		if err != nil {
			return nil, errors.Wrapf(err, "listing builds for %s %s on %s", product, version, platform)
		}

		if len(builds) == 0 {
			return nil, track(&VendorDataError{
				Product:  product,
				Version:  version,
				Platform: platform,
				Reason:   "no builds found",
			})
		}

		if q.Verbose {
			ui.ListBuilds(version, platform, builds)
		}

		seen := make(map[string]struct{}, len(builds))

		for _, b := range builds {
			num := b.Build.String()

			if _, dup := seen[num]; dup {
				return nil, track(&VendorDataError{
					Product:  product,
					Version:  version,
					Platform: platform,
					Build:    num,
					Reason:   "duplicate build reported",
				})
			}

			seen[num] = struct{}{}
		}

		for _, b := range builds {
			num := b.Build.String()

			if tally[num] == 0 {
				order = append(order, num)
			}

			tally[num]++
		}

		q.L().Debug("queried platform", "product", product, "version", version, "platform", platform, "builds", len(builds))
	}

	var (
		valid   []string
		numbers = make(map[string]int)
	)

	for _, num := range order {
		if tally[num] != len(platforms) {
			if q.Verbose {
				ui.Rejected(product, version, num)
			}
			continue
		}

		n, err := strconv.Atoi(num)
		if err != nil {
			return nil, track(&VendorDataError{
				Product: product,
				Version: version,
				Build:   num,
				Reason:  "build number is not numeric",
			})
		}

		if q.Verbose {
			ui.Considering(product, version, num)
		}

		numbers[num] = n
		valid = append(valid, num)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return numbers[valid[i]] > numbers[valid[j]]
	})

	return valid, nil
}
