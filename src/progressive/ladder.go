// Package progressive picks the rungs of the multi-resolution delivery
// ladder and paces their staged reveal.
package progressive

import (
	"math"
	"sort"

	m "retroview_services/src/models"
)

// aspectTolerance is the relative deviation from the final size's aspect
// ratio a rung may have. Cropped square variants fall outside it.
const aspectTolerance = 0.05

// maxRungs bounds a ladder to first / ~25% / ~50% / ~75% / last.
const maxRungs = 5

// SelectRungs reduces a photo's size ladder to at most five representative
// rungs, smallest first. Sizes whose aspect ratio strays more than 5% from
// the final (largest) size are excluded. An empty ladder yields nil; if the
// aspect filter removes everything else, the final size alone is returned so
// the consumer can still show something.
func SelectRungs(sizes []m.SizeDescriptor) []m.SizeDescriptor {
	if len(sizes) == 0 {
		return nil
	}

	final := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width > final.Width {
			final = s
		}
	}
	if final.Height <= 0 || final.Width <= 0 {
		return []m.SizeDescriptor{final}
	}
	finalRatio := float64(final.Width) / float64(final.Height)

	filtered := make([]m.SizeDescriptor, 0, len(sizes))
	for _, s := range sizes {
		if s.Height <= 0 || s.Width <= 0 {
			continue
		}
		ratio := float64(s.Width) / float64(s.Height)
		if math.Abs(ratio/finalRatio-1) <= aspectTolerance {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return []m.SizeDescriptor{final}
	}
	sort.SliceStable(filtered, func(a, b int) bool {
		return filtered[a].Width < filtered[b].Width
	})

	n := len(filtered)
	indices := []int{0, n / 4, n / 2, 3 * n / 4, n - 1}
	rungs := make([]m.SizeDescriptor, 0, maxRungs)
	last := -1
	for _, idx := range indices {
		if idx == last {
			continue
		}
		rungs = append(rungs, filtered[idx])
		last = idx
	}
	return rungs
}
