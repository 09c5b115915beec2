// internal/app/system/roster/filters.go
package roster

import (
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
)

// Tri-state facet values used by several filters.
const (
	FacetAll = "all"
	FacetYes = "yes"
	FacetNo  = "no"
)

// Sort orders for the filtered pool.
const (
	SortByName = "name"
	SortByAge  = "age"
)

// Default age range. While the range is at these bounds the age filter
// is considered inactive and members with unknown DOB pass through.
const (
	DefaultAgeMin = 0
	DefaultAgeMax = 120
)

// Filters is the transient facet configuration an admin applies to the
// available pool. It never applies to circle contents.
type Filters struct {
	AgeMin             int
	AgeMax             int
	HasChildren        string // all | yes | no
	MaritalStatus      string // all | single | married | widowed | divorced
	HasEmail           string // all | yes | no
	HasLoggedIn        string // all | yes | no
	CulturalBackground string // all | specific tag (case-insensitive match)
	SortBy             string // name | age
}

// DefaultFilters returns the inactive filter configuration.
func DefaultFilters() Filters {
	return Filters{
		AgeMin:             DefaultAgeMin,
		AgeMax:             DefaultAgeMax,
		HasChildren:        FacetAll,
		MaritalStatus:      FacetAll,
		HasEmail:           FacetAll,
		HasLoggedIn:        FacetAll,
		CulturalBackground: FacetAll,
		SortBy:             SortByName,
	}
}

// AgeRangeIsDefault reports whether the age facet is at its full
// default span, i.e. inactive.
func (f Filters) AgeRangeIsDefault() bool {
	return f.AgeMin == DefaultAgeMin && f.AgeMax == DefaultAgeMax
}

// Apply runs every active filter predicate over pool and returns the
// surviving members in a stable sort order. The input slice is not
// modified.
//
// Age asymmetry, preserved deliberately: a member with a missing or
// unparseable DOB is included while the age range is at its default,
// and excluded the moment the range is narrowed. Unknown-age members
// should not silently vanish unless the admin actively filters by age.
func Apply(pool []models.Member, f Filters, now time.Time) []models.Member {
	out := make([]models.Member, 0, len(pool))

	for _, m := range pool {
		age, known := Age(m.DOB, now)

		if !known {
			if !f.AgeRangeIsDefault() {
				continue
			}
		} else if age < f.AgeMin || age > f.AgeMax {
			continue
		}

		if f.HasChildren != FacetAll {
			hasKids := m.NumChildren > 0
			if (f.HasChildren == FacetYes) != hasKids {
				continue
			}
		}

		if f.MaritalStatus != FacetAll && m.MaritalStatus != f.MaritalStatus {
			continue
		}

		if f.HasEmail != FacetAll {
			hasEmail := strings.TrimSpace(m.Email) != ""
			if (f.HasEmail == FacetYes) != hasEmail {
				continue
			}
		}

		if f.HasLoggedIn != FacetAll {
			if (f.HasLoggedIn == FacetYes) != m.HasLoggedIn {
				continue
			}
		}

		if f.CulturalBackground != FacetAll &&
			!strings.EqualFold(m.CulturalBackground, f.CulturalBackground) {
			continue
		}

		out = append(out, m)
	}

	switch f.SortBy {
	case SortByAge:
		// Unknown age sorts as 0, i.e. before everyone with a known DOB.
		sort.SliceStable(out, func(i, j int) bool {
			ai, _ := Age(out[i].DOB, now)
			aj, _ := Age(out[j].DOB, now)
			return ai < aj
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].FullName) < strings.ToLower(out[j].FullName)
		})
	}

	return out
}
