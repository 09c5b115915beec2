// internal/app/features/circles/types.go
package circles

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/assign"
	"github.com/dalemusser/circlehub/internal/app/system/roster"
	"github.com/dalemusser/circlehub/internal/domain/models"
)

// memberItem is the wire form of one member card.
type memberItem struct {
	ID                 string `json:"id"`
	FullName           string `json:"full_name"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	DOB                string `json:"dob,omitempty"`
	Age                *int   `json:"age,omitempty"` // nil when DOB is missing or unparseable
	MaritalStatus      string `json:"marital_status,omitempty"`
	NumChildren        int    `json:"num_children"`
	CulturalBackground string `json:"cultural_background,omitempty"`
	ProfilePicURL      string `json:"profile_pic_url,omitempty"`
	HasLoggedIn        bool   `json:"has_logged_in"`
}

// circleView is the wire form of one circle with its members expanded.
type circleView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	CaptainID string       `json:"captain_id,omitempty"`
	Version   int64        `json:"version"`
	Members   []memberItem `json:"members"`
}

// manageResponse is the full snapshot the manage screen renders from.
// Available carries the filtered pool; AvailableTotal the unfiltered
// count, so the screen can say "12 of 80 shown".
type manageResponse struct {
	WardID         string       `json:"ward_id"`
	WardName       string       `json:"ward_name"`
	Circles        []circleView `json:"circles"`
	Available      []memberItem `json:"available"`
	AvailableTotal int          `json:"available_total"`
}

func toMemberItem(m models.Member, now time.Time) memberItem {
	item := memberItem{
		ID:                 m.ID.Hex(),
		FullName:           m.FullName,
		Email:              m.Email,
		Phone:              m.Phone,
		DOB:                m.DOB,
		MaritalStatus:      m.MaritalStatus,
		NumChildren:        m.NumChildren,
		CulturalBackground: m.CulturalBackground,
		ProfilePicURL:      m.ProfilePicURL,
		HasLoggedIn:        m.HasLoggedIn,
	}
	if age, ok := roster.Age(m.DOB, now); ok {
		item.Age = &age
	}
	return item
}

func toMemberItems(ms []models.Member, now time.Time) []memberItem {
	out := make([]memberItem, len(ms))
	for i, m := range ms {
		out[i] = toMemberItem(m, now)
	}
	return out
}

// buildManageResponse assembles the snapshot from a loaded engine.
// Filters apply to the available pool only; circle contents always
// show every member.
func buildManageResponse(eng *assign.Engine, ward models.Ward, f roster.Filters) manageResponse {
	now := time.Now()

	pool := eng.Available()
	resp := manageResponse{
		WardID:         ward.ID.Hex(),
		WardName:       ward.Name,
		Circles:        make([]circleView, 0, len(eng.Circles())),
		Available:      toMemberItems(roster.Apply(pool, f, now), now),
		AvailableTotal: len(pool),
	}

	for _, c := range eng.Circles() {
		cv := circleView{
			ID:      c.ID.Hex(),
			Name:    c.Name,
			Version: c.Version,
			Members: toMemberItems(roster.CircleMembers(c, eng.Members()), now),
		}
		if c.CaptainID != nil {
			cv.CaptainID = c.CaptainID.Hex()
		}
		resp.Circles = append(resp.Circles, cv)
	}
	return resp
}

// filtersFromQuery reads the facet query parameters, falling back to
// the inactive defaults for anything absent or malformed.
func filtersFromQuery(r *http.Request) roster.Filters {
	f := roster.DefaultFilters()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("age_min")); err == nil && v >= roster.DefaultAgeMin {
		f.AgeMin = v
	}
	if v, err := strconv.Atoi(q.Get("age_max")); err == nil && v <= roster.DefaultAgeMax {
		f.AgeMax = v
	}
	if v := q.Get("has_children"); v == roster.FacetYes || v == roster.FacetNo {
		f.HasChildren = v
	}
	if v := q.Get("marital_status"); v != "" && models.ValidMaritalStatus(v) {
		f.MaritalStatus = v
	}
	if v := q.Get("has_email"); v == roster.FacetYes || v == roster.FacetNo {
		f.HasEmail = v
	}
	if v := q.Get("has_logged_in"); v == roster.FacetYes || v == roster.FacetNo {
		f.HasLoggedIn = v
	}
	if v := q.Get("cultural_background"); v != "" {
		f.CulturalBackground = v
	}
	if v := q.Get("sort_by"); v == roster.SortByAge || v == roster.SortByName {
		f.SortBy = v
	}
	return f
}
