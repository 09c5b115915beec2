// internal/app/system/roster/roster.go

// Package roster derives the available-member pool for a ward and
// applies the admin's facet filters to it. Everything here is a pure
// function over already-loaded documents; it is safe to re-run on every
// state change.
package roster

import (
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailablePool returns the members that are not referenced by any
// circle's member_ids. Input order is preserved. The result is a new
// slice; the inputs are never mutated.
func AvailablePool(members []models.Member, circles []models.Circle) []models.Member {
	assigned := make(map[primitive.ObjectID]struct{})
	for _, c := range circles {
		for _, id := range c.MemberIDs {
			assigned[id] = struct{}{}
		}
	}

	pool := make([]models.Member, 0, len(members))
	for _, m := range members {
		if _, in := assigned[m.ID]; !in {
			pool = append(pool, m)
		}
	}
	return pool
}

// CircleMembers returns the circle's members in member_ids order,
// skipping ids that no longer resolve to a loaded member.
func CircleMembers(c models.Circle, members []models.Member) []models.Member {
	byID := make(map[primitive.ObjectID]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	out := make([]models.Member, 0, len(c.MemberIDs))
	for _, id := range c.MemberIDs {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}
