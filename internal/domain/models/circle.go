// internal/domain/models/circle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Circle is an admin-curated friendship circle inside one ward.
//
// Invariants the stores and the assignment engine protect:
//   - a member id appears in member_ids of at most one circle per ward
//   - captain_id is nil or an element of member_ids
//
// Version is bumped on every membership or captain write and is used
// for optimistic-concurrency checks in circlestore (a stale update is
// rejected rather than blindly overwriting a concurrent change).
type Circle struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	StakeID primitive.ObjectID `bson:"stake_id" json:"stake_id"`
	WardID  primitive.ObjectID `bson:"ward_id" json:"ward_id"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"name_ci"`

	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	CaptainID *primitive.ObjectID  `bson:"captain_id,omitempty" json:"captain_id,omitempty"`

	Version int64 `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether id is currently in the circle.
func (c *Circle) HasMember(id primitive.ObjectID) bool {
	for _, m := range c.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Normalize repairs a circle document read from the store: duplicate
// member ids are collapsed and a captain that is not a current member
// is cleared. Returns true when anything changed.
func (c *Circle) Normalize() bool {
	changed := false

	seen := make(map[primitive.ObjectID]struct{}, len(c.MemberIDs))
	deduped := c.MemberIDs[:0]
	for _, id := range c.MemberIDs {
		if _, dup := seen[id]; dup {
			changed = true
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	c.MemberIDs = deduped

	if c.CaptainID != nil && !c.HasMember(*c.CaptainID) {
		c.CaptainID = nil
		changed = true
	}
	return changed
}
