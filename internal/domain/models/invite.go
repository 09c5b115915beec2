// internal/domain/models/invite.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite records one app invitation sent to a member, usually as part
// of inviting a whole circle at once. Token is the opaque value embedded
// in the emailed activation link.
type Invite struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	StakeID  primitive.ObjectID  `bson:"stake_id" json:"stake_id"`
	WardID   primitive.ObjectID  `bson:"ward_id" json:"ward_id"`
	MemberID primitive.ObjectID  `bson:"member_id" json:"member_id"`
	CircleID *primitive.ObjectID `bson:"circle_id,omitempty" json:"circle_id,omitempty"`

	Email string `bson:"email" json:"email"`
	Token string `bson:"token" json:"token"`

	SentAt    time.Time `bson:"sent_at" json:"sent_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}
