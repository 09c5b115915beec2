// internal/domain/models/ward.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ward is the smallest organizational unit. Members and circles are
// always scoped to exactly one ward within one stake.
type Ward struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	StakeID primitive.ObjectID `bson:"stake_id" json:"stake_id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"name_ci"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
