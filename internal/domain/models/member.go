// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Marital status values. Stored as plain strings; anything else found
// in a document is normalized to empty (unknown) at the store boundary.
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalWidowed  = "widowed"
	MaritalDivorced = "divorced"
)

// Member represents one person on a ward roster.
//
// NOTE:
//   - Circle membership is not embedded on Member. Circles carry the
//     member_ids array; the available pool is derived, never stored.
//   - DOB is kept as the loosely formatted string it was entered or
//     imported as (MM/DD/YYYY or YYYY-MM-DD). Age is always computed
//     from it on demand (see system/roster).
type Member struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StakeID primitive.ObjectID `bson:"stake_id" json:"stake_id"`
	WardID  primitive.ObjectID `bson:"ward_id" json:"ward_id"`

	FullName   string `bson:"full_name" json:"full_name"`
	FullNameCI string `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped

	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`

	DOB                string `bson:"dob,omitempty" json:"dob,omitempty"`
	MaritalStatus      string `bson:"marital_status,omitempty" json:"marital_status,omitempty"`
	NumChildren        int    `bson:"num_children,omitempty" json:"num_children,omitempty"`
	CulturalBackground string `bson:"cultural_background,omitempty" json:"cultural_background,omitempty"`

	ProfilePicURL string `bson:"profile_pic_url,omitempty" json:"profile_pic_url,omitempty"`
	HasLoggedIn   bool   `bson:"has_logged_in" json:"has_logged_in"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidMaritalStatus reports whether s is one of the recognized values
// (or empty, meaning unknown).
func ValidMaritalStatus(s string) bool {
	switch s {
	case "", MaritalSingle, MaritalMarried, MaritalWidowed, MaritalDivorced:
		return true
	}
	return false
}
