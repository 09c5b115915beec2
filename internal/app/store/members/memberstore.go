// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound         = errors.New("member not found")
	ErrDuplicateEmail   = errors.New("a member with this email already exists in the ward")
	ErrBadMaritalStatus = errors.New(`marital status must be "single", "married", "widowed", or "divorced"`)
	ErrMissingName      = errors.New("member full name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// ListByWard returns every member of one ward.
func (s *Store) ListByWard(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"stake_id": stakeID, "ward_id": wardID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	for i := range members {
		if !models.ValidMaritalStatus(members[i].MaritalStatus) {
			members[i].MaritalStatus = ""
		}
	}
	return members, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

// Create inserts a member after boundary validation: name required,
// marital status one of the recognized values or empty.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	if m.FullName == "" {
		return models.Member{}, ErrMissingName
	}
	if !models.ValidMaritalStatus(m.MaritalStatus) {
		return models.Member{}, ErrBadMaritalStatus
	}

	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.FullNameCI = text.Fold(m.FullName)
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, err
	}
	return m, nil
}

// Update rewrites the member's editable profile fields.
func (s *Store) Update(ctx context.Context, m models.Member) error {
	if m.FullName == "" {
		return ErrMissingName
	}
	if !models.ValidMaritalStatus(m.MaritalStatus) {
		return ErrBadMaritalStatus
	}

	res, err := s.c.UpdateByID(ctx, m.ID, bson.M{"$set": bson.M{
		"full_name":           m.FullName,
		"full_name_ci":        text.Fold(m.FullName),
		"email":               m.Email,
		"phone":               m.Phone,
		"address":             m.Address,
		"dob":                 m.DOB,
		"marital_status":      m.MaritalStatus,
		"num_children":        m.NumChildren,
		"cultural_background": m.CulturalBackground,
		"updated_at":          time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the member document. Circle membership cleanup is the
// caller's job (circlestore.RemoveMemberEverywhere) so the exclusivity
// invariant never dangles on a deleted id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Transfer moves a member to another ward (possibly another stake).
// The caller removes them from source-ward circles first.
func (s *Store) Transfer(ctx context.Context, id, toStakeID, toWardID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"stake_id":   toStakeID,
		"ward_id":    toWardID,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLoggedIn flips the activation flag, recorded the first time the
// member signs in to the app.
func (s *Store) SetLoggedIn(ctx context.Context, id primitive.ObjectID, loggedIn bool) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"has_logged_in": loggedIn,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// SetProfilePic stores the blob URL of an uploaded profile picture.
func (s *Store) SetProfilePic(ctx context.Context, id primitive.ObjectID, url string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"profile_pic_url": url,
		"updated_at":      time.Now().UTC(),
	}})
	return err
}

// FindByEmail looks a member up by exact email within a ward. Used by
// the roster importer's duplicate check.
func (s *Store) FindByEmail(ctx context.Context, stakeID, wardID primitive.ObjectID, email string) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{
		"stake_id": stakeID,
		"ward_id":  wardID,
		"email":    email,
	}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Member{}, ErrNotFound
	}
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// CountByWard returns the member count for a ward.
func (s *Store) CountByWard(ctx context.Context, stakeID, wardID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"stake_id": stakeID, "ward_id": wardID})
}
