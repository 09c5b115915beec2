// internal/app/store/invites/invitestore.go
package invitestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("invite not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invites")}
}

func (s *Store) Create(ctx context.Context, inv models.Invite) (models.Invite, error) {
	inv.ID = primitive.NewObjectID()
	if inv.SentAt.IsZero() {
		inv.SentAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return models.Invite{}, err
	}
	return inv, nil
}

// GetByToken resolves an unexpired invite token.
func (s *Store) GetByToken(ctx context.Context, token string) (models.Invite, error) {
	var inv models.Invite
	err := s.c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		return models.Invite{}, ErrNotFound
	}
	if err != nil {
		return models.Invite{}, err
	}
	return inv, nil
}

// DeleteByMember removes all invites for a member, used when the
// member is deleted.
func (s *Store) DeleteByMember(ctx context.Context, memberID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"member_id": memberID})
	return err
}
