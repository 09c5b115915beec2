// internal/app/system/assign/mongostore.go
package assign

import (
	"context"

	circlestore "github.com/dalemusser/circlehub/internal/app/store/circles"
	memberstore "github.com/dalemusser/circlehub/internal/app/store/members"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore adapts the per-collection stores to the engine's Store
// interface. It is constructed per request from the shared database
// handle, the same way feature handlers build their stores.
type MongoStore struct {
	members *memberstore.Store
	circles *circlestore.Store
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		members: memberstore.New(db),
		circles: circlestore.New(db),
	}
}

func (s *MongoStore) ListMembers(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Member, error) {
	return s.members.ListByWard(ctx, stakeID, wardID)
}

func (s *MongoStore) ListCircles(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Circle, error) {
	return s.circles.ListByWard(ctx, stakeID, wardID)
}

func (s *MongoStore) CreateCircle(ctx context.Context, c models.Circle) (models.Circle, error) {
	return s.circles.Create(ctx, c)
}

func (s *MongoStore) RenameCircle(ctx context.Context, id primitive.ObjectID, name string) error {
	return s.circles.Rename(ctx, id, name)
}

func (s *MongoStore) DeleteCircle(ctx context.Context, id primitive.ObjectID) error {
	return s.circles.Delete(ctx, id)
}

func (s *MongoStore) SetCaptain(ctx context.Context, id primitive.ObjectID, captainID *primitive.ObjectID, version int64) error {
	return s.circles.SetCaptain(ctx, id, captainID, version)
}

func (s *MongoStore) AddMembers(ctx context.Context, id primitive.ObjectID, memberIDs []primitive.ObjectID, version int64) error {
	return s.circles.AddMembers(ctx, id, memberIDs, version)
}

func (s *MongoStore) MoveMember(ctx context.Context, from, to *models.Circle, memberID primitive.ObjectID) error {
	return s.circles.MoveMember(ctx, from, to, memberID)
}
