// internal/app/store/wards/wardstore.go
package wardstore

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
	ErrNotFound          = errors.New("ward not found")
	ErrDuplicateWardName = errors.New("a ward with this name already exists in the stake")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("wards")}
}

func (s *Store) ListByStake(ctx context.Context, stakeID primitive.ObjectID) ([]models.Ward, error) {
	cur, err := s.c.Find(ctx, bson.M{"stake_id": stakeID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var wards []models.Ward
	if err := cur.All(ctx, &wards); err != nil {
		return nil, err
	}
	return wards, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Ward, error) {
	var w models.Ward
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&w); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Ward{}, ErrNotFound
		}
		return models.Ward{}, err
	}
	return w, nil
}

func (s *Store) Create(ctx context.Context, w models.Ward) (models.Ward, error) {
	now := time.Now().UTC()
	w.ID = primitive.NewObjectID()
	w.NameCI = text.Fold(w.Name)
	w.CreatedAt = now
	w.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, w); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Ward{}, ErrDuplicateWardName
		}
		return models.Ward{}, err
	}
	return w, nil
}

func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateWardName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

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
