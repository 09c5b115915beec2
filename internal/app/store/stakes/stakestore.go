// internal/app/store/stakes/stakestore.go
package stakestore

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
	ErrNotFound           = errors.New("stake not found")
	ErrDuplicateStakeName = errors.New("a stake with this name already exists")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("stakes")}
}

func (s *Store) List(ctx context.Context) ([]models.Stake, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var stakes []models.Stake
	if err := cur.All(ctx, &stakes); err != nil {
		return nil, err
	}
	return stakes, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Stake, error) {
	var st models.Stake
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Stake{}, ErrNotFound
		}
		return models.Stake{}, err
	}
	return st, nil
}

func (s *Store) Create(ctx context.Context, st models.Stake) (models.Stake, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.NameCI = text.Fold(st.Name)
	st.CreatedAt = now
	st.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Stake{}, ErrDuplicateStakeName
		}
		return models.Stake{}, err
	}
	return st, nil
}

func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateStakeName
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
