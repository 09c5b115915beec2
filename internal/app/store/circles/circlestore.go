// internal/app/store/circles/circlestore.go
package circlestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store owns typed access to the circles collection. Every membership
// write is a read-modify-write conditioned on the circle's version so a
// concurrent change is surfaced as ErrVersionConflict instead of being
// overwritten.
type Store struct {
	c *mongo.Collection
}

var (
	ErrVersionConflict     = errors.New("circle was modified concurrently; reload and retry")
	ErrDuplicateCircleName = errors.New("a circle with this name already exists in the ward")
	ErrCaptainNotMember    = errors.New("captain must be a current member of the circle")
	ErrNotFound            = errors.New("circle not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("circles")}
}

// ListByWard returns all circles for one ward, normalized on read
// (duplicate member ids collapsed, dangling captains cleared).
func (s *Store) ListByWard(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Circle, error) {
	cur, err := s.c.Find(ctx, bson.M{"stake_id": stakeID, "ward_id": wardID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var circles []models.Circle
	if err := cur.All(ctx, &circles); err != nil {
		return nil, err
	}
	for i := range circles {
		circles[i].Normalize()
	}
	return circles, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Circle, error) {
	var c models.Circle
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Circle{}, ErrNotFound
		}
		return models.Circle{}, err
	}
	c.Normalize()
	return c, nil
}

// Create inserts a new circle. ID, NameCI, Version, and timestamps are
// assigned here; MemberIDs defaults to an empty (not nil) array so the
// document always carries the field.
func (s *Store) Create(ctx context.Context, c models.Circle) (models.Circle, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	if c.MemberIDs == nil {
		c.MemberIDs = []primitive.ObjectID{}
	}
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Circle{}, ErrDuplicateCircleName
		}
		return models.Circle{}, err
	}
	return c, nil
}

func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateCircleName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the circle document. The members it referenced become
// available again by derivation; there is nothing else to cascade.
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

// SetCaptain assigns or clears (nil) the captain, conditioned on the
// caller's snapshot version. A non-nil captain must already be in
// member_ids; that membership is part of the update filter, so a
// concurrent removal of the would-be captain also rejects the write.
func (s *Store) SetCaptain(ctx context.Context, id primitive.ObjectID, captainID *primitive.ObjectID, version int64) error {
	filter := bson.M{"_id": id, "version": version}
	update := bson.M{
		"$inc": bson.M{"version": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	if captainID != nil {
		filter["member_ids"] = *captainID
		update["$set"].(bson.M)["captain_id"] = *captainID
	} else {
		update["$unset"] = bson.M{"captain_id": ""}
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if captainID == nil {
			return ErrVersionConflict
		}
		// Distinguish a stale snapshot from a captain who is not (or is
		// no longer) a member.
		cur, gerr := s.GetByID(ctx, id)
		if gerr == nil && cur.Version == version {
			return ErrCaptainNotMember
		}
		return ErrVersionConflict
	}
	return nil
}

// AddMembers appends memberIDs to the circle, conditioned on version.
// $addToSet keeps the append idempotent: a member already present is
// not duplicated, which guards against duplicate-event races.
func (s *Store) AddMembers(ctx context.Context, id primitive.ObjectID, memberIDs []primitive.ObjectID, version int64) error {
	if len(memberIDs) == 0 {
		return nil
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "version": version},
		bson.M{
			"$addToSet": bson.M{"member_ids": bson.M{"$each": memberIDs}},
			"$inc":      bson.M{"version": 1},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// removeMember pulls one member out of the circle, conditioned on the
// snapshot version, clearing the captain when it was that member.
func (s *Store) removeMember(ctx context.Context, from models.Circle, memberID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"member_ids": memberID},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	if from.CaptainID != nil && *from.CaptainID == memberID {
		update["$unset"] = bson.M{"captain_id": ""}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": from.ID, "version": from.Version}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// MoveMember relocates one member between the pool and circles as a
// remove-then-add pair of conditional writes. Mongo gives no
// multi-document transaction guarantee here, so the order is chosen to
// protect the exclusivity invariant: the member is pulled from the
// source circle before being added anywhere else. If the second write
// fails the member is transiently in no circle (safe); the caller must
// report the move failed and reload authoritative state.
//
// from and to are the caller's snapshot of the source and destination
// circles; nil means the available pool on that side. Their Version
// fields drive the conflict detection.
func (s *Store) MoveMember(ctx context.Context, from, to *models.Circle, memberID primitive.ObjectID) error {
	if from != nil && to != nil && from.ID == to.ID {
		return nil
	}

	if from != nil {
		if err := s.removeMember(ctx, *from, memberID); err != nil {
			return fmt.Errorf("remove from %s: %w", from.Name, err)
		}
	}
	if to != nil {
		if err := s.AddMembers(ctx, to.ID, []primitive.ObjectID{memberID}, to.Version); err != nil {
			return fmt.Errorf("add to %s: %w", to.Name, err)
		}
	}
	return nil
}

// RemoveMemberEverywhere pulls a member out of every circle in the ward
// and clears any captaincy they held. Used when a member is deleted or
// transferred to another ward. Not version-conditioned: the member is
// leaving regardless of concurrent edits.
func (s *Store) RemoveMemberEverywhere(ctx context.Context, stakeID, wardID, memberID primitive.ObjectID) error {
	scope := bson.M{"stake_id": stakeID, "ward_id": wardID}

	captained := bson.M{"captain_id": memberID}
	for k, v := range scope {
		captained[k] = v
	}
	if _, err := s.c.UpdateMany(ctx, captained, bson.M{
		"$unset": bson.M{"captain_id": ""},
		"$inc":   bson.M{"version": 1},
	}); err != nil {
		return err
	}

	holding := bson.M{"member_ids": memberID}
	for k, v := range scope {
		holding[k] = v
	}
	_, err := s.c.UpdateMany(ctx, holding, bson.M{
		"$pull": bson.M{"member_ids": memberID},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// CountByWard returns the number of circles in a ward.
func (s *Store) CountByWard(ctx context.Context, stakeID, wardID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"stake_id": stakeID, "ward_id": wardID})
}
