// internal/app/system/assign/lifecycle.go
package assign

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/circlehub/internal/app/system/metrics"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateCircle makes a new empty circle named "Circle N" where N is the
// current count plus one, matching what admins expect from the screen.
func (e *Engine) CreateCircle(ctx context.Context) (models.Circle, error) {
	c := models.Circle{
		StakeID: e.stakeID,
		WardID:  e.wardID,
		Name:    fmt.Sprintf("Circle %d", len(e.circles)+1),
	}
	created, err := e.store.CreateCircle(ctx, c)
	if err != nil {
		return models.Circle{}, err
	}
	e.circles = append(e.circles, created)
	metrics.CircleOps.WithLabelValues("create").Inc()
	return created, nil
}

// RenameCircle updates a circle's display name. Empty and unchanged
// names are rejected silently: no write, no error.
func (e *Engine) RenameCircle(ctx context.Context, id primitive.ObjectID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	c, ok := e.Circle(id)
	if !ok {
		return ErrCircleNotFound
	}
	if c.Name == name {
		return nil
	}
	if err := e.store.RenameCircle(ctx, id, name); err != nil {
		return err
	}
	for i := range e.circles {
		if e.circles[i].ID == id {
			e.circles[i].Name = name
		}
	}
	metrics.CircleOps.WithLabelValues("rename").Inc()
	return nil
}

// DeleteCircle removes a circle. Its members return to the available
// pool: the pool is derived from circle membership, so dropping the
// circle from the snapshot is exactly the store's cascading semantics —
// members are never left referencing a deleted circle.
func (e *Engine) DeleteCircle(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := e.Circle(id); !ok {
		return ErrCircleNotFound
	}
	if err := e.store.DeleteCircle(ctx, id); err != nil {
		if rerr := e.Reload(ctx); rerr != nil {
			e.log.Error("reload after failed circle delete", zap.Error(rerr))
		}
		return err
	}
	kept := e.circles[:0]
	for _, c := range e.circles {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	e.circles = kept
	metrics.CircleOps.WithLabelValues("delete").Inc()
	return nil
}

// SetCaptain assigns captainID (or clears it when nil) on a circle.
// A captain who is not currently in the circle is rejected locally
// before any store call.
func (e *Engine) SetCaptain(ctx context.Context, circleID primitive.ObjectID, captainID *primitive.ObjectID) error {
	c, ok := e.Circle(circleID)
	if !ok {
		return ErrCircleNotFound
	}
	if captainID != nil && !c.HasMember(*captainID) {
		return ErrCaptainNotMember
	}
	if err := e.store.SetCaptain(ctx, circleID, captainID, c.Version); err != nil {
		if rerr := e.Reload(ctx); rerr != nil {
			e.log.Error("reload after failed captain change", zap.Error(rerr))
		}
		return err
	}
	for i := range e.circles {
		if e.circles[i].ID == circleID {
			e.circles[i].CaptainID = captainID
			e.circles[i].Version++
		}
	}
	metrics.CircleOps.WithLabelValues("set_captain").Inc()
	return nil
}

// AddMembers appends a batch of pool members to a circle as one logical
// operation. Ids not found in the ward are rejected up front; ids
// already in some circle are rejected too, so a partial batch can never
// put a member in two places. On store failure the snapshot reloads and
// nothing is applied locally.
func (e *Engine) AddMembers(ctx context.Context, circleID primitive.ObjectID, memberIDs []primitive.ObjectID) error {
	c, ok := e.Circle(circleID)
	if !ok {
		return ErrCircleNotFound
	}
	if len(memberIDs) == 0 {
		return nil
	}

	for _, id := range memberIDs {
		if !e.memberExists(id) {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, id.Hex())
		}
		if holder := e.locate(id); holder != nil && holder.ID != circleID {
			return fmt.Errorf("member %s is already in circle %q", id.Hex(), holder.Name)
		}
	}

	if err := e.store.AddMembers(ctx, circleID, memberIDs, c.Version); err != nil {
		if rerr := e.Reload(ctx); rerr != nil {
			e.log.Error("reload after failed bulk add", zap.Error(rerr))
		}
		return err
	}

	for i := range e.circles {
		if e.circles[i].ID != circleID {
			continue
		}
		for _, id := range memberIDs {
			if !e.circles[i].HasMember(id) {
				e.circles[i].MemberIDs = append(e.circles[i].MemberIDs, id)
			}
		}
		e.circles[i].Version++
	}
	metrics.CircleOps.WithLabelValues("bulk_add").Inc()
	return nil
}
