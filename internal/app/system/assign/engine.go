// internal/app/system/assign/engine.go

// Package assign is the service layer behind the circle-assignment
// screen: it owns a ward snapshot (all members, all circles), relocates
// members between the available pool and circles, and runs the circle
// lifecycle operations. The snapshot is mutated optimistically on
// successful writes; any store failure leaves the snapshot untouched or
// reloads it from the authoritative store, so the membership
// exclusivity invariant is never silently violated by divergent local
// state.
package assign

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/circlehub/internal/app/system/collision"
	"github.com/dalemusser/circlehub/internal/app/system/metrics"
	"github.com/dalemusser/circlehub/internal/app/system/roster"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the persistence surface the engine needs. circlestore and
// memberstore provide it via MongoStore; tests provide an in-memory
// fake.
type Store interface {
	ListMembers(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Member, error)
	ListCircles(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Circle, error)
	CreateCircle(ctx context.Context, c models.Circle) (models.Circle, error)
	RenameCircle(ctx context.Context, id primitive.ObjectID, name string) error
	DeleteCircle(ctx context.Context, id primitive.ObjectID) error
	SetCaptain(ctx context.Context, id primitive.ObjectID, captainID *primitive.ObjectID, version int64) error
	AddMembers(ctx context.Context, id primitive.ObjectID, memberIDs []primitive.ObjectID, version int64) error
	MoveMember(ctx context.Context, from, to *models.Circle, memberID primitive.ObjectID) error
}

var (
	ErrMemberNotFound   = errors.New("member not found in ward")
	ErrCircleNotFound   = errors.New("circle not found in ward")
	ErrCaptainNotMember = errors.New("captain must be a current member of the circle")
)

// Move outcomes, also used as the metrics label.
const (
	OutcomeMoved   = "moved"
	OutcomeNoop    = "noop"
	OutcomeRemoved = "removed" // drop on empty space pulled the member back to the pool
)

// Engine holds one ward's assignment state. It is a per-request
// object: load, mutate, render. It is not safe for concurrent use.
type Engine struct {
	store Store
	log   *zap.Logger

	stakeID primitive.ObjectID
	wardID  primitive.ObjectID

	members []models.Member
	circles []models.Circle

	removeOnEmptyDrop bool
}

// Option configures an Engine at load time.
type Option func(*Engine)

// WithRemoveOnEmptyDrop controls the "drop on nothing" policy. When on
// (the default), a drag from a circle that resolves to no destination
// removes the member back to the available pool; when off it is a pure
// no-op. Either way the no-destination path without a removal never
// touches the store.
func WithRemoveOnEmptyDrop(on bool) Option {
	return func(e *Engine) { e.removeOnEmptyDrop = on }
}

// Load reads the ward's members and circles and returns a ready engine.
// A load failure returns the error as-is; callers surface it as a
// failed-to-load state rather than rendering partial data.
func Load(ctx context.Context, store Store, stakeID, wardID primitive.ObjectID, log *zap.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:             store,
		log:               log,
		stakeID:           stakeID,
		wardID:            wardID,
		removeOnEmptyDrop: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload replaces the snapshot with authoritative store state. Called
// after any failed write so the local view never diverges.
func (e *Engine) Reload(ctx context.Context) error {
	members, err := e.store.ListMembers(ctx, e.stakeID, e.wardID)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	circles, err := e.store.ListCircles(ctx, e.stakeID, e.wardID)
	if err != nil {
		return fmt.Errorf("load circles: %w", err)
	}
	e.members = members
	e.circles = circles
	return nil
}

// Members returns the full ward roster.
func (e *Engine) Members() []models.Member { return e.members }

// Circles returns the current circle list.
func (e *Engine) Circles() []models.Circle { return e.circles }

// Available derives the pool of members not in any circle.
func (e *Engine) Available() []models.Member {
	return roster.AvailablePool(e.members, e.circles)
}

// Circle returns the snapshot copy of one circle.
func (e *Engine) Circle(id primitive.ObjectID) (models.Circle, bool) {
	for _, c := range e.circles {
		if c.ID == id {
			return c, true
		}
	}
	return models.Circle{}, false
}

// locate finds which circle (if any) currently holds the member.
// nil means the available pool.
func (e *Engine) locate(memberID primitive.ObjectID) *models.Circle {
	for i := range e.circles {
		if e.circles[i].HasMember(memberID) {
			return &e.circles[i]
		}
	}
	return nil
}

func (e *Engine) memberExists(id primitive.ObjectID) bool {
	for _, m := range e.members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ResolveDrop runs the collision resolver over a finished drag and
// applies the result. The session's member and source-circle ids are
// hex strings as registered by the gesture layer.
func (e *Engine) ResolveDrop(ctx context.Context, s collision.Session, droppables []collision.Droppable) (string, error) {
	memberID, err := primitive.ObjectIDFromHex(s.MemberID)
	if err != nil {
		return OutcomeNoop, fmt.Errorf("bad member id %q: %w", s.MemberID, err)
	}
	return e.Move(ctx, memberID, collision.Resolve(s, droppables))
}

// Move relocates one member to the resolved destination. It returns
// one of the Outcome constants along with any store error; after an
// error the snapshot has already been reloaded from the store.
func (e *Engine) Move(ctx context.Context, memberID primitive.ObjectID, dest collision.Destination) (string, error) {
	if !e.memberExists(memberID) {
		return OutcomeNoop, ErrMemberNotFound
	}
	from := e.locate(memberID)

	var to *models.Circle
	outcome := OutcomeMoved
	switch dest.Kind {
	case collision.DestNone:
		// Drop on empty space. Per policy, a circle-sourced drag is
		// treated as removal back to the pool; otherwise nothing
		// happens and the store is never touched.
		if !e.removeOnEmptyDrop || from == nil {
			metrics.MemberMoves.WithLabelValues(OutcomeNoop).Inc()
			return OutcomeNoop, nil
		}
		outcome = OutcomeRemoved
	case collision.DestAvailable:
		// to stays nil
	case collision.DestCircle:
		id, err := primitive.ObjectIDFromHex(dest.CircleID)
		if err != nil {
			return OutcomeNoop, fmt.Errorf("bad circle id %q: %w", dest.CircleID, err)
		}
		for i := range e.circles {
			if e.circles[i].ID == id {
				to = &e.circles[i]
				break
			}
		}
		if to == nil {
			return OutcomeNoop, ErrCircleNotFound
		}
	}

	// No-op guard: destination equals current location.
	if (from == nil && to == nil && outcome != OutcomeRemoved) ||
		(from != nil && to != nil && from.ID == to.ID) {
		metrics.MemberMoves.WithLabelValues(OutcomeNoop).Inc()
		return OutcomeNoop, nil
	}
	if from == nil && to == nil {
		// "Removal" of a pool member is equally a no-op.
		metrics.MemberMoves.WithLabelValues(OutcomeNoop).Inc()
		return OutcomeNoop, nil
	}

	if err := e.store.MoveMember(ctx, from, to, memberID); err != nil {
		metrics.MemberMoves.WithLabelValues("error").Inc()
		e.log.Warn("member move failed; reloading ward state",
			zap.String("member_id", memberID.Hex()),
			zap.Error(err))
		if rerr := e.Reload(ctx); rerr != nil {
			return OutcomeNoop, errors.Join(err, rerr)
		}
		return OutcomeNoop, err
	}

	e.applyMoveLocally(from, to, memberID)
	metrics.MemberMoves.WithLabelValues(outcome).Inc()
	return outcome, nil
}

// applyMoveLocally mirrors a committed move into the snapshot: remove
// from the source circle (clearing its captain when it was the moved
// member), idempotently append to the destination, and bump the local
// versions to match the store's $inc.
func (e *Engine) applyMoveLocally(from, to *models.Circle, memberID primitive.ObjectID) {
	if from != nil {
		kept := from.MemberIDs[:0]
		for _, id := range from.MemberIDs {
			if id != memberID {
				kept = append(kept, id)
			}
		}
		from.MemberIDs = kept
		if from.CaptainID != nil && *from.CaptainID == memberID {
			from.CaptainID = nil
		}
		from.Version++
	}
	if to != nil {
		if !to.HasMember(memberID) {
			to.MemberIDs = append(to.MemberIDs, memberID)
		}
		to.Version++
	}
}
