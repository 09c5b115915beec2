package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calls chain: each adds to any route context already on the request.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateStake creates a test stake with the given name.
func (f *Fixtures) CreateStake(ctx context.Context, name string) models.Stake {
	f.t.Helper()

	now := time.Now().UTC()
	stake := models.Stake{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("stakes").InsertOne(ctx, stake); err != nil {
		f.t.Fatalf("failed to create test stake: %v", err)
	}
	return stake
}

// CreateWard creates a test ward in the given stake.
func (f *Fixtures) CreateWard(ctx context.Context, name string, stakeID primitive.ObjectID) models.Ward {
	f.t.Helper()

	now := time.Now().UTC()
	ward := models.Ward{
		ID:        primitive.NewObjectID(),
		StakeID:   stakeID,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("wards").InsertOne(ctx, ward); err != nil {
		f.t.Fatalf("failed to create test ward: %v", err)
	}
	return ward
}

// CreateMember creates a test member on the ward roster.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email string, stakeID, wardID primitive.ObjectID) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	member := models.Member{
		ID:         primitive.NewObjectID(),
		StakeID:    stakeID,
		WardID:     wardID,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("members").InsertOne(ctx, member); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return member
}

// CreateMemberWithDetails creates a test member with roster details
// used by the filter tests.
func (f *Fixtures) CreateMemberWithDetails(ctx context.Context, fullName, dob, marital string, children int, stakeID, wardID primitive.ObjectID) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	member := models.Member{
		ID:            primitive.NewObjectID(),
		StakeID:       stakeID,
		WardID:        wardID,
		FullName:      fullName,
		FullNameCI:    text.Fold(fullName),
		DOB:           dob,
		MaritalStatus: marital,
		NumChildren:   children,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("members").InsertOne(ctx, member); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return member
}

// CreateCircle creates a test circle holding the given members.
func (f *Fixtures) CreateCircle(ctx context.Context, name string, stakeID, wardID primitive.ObjectID, memberIDs ...primitive.ObjectID) models.Circle {
	f.t.Helper()

	if memberIDs == nil {
		memberIDs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	circle := models.Circle{
		ID:        primitive.NewObjectID(),
		StakeID:   stakeID,
		WardID:    wardID,
		Name:      name,
		NameCI:    text.Fold(name),
		MemberIDs: memberIDs,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("circles").InsertOne(ctx, circle); err != nil {
		f.t.Fatalf("failed to create test circle: %v", err)
	}
	return circle
}
