package assign

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/system/collision"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeStore is an in-memory Store with failure injection. Its move
// semantics mirror the mongo store: remove from the source first, then
// add to the destination, so a mid-move failure can leave the member in
// no circle while never leaving them in two.
type fakeStore struct {
	members []models.Member
	circles []models.Circle

	moveCalls int
	addCalls  int

	failMove    error // fail MoveMember before touching anything
	failMoveAdd error // fail MoveMember after the remove phase committed
	failAdd     error // fail AddMembers
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) ListMembers(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Member, error) {
	out := make([]models.Member, len(f.members))
	copy(out, f.members)
	return out, nil
}

func (f *fakeStore) ListCircles(ctx context.Context, stakeID, wardID primitive.ObjectID) ([]models.Circle, error) {
	out := make([]models.Circle, len(f.circles))
	for i, c := range f.circles {
		out[i] = c
		out[i].MemberIDs = append([]primitive.ObjectID(nil), c.MemberIDs...)
		if c.CaptainID != nil {
			id := *c.CaptainID
			out[i].CaptainID = &id
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCircle(ctx context.Context, c models.Circle) (models.Circle, error) {
	c.ID = primitive.NewObjectID()
	c.Version = 1
	if c.MemberIDs == nil {
		c.MemberIDs = []primitive.ObjectID{}
	}
	f.circles = append(f.circles, c)
	return c, nil
}

func (f *fakeStore) RenameCircle(ctx context.Context, id primitive.ObjectID, name string) error {
	for i := range f.circles {
		if f.circles[i].ID == id {
			f.circles[i].Name = name
			return nil
		}
	}
	return errors.New("circle not found")
}

func (f *fakeStore) DeleteCircle(ctx context.Context, id primitive.ObjectID) error {
	for i := range f.circles {
		if f.circles[i].ID == id {
			f.circles = append(f.circles[:i], f.circles[i+1:]...)
			return nil
		}
	}
	return errors.New("circle not found")
}

func (f *fakeStore) SetCaptain(ctx context.Context, id primitive.ObjectID, captainID *primitive.ObjectID, version int64) error {
	for i := range f.circles {
		if f.circles[i].ID == id && f.circles[i].Version == version {
			f.circles[i].CaptainID = captainID
			f.circles[i].Version++
			return nil
		}
	}
	return errors.New("version conflict")
}

func (f *fakeStore) AddMembers(ctx context.Context, id primitive.ObjectID, memberIDs []primitive.ObjectID, version int64) error {
	f.addCalls++
	if f.failAdd != nil {
		return f.failAdd
	}
	for i := range f.circles {
		if f.circles[i].ID != id || f.circles[i].Version != version {
			continue
		}
		for _, m := range memberIDs {
			if !f.circles[i].HasMember(m) {
				f.circles[i].MemberIDs = append(f.circles[i].MemberIDs, m)
			}
		}
		f.circles[i].Version++
		return nil
	}
	return errors.New("version conflict")
}

func (f *fakeStore) MoveMember(ctx context.Context, from, to *models.Circle, memberID primitive.ObjectID) error {
	f.moveCalls++
	if f.failMove != nil {
		return f.failMove
	}
	if from != nil {
		c := f.find(from.ID)
		if c == nil || c.Version != from.Version {
			return errors.New("version conflict")
		}
		kept := c.MemberIDs[:0]
		for _, id := range c.MemberIDs {
			if id != memberID {
				kept = append(kept, id)
			}
		}
		c.MemberIDs = kept
		if c.CaptainID != nil && *c.CaptainID == memberID {
			c.CaptainID = nil
		}
		c.Version++
	}
	if to != nil {
		if f.failMoveAdd != nil {
			return f.failMoveAdd
		}
		c := f.find(to.ID)
		if c == nil || c.Version != to.Version {
			return errors.New("version conflict")
		}
		if !c.HasMember(memberID) {
			c.MemberIDs = append(c.MemberIDs, memberID)
		}
		c.Version++
	}
	return nil
}

func (f *fakeStore) find(id primitive.ObjectID) *models.Circle {
	for i := range f.circles {
		if f.circles[i].ID == id {
			return &f.circles[i]
		}
	}
	return nil
}

// circlesHolding counts how many store circles contain the member.
func (f *fakeStore) circlesHolding(memberID primitive.ObjectID) int {
	n := 0
	for _, c := range f.circles {
		if c.HasMember(memberID) {
			n++
		}
	}
	return n
}

type fixture struct {
	store   *fakeStore
	stakeID primitive.ObjectID
	wardID  primitive.ObjectID
	members []models.Member
	red     models.Circle
	blue    models.Circle
}

// newFixture builds a ward with five members: alice and bob in red
// (alice is captain), carol in blue, dave and erin in the pool.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		stakeID: primitive.NewObjectID(),
		wardID:  primitive.NewObjectID(),
	}
	names := []string{"Alice Allred", "Bob Burton", "Carol Call", "Dave Dent", "Erin Eyre"}
	for _, n := range names {
		f.members = append(f.members, models.Member{
			ID:       primitive.NewObjectID(),
			StakeID:  f.stakeID,
			WardID:   f.wardID,
			FullName: n,
		})
	}
	alice := f.members[0].ID
	f.red = models.Circle{
		ID:        primitive.NewObjectID(),
		StakeID:   f.stakeID,
		WardID:    f.wardID,
		Name:      "Circle 1",
		MemberIDs: []primitive.ObjectID{alice, f.members[1].ID},
		CaptainID: &alice,
		Version:   1,
	}
	f.blue = models.Circle{
		ID:        primitive.NewObjectID(),
		StakeID:   f.stakeID,
		WardID:    f.wardID,
		Name:      "Circle 2",
		MemberIDs: []primitive.ObjectID{f.members[2].ID},
		Version:   1,
	}
	f.store = &fakeStore{
		members: f.members,
		circles: []models.Circle{f.red, f.blue},
	}
	return f
}

func (f *fixture) load(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := Load(context.Background(), f.store, f.stakeID, f.wardID, zap.NewNop(), opts...)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}

func TestMove_PoolToCircle(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	dave := f.members[3].ID

	outcome, err := e.Move(context.Background(), dave, collision.ToCircle(f.red.ID.Hex()))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if outcome != OutcomeMoved {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeMoved)
	}
	c, _ := e.Circle(f.red.ID)
	if !c.HasMember(dave) {
		t.Error("snapshot circle does not hold the moved member")
	}
	if sc := f.store.find(f.red.ID); !sc.HasMember(dave) {
		t.Error("store circle does not hold the moved member")
	}
	for _, m := range e.Available() {
		if m.ID == dave {
			t.Error("moved member still in the available pool")
		}
	}
}

func TestMove_CircleToCircle_ClearsCaptain(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	alice := f.members[0].ID

	outcome, err := e.Move(context.Background(), alice, collision.ToCircle(f.blue.ID.Hex()))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if outcome != OutcomeMoved {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeMoved)
	}
	red, _ := e.Circle(f.red.ID)
	if red.HasMember(alice) {
		t.Error("member still in source circle")
	}
	if red.CaptainID != nil {
		t.Error("captaincy not cleared on move out")
	}
	if sc := f.store.find(f.red.ID); sc.CaptainID != nil {
		t.Error("store captaincy not cleared on move out")
	}
	blue, _ := e.Circle(f.blue.ID)
	if !blue.HasMember(alice) {
		t.Error("member missing from destination circle")
	}
	if n := f.store.circlesHolding(alice); n != 1 {
		t.Errorf("member held by %d circles, want 1", n)
	}
}

func TestMove_SelfDrop_IsNoopWithoutWrite(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	bob := f.members[1].ID

	outcome, err := e.Move(context.Background(), bob, collision.ToCircle(f.red.ID.Hex()))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if outcome != OutcomeNoop {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeNoop)
	}
	if f.store.moveCalls != 0 {
		t.Errorf("store MoveMember called %d times, want 0", f.store.moveCalls)
	}
}

func TestMove_PoolToAvailable_IsNoopWithoutWrite(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	erin := f.members[4].ID

	outcome, err := e.Move(context.Background(), erin, collision.Available())
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if outcome != OutcomeNoop {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeNoop)
	}
	if f.store.moveCalls != 0 {
		t.Errorf("store MoveMember called %d times, want 0", f.store.moveCalls)
	}
}

func TestMove_DropOnNothing(t *testing.T) {
	t.Run("circle member removed under default policy", func(t *testing.T) {
		f := newFixture(t)
		e := f.load(t)
		bob := f.members[1].ID

		outcome, err := e.Move(context.Background(), bob, collision.None())
		if err != nil {
			t.Fatalf("Move: %v", err)
		}
		if outcome != OutcomeRemoved {
			t.Fatalf("outcome = %q, want %q", outcome, OutcomeRemoved)
		}
		red, _ := e.Circle(f.red.ID)
		if red.HasMember(bob) {
			t.Error("member still in circle after removal")
		}
		found := false
		for _, m := range e.Available() {
			if m.ID == bob {
				found = true
			}
		}
		if !found {
			t.Error("removed member not back in the available pool")
		}
	})

	t.Run("pure no-op when policy is off", func(t *testing.T) {
		f := newFixture(t)
		e := f.load(t, WithRemoveOnEmptyDrop(false))
		bob := f.members[1].ID

		outcome, err := e.Move(context.Background(), bob, collision.None())
		if err != nil {
			t.Fatalf("Move: %v", err)
		}
		if outcome != OutcomeNoop {
			t.Fatalf("outcome = %q, want %q", outcome, OutcomeNoop)
		}
		if f.store.moveCalls != 0 {
			t.Errorf("store MoveMember called %d times, want 0", f.store.moveCalls)
		}
	})

	t.Run("pool member never written either way", func(t *testing.T) {
		f := newFixture(t)
		e := f.load(t)
		dave := f.members[3].ID

		outcome, err := e.Move(context.Background(), dave, collision.None())
		if err != nil {
			t.Fatalf("Move: %v", err)
		}
		if outcome != OutcomeNoop {
			t.Fatalf("outcome = %q, want %q", outcome, OutcomeNoop)
		}
		if f.store.moveCalls != 0 {
			t.Errorf("store MoveMember called %d times, want 0", f.store.moveCalls)
		}
	})
}

func TestMove_UnknownMemberAndCircle(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)

	if _, err := e.Move(context.Background(), primitive.NewObjectID(), collision.Available()); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("unknown member: err = %v, want ErrMemberNotFound", err)
	}
	if _, err := e.Move(context.Background(), f.members[0].ID, collision.ToCircle(primitive.NewObjectID().Hex())); !errors.Is(err, ErrCircleNotFound) {
		t.Errorf("unknown circle: err = %v, want ErrCircleNotFound", err)
	}
	if f.store.moveCalls != 0 {
		t.Errorf("store MoveMember called %d times, want 0", f.store.moveCalls)
	}
}

func TestMove_StoreFailureReloadsSnapshot(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	bob := f.members[1].ID
	boom := errors.New("version conflict")
	f.store.failMove = boom

	_, err := e.Move(context.Background(), bob, collision.ToCircle(f.blue.ID.Hex()))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want injected failure", err)
	}
	// Snapshot must match the untouched store, not the attempted move.
	red, _ := e.Circle(f.red.ID)
	if !red.HasMember(bob) {
		t.Error("snapshot lost the member even though the store rejected the move")
	}
	blue, _ := e.Circle(f.blue.ID)
	if blue.HasMember(bob) {
		t.Error("snapshot gained the member even though the store rejected the move")
	}
}

func TestMove_PartialFailureNeverDuplicates(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	bob := f.members[1].ID
	boom := errors.New("add phase lost")
	f.store.failMoveAdd = boom

	_, err := e.Move(context.Background(), bob, collision.ToCircle(f.blue.ID.Hex()))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want injected failure", err)
	}
	// Remove-before-add: the member may land in the pool, never in two
	// circles at once.
	if n := f.store.circlesHolding(bob); n > 1 {
		t.Fatalf("member held by %d circles after partial failure", n)
	}
	// The reloaded snapshot agrees with the store.
	red, _ := e.Circle(f.red.ID)
	blue, _ := e.Circle(f.blue.ID)
	if red.HasMember(bob) || blue.HasMember(bob) {
		t.Error("snapshot diverges from store after partial failure")
	}
	found := false
	for _, m := range e.Available() {
		if m.ID == bob {
			found = true
		}
	}
	if !found {
		t.Error("member not shown in the pool after partial failure")
	}
}

func TestResolveDrop_PointerOverCircle(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	dave := f.members[3].ID

	session := collision.Session{
		MemberID:   dave.Hex(),
		Pointer:    collision.Point{X: 450, Y: 150},
		HasPointer: true,
		Rect:       collision.Rect{Left: 420, Top: 120, Right: 580, Bottom: 160},
	}
	droppables := []collision.Droppable{
		{ID: "available", Kind: collision.KindAvailable, Rect: collision.Rect{Left: 0, Top: 0, Right: 300, Bottom: 600}},
		{ID: f.red.ID.Hex(), Kind: collision.KindCircle, CircleID: f.red.ID.Hex(), Rect: collision.Rect{Left: 320, Top: 0, Right: 620, Bottom: 280}},
		{ID: f.blue.ID.Hex(), Kind: collision.KindCircle, CircleID: f.blue.ID.Hex(), Rect: collision.Rect{Left: 320, Top: 320, Right: 620, Bottom: 600}},
	}

	outcome, err := e.ResolveDrop(context.Background(), session, droppables)
	if err != nil {
		t.Fatalf("ResolveDrop: %v", err)
	}
	if outcome != OutcomeMoved {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeMoved)
	}
	red, _ := e.Circle(f.red.ID)
	if !red.HasMember(dave) {
		t.Error("drop did not land in the circle under the pointer")
	}
}

func TestResolveDrop_BadMemberID(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)

	_, err := e.ResolveDrop(context.Background(), collision.Session{MemberID: "not-a-hex-id"}, nil)
	if err == nil {
		t.Fatal("expected an error for a malformed member id")
	}
}

func TestCreateCircle_DefaultNames(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)

	c, err := e.CreateCircle(context.Background())
	if err != nil {
		t.Fatalf("CreateCircle: %v", err)
	}
	if c.Name != "Circle 3" {
		t.Errorf("name = %q, want %q", c.Name, "Circle 3")
	}
	c2, err := e.CreateCircle(context.Background())
	if err != nil {
		t.Fatalf("CreateCircle: %v", err)
	}
	if c2.Name != "Circle 4" {
		t.Errorf("name = %q, want %q", c2.Name, "Circle 4")
	}
	if len(e.Circles()) != 4 {
		t.Errorf("snapshot has %d circles, want 4", len(e.Circles()))
	}
}

func TestRenameCircle(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)

	if err := e.RenameCircle(context.Background(), f.red.ID, "  Ministering North  "); err != nil {
		t.Fatalf("RenameCircle: %v", err)
	}
	c, _ := e.Circle(f.red.ID)
	if c.Name != "Ministering North" {
		t.Errorf("name = %q, want trimmed rename", c.Name)
	}

	// Empty and unchanged names are silently ignored.
	if err := e.RenameCircle(context.Background(), f.red.ID, "   "); err != nil {
		t.Fatalf("RenameCircle(blank): %v", err)
	}
	if err := e.RenameCircle(context.Background(), f.red.ID, "Ministering North"); err != nil {
		t.Fatalf("RenameCircle(same): %v", err)
	}
	c, _ = e.Circle(f.red.ID)
	if c.Name != "Ministering North" {
		t.Errorf("name = %q after no-op renames", c.Name)
	}

	if err := e.RenameCircle(context.Background(), primitive.NewObjectID(), "x"); !errors.Is(err, ErrCircleNotFound) {
		t.Errorf("unknown circle: err = %v, want ErrCircleNotFound", err)
	}
}

func TestDeleteCircle_ReturnsMembersToPool(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)

	if err := e.DeleteCircle(context.Background(), f.red.ID); err != nil {
		t.Fatalf("DeleteCircle: %v", err)
	}
	if _, ok := e.Circle(f.red.ID); ok {
		t.Error("deleted circle still in snapshot")
	}
	pool := e.Available()
	for _, want := range []primitive.ObjectID{f.members[0].ID, f.members[1].ID} {
		found := false
		for _, m := range pool {
			if m.ID == want {
				found = true
			}
		}
		if !found {
			t.Errorf("former circle member %s not returned to the pool", want.Hex())
		}
	}
}

func TestSetCaptain(t *testing.T) {
	f := newFixture(t)
	e := f.load(t)
	bob := f.members[1].ID
	dave := f.members[3].ID

	if err := e.SetCaptain(context.Background(), f.red.ID, &bob); err != nil {
		t.Fatalf("SetCaptain: %v", err)
	}
	c, _ := e.Circle(f.red.ID)
	if c.CaptainID == nil || *c.CaptainID != bob {
		t.Error("captain not updated in snapshot")
	}

	// A non-member cannot be captain; rejected before any write.
	before := f.store.find(f.red.ID).Version
	if err := e.SetCaptain(context.Background(), f.red.ID, &dave); !errors.Is(err, ErrCaptainNotMember) {
		t.Errorf("err = %v, want ErrCaptainNotMember", err)
	}
	if f.store.find(f.red.ID).Version != before {
		t.Error("store written despite invalid captain")
	}

	// Clearing the captain is always allowed.
	if err := e.SetCaptain(context.Background(), f.red.ID, nil); err != nil {
		t.Fatalf("SetCaptain(nil): %v", err)
	}
	c, _ = e.Circle(f.red.ID)
	if c.CaptainID != nil {
		t.Error("captain not cleared")
	}
}

func TestAddMembers(t *testing.T) {
	t.Run("pool members join in one batch", func(t *testing.T) {
		f := newFixture(t)
		e := f.load(t)
		ids := []primitive.ObjectID{f.members[3].ID, f.members[4].ID}

		if err := e.AddMembers(context.Background(), f.blue.ID, ids); err != nil {
			t.Fatalf("AddMembers: %v", err)
		}
		c, _ := e.Circle(f.blue.ID)
		for _, id := range ids {
			if !c.HasMember(id) {
				t.Errorf("member %s missing from circle", id.Hex())
			}
		}
		if len(e.Available()) != 0 {
			t.Errorf("pool has %d members, want 0", len(e.Available()))
		}
	})

	t.Run("batch with a cross-circle member is rejected whole", func(t *testing.T) {
		f := newFixture(t)
		e := f.load(t)
		ids := []primitive.ObjectID{f.members[3].ID, f.members[0].ID} // alice is in red

		err := e.AddMembers(context.Background(), f.blue.ID, ids)
		if err == nil {
			t.Fatal("expected rejection for a member already in another circle")
		}
		if f.store.addCalls != 0 {
			t.Errorf("store AddMembers called %d times, want 0", f.store.addCalls)
		}
		if n := f.store.circlesHolding(f.members[3].ID); n != 0 {
			t.Errorf("pool member ended up in %d circles", n)
		}
	})

	t.Run("store failure reloads without local change", func(t *testing.T) {
		f := newFixture(t)
		e := f.load(t)
		f.store.failAdd = fmt.Errorf("version conflict")

		err := e.AddMembers(context.Background(), f.blue.ID, []primitive.ObjectID{f.members[3].ID})
		if err == nil {
			t.Fatal("expected injected failure")
		}
		c, _ := e.Circle(f.blue.ID)
		if c.HasMember(f.members[3].ID) {
			t.Error("snapshot gained the member despite store failure")
		}
	})
}
