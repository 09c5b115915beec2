package roster

import (
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func member(name, dob string) models.Member {
	return models.Member{
		ID:       primitive.NewObjectID(),
		FullName: name,
		DOB:      dob,
	}
}

func TestParseDOB(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
		want   time.Time
	}{
		{"06/01/2010", true, time.Date(2010, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"6/1/2010", true, time.Date(2010, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"2010-06-01", true, time.Date(2010, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"not a date", false, time.Time{}},
		{"13/45/2010", false, time.Time{}},
	}
	for _, tt := range tests {
		got, ok := ParseDOB(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseDOB(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseDOB(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAgeAt_BirthdayRule(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		birth time.Time
		want  int
	}{
		{"birthday already passed", time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), 26},
		{"birthday today", time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC), 26},
		{"birthday tomorrow", time.Date(2000, time.June, 16, 0, 0, 0, 0, time.UTC), 25},
		{"birthday later this year", time.Date(2000, time.December, 31, 0, 0, 0, 0, time.UTC), 25},
	}
	for _, tt := range tests {
		if got := AgeAt(tt.birth, now); got != tt.want {
			t.Errorf("%s: AgeAt = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestAvailablePool(t *testing.T) {
	a := member("Alice", "")
	b := member("Bob", "")
	c := member("Carol", "")
	members := []models.Member{a, b, c}

	circles := []models.Circle{{
		ID:        primitive.NewObjectID(),
		Name:      "Circle 1",
		MemberIDs: []primitive.ObjectID{a.ID},
	}}

	pool := AvailablePool(members, circles)
	if len(pool) != 2 {
		t.Fatalf("pool size = %d, want 2", len(pool))
	}
	if pool[0].ID != b.ID || pool[1].ID != c.ID {
		t.Errorf("pool = %v, want [Bob, Carol]", pool)
	}

	// Empty circle list: everyone is available.
	if got := AvailablePool(members, nil); len(got) != 3 {
		t.Errorf("pool with no circles = %d members, want 3", len(got))
	}
}

func TestAvailablePool_RoundTripAfterDelete(t *testing.T) {
	a := member("Alice", "")
	b := member("Bob", "")
	members := []models.Member{a, b}

	c1 := models.Circle{ID: primitive.NewObjectID(), MemberIDs: []primitive.ObjectID{a.ID, b.ID}}
	if got := AvailablePool(members, []models.Circle{c1}); len(got) != 0 {
		t.Fatalf("pool = %d, want 0 while both assigned", len(got))
	}

	// Deleting the circle returns everyone to the pool.
	if got := AvailablePool(members, nil); len(got) != 2 {
		t.Errorf("pool after delete = %d, want 2", len(got))
	}
}

func TestApply_AgeFilterAsymmetry(t *testing.T) {
	// D is 16 at testNow; E has no DOB.
	d := member("Dana", "06/01/2010")
	e := member("Evan", "")
	pool := []models.Member{d, e}

	// Default range includes both.
	got := Apply(pool, DefaultFilters(), testNow)
	if len(got) != 2 {
		t.Fatalf("default range: %d members, want 2", len(got))
	}

	// Narrowed range keeps D and drops unknown-age E.
	f := DefaultFilters()
	f.AgeMin, f.AgeMax = 0, 17
	got = Apply(pool, f, testNow)
	if len(got) != 1 || got[0].ID != d.ID {
		t.Fatalf("narrowed range: got %d members, want only Dana", len(got))
	}

	// Range that excludes D's age drops both.
	f.AgeMin, f.AgeMax = 30, 40
	if got = Apply(pool, f, testNow); len(got) != 0 {
		t.Errorf("range [30,40]: %d members, want 0", len(got))
	}
}

func TestApply_FacetFilters(t *testing.T) {
	withEmail := member("Amy", "")
	withEmail.Email = "amy@example.com"
	withEmail.MaritalStatus = models.MaritalMarried
	withEmail.NumChildren = 2
	withEmail.HasLoggedIn = true
	withEmail.CulturalBackground = "Tongan"

	plain := member("Zed", "")

	pool := []models.Member{withEmail, plain}

	cases := []struct {
		name string
		mut  func(*Filters)
		want string
	}{
		{"has email yes", func(f *Filters) { f.HasEmail = FacetYes }, "Amy"},
		{"has email no", func(f *Filters) { f.HasEmail = FacetNo }, "Zed"},
		{"has children yes", func(f *Filters) { f.HasChildren = FacetYes }, "Amy"},
		{"has children no", func(f *Filters) { f.HasChildren = FacetNo }, "Zed"},
		{"married", func(f *Filters) { f.MaritalStatus = models.MaritalMarried }, "Amy"},
		{"logged in", func(f *Filters) { f.HasLoggedIn = FacetYes }, "Amy"},
		{"not logged in", func(f *Filters) { f.HasLoggedIn = FacetNo }, "Zed"},
		{"cultural background", func(f *Filters) { f.CulturalBackground = "tongan" }, "Amy"},
	}
	for _, tc := range cases {
		f := DefaultFilters()
		tc.mut(&f)
		got := Apply(pool, f, testNow)
		if len(got) != 1 || got[0].FullName != tc.want {
			t.Errorf("%s: got %d members (want only %s)", tc.name, len(got), tc.want)
		}
	}
}

func TestApply_Sort(t *testing.T) {
	old := member("Young Name First", "01/01/1950")
	young := member("Able", "01/01/2015")
	unknown := member("Mystery", "")
	pool := []models.Member{old, young, unknown}

	f := DefaultFilters()
	got := Apply(pool, f, testNow)
	if got[0].FullName != "Able" || got[1].FullName != "Mystery" {
		t.Errorf("name sort order wrong: %q, %q, %q", got[0].FullName, got[1].FullName, got[2].FullName)
	}

	// Age sort: unknown DOB sorts as age 0, ahead of everyone known.
	f.SortBy = SortByAge
	got = Apply(pool, f, testNow)
	if got[0].ID != unknown.ID {
		t.Errorf("age sort: first = %q, want unknown-age member", got[0].FullName)
	}
	if got[1].ID != young.ID || got[2].ID != old.ID {
		t.Errorf("age sort order wrong: %q then %q", got[1].FullName, got[2].FullName)
	}
}

func TestCircleMembers_SkipsUnresolvedIDs(t *testing.T) {
	a := member("Alice", "")
	c := models.Circle{MemberIDs: []primitive.ObjectID{a.ID, primitive.NewObjectID()}}

	got := CircleMembers(c, []models.Member{a})
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("CircleMembers = %v, want only Alice", got)
	}
}
