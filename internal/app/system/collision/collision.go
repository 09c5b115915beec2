// internal/app/system/collision/collision.go

// Package collision decides which drop target a drag gesture ends over.
//
// The gesture layer reports an ambiguous picture: the pointer may sit
// over a circle, over a member card inside some list, over the
// available-pool panel, or over nothing while the dragged card still
// overlaps a nearby target. Resolve turns that picture into a single
// destination using a pointer-first strategy with an expanded-rectangle
// overlap fallback. It is a pure function of its inputs so it can be
// tested without any gesture system at all.
package collision

import "sort"

// Kind tags a registered droppable region.
type Kind string

const (
	KindCircle    Kind = "circle"
	KindAvailable Kind = "available"
	KindMember    Kind = "member"
)

// Margin, in px, by which droppable rects are expanded during the
// overlap fallback.
const ExpandMargin = 32.0

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Point is a pointer position in the same coordinate space as Rect.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

func (r Rect) expand(by float64) Rect {
	return Rect{Left: r.Left - by, Top: r.Top - by, Right: r.Right + by, Bottom: r.Bottom + by}
}

// intersectArea returns the overlap area of a and b, 0 when disjoint.
func intersectArea(a, b Rect) float64 {
	w := min(a.Right, b.Right) - max(a.Left, b.Left)
	h := min(a.Bottom, b.Bottom) - max(a.Top, b.Top)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Droppable is one registered drop region. For KindMember cards,
// CircleID names the card's parent circle; empty means the card sits in
// the available pool. For KindCircle regions, CircleID is the circle
// itself. Registration order matters: it is the tiebreak for equal
// overlap scores.
type Droppable struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	CircleID string `json:"circle_id,omitempty"`
	Rect     Rect   `json:"rect"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Session is the transient drag state between drag-start and drag-end.
// SourceCircleID is empty when the member was dragged out of the
// available pool. HasPointer is false when the gesture system could not
// supply a final pointer position (keyboard-driven drags).
type Session struct {
	MemberID       string `json:"member_id"`
	SourceCircleID string `json:"source_circle_id,omitempty"`
	Pointer        Point  `json:"pointer"`
	HasPointer     bool   `json:"has_pointer"`
	Rect           Rect   `json:"rect"`
}

// DestKind classifies a resolved destination.
type DestKind int

const (
	DestNone DestKind = iota
	DestAvailable
	DestCircle
)

// Destination is the resolver's verdict.
type Destination struct {
	Kind     DestKind
	CircleID string // set only for DestCircle
}

// None, Available, and ToCircle are convenience constructors.
func None() Destination              { return Destination{Kind: DestNone} }
func Available() Destination         { return Destination{Kind: DestAvailable} }
func ToCircle(id string) Destination { return Destination{Kind: DestCircle, CircleID: id} }

// Resolve picks the destination for a finished drag.
//
// Priority order:
//  1. pointer inside an available-pool region wins outright
//  2. pointer inside a member card resolves to that card's parent list;
//     a pool card reached from a circle drag resolves explicitly to the
//     pool (dropping onto a member means dropping onto their list)
//  3. pointer inside a circle region wins
//  4. otherwise each enabled circle/available rect is expanded by
//     ExpandMargin and the largest positive intersection with the
//     dragged rect wins, ties broken by registration order
//  5. nothing qualifies: DestNone
func Resolve(s Session, droppables []Droppable) Destination {
	if s.HasPointer {
		// Pointer hits are ranked by kind, not registration order: the
		// pool panel beats everything, a member card beats the circle
		// it visually sits inside.
		for _, kind := range []Kind{KindAvailable, KindMember, KindCircle} {
			for _, d := range droppables {
				if d.Disabled || d.Kind != kind || !d.Rect.Contains(s.Pointer) {
					continue
				}
				switch kind {
				case KindAvailable:
					return Available()
				case KindMember:
					if d.CircleID == "" {
						// Card lives in the pool. A drag that started in
						// a circle re-parents to the pool; a pool-to-pool
						// drop is still the pool.
						return Available()
					}
					return ToCircle(d.CircleID)
				case KindCircle:
					return ToCircle(d.CircleID)
				}
			}
		}
	}

	type scored struct {
		order int
		area  float64
		dest  Destination
	}
	var hits []scored

	for i, d := range droppables {
		if d.Disabled {
			continue
		}
		var dest Destination
		switch d.Kind {
		case KindCircle:
			dest = ToCircle(d.CircleID)
		case KindAvailable:
			dest = Available()
		default:
			// Member cards never participate in the overlap fallback.
			continue
		}
		area := intersectArea(s.Rect, d.Rect.expand(ExpandMargin))
		if area > 0 {
			hits = append(hits, scored{order: i, area: area, dest: dest})
		}
	}

	if len(hits) == 0 {
		return None()
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].area > hits[j].area })
	return hits[0].dest
}
