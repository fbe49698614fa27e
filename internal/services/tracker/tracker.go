package tracker

import (
	"image"
	"math"
	"sort"
	"sync"

	"linewatch-worker-go/internal/models"
)

// DefaultRadius is the gating distance for nearest-center matching, in pixels.
const DefaultRadius = 100

// Track is a tracked identity as of the latest frame.
type Track struct {
	ID         int
	Class      string
	Confidence float64
	Box        image.Rectangle
	Center     image.Point
	PrevCenter image.Point
	HasPrev    bool
	Counted    bool
}

// Tracker keeps identities of one camera across frames. The map is replaced on every update.
type Tracker struct {
	mu     sync.Mutex
	radius float64
	tracks map[int]*Track
}

func New(radius float64) *Tracker {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Tracker{radius: radius, tracks: make(map[int]*Track)}
}

// Update folds this frame's tracked detections into the identity map and returns the
// resulting tracks in detection order. Auxiliary detections are ignored.
// With native set, detector ids are used as-is and detections without one are dropped.
func (t *Tracker) Update(dets []models.Detection, native bool) []Track {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[int]*Track, len(dets))
	out := make([]Track, 0, len(dets))

	for _, d := range dets {
		if d.Kind != models.KindTracked {
			continue
		}

		var id int
		if native {
			if !d.HasTrackID {
				continue
			}
			id = d.TrackID
			if _, dup := next[id]; dup {
				continue
			}
		} else {
			id = t.match(d, next)
		}

		tr := &Track{
			ID:         id,
			Class:      d.Class,
			Confidence: d.Confidence,
			Box:        d.Box,
			Center:     d.Center(),
		}
		if prev, ok := t.tracks[id]; ok {
			tr.PrevCenter = prev.Center
			tr.HasPrev = true
			tr.Counted = prev.Counted
		}

		out = append(out, *tr)
		next[id] = tr
	}

	t.tracks = next
	return out
}

// match finds the nearest same-class identity strictly inside the radius that no earlier
// detection of this frame claimed, or mints max+1.
func (t *Tracker) match(d models.Detection, claimed map[int]*Track) int {
	center := d.Center()
	best := 0
	bestDist := math.Inf(1)

	for _, id := range sortedIDs(t.tracks) {
		if _, taken := claimed[id]; taken {
			continue
		}
		prev := t.tracks[id]
		if prev.Class != d.Class {
			continue
		}
		dist := distance(center, prev.Center)
		if dist < bestDist && dist < t.radius {
			bestDist = dist
			best = id
		}
	}
	if best != 0 {
		return best
	}

	maxID := 0
	for id := range t.tracks {
		maxID = max(maxID, id)
	}
	for id := range claimed {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

// SetCounted updates the counted flag of id if it is still tracked.
func (t *Tracker) SetCounted(id int, counted bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.tracks[id]
	if !ok {
		return false
	}
	tr.Counted = counted
	return true
}

// Get returns a copy of the track with id.
func (t *Tracker) Get(id int) (Track, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, ok := t.tracks[id]
	if !ok {
		return Track{}, false
	}
	return *tr, true
}

// Snapshot returns copies of all current tracks ordered by id.
func (t *Tracker) Snapshot() []Track {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Track, 0, len(t.tracks))
	for _, id := range sortedIDs(t.tracks) {
		out = append(out, *t.tracks[id])
	}
	return out
}

// Reset drops every identity.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.tracks = make(map[int]*Track)
	t.mu.Unlock()
}

func sortedIDs(m map[int]*Track) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
