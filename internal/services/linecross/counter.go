package linecross

import (
	"github.com/rs/zerolog/log"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/tracker"
)

// DefaultRearmDistance is how far from the line a counted identity must move before it can count again.
const DefaultRearmDistance = 50

// Crossing is one confirmed, not-yet-counted line crossing.
type Crossing struct {
	TrackID   int
	Direction models.Direction
}

// Counter turns track movement into crossings and re-arms identities that left the line.
type Counter struct {
	rearm float64
}

func NewCounter(rearm float64) *Counter {
	if rearm <= 0 {
		rearm = DefaultRearmDistance
	}
	return &Counter{rearm: rearm}
}

// Process checks candidates for crossings in order, marks counted identities in state,
// then clears the counted flag of every identity farther than the re-arm distance.
func (c *Counter) Process(line Line, candidates []tracker.Track, state *tracker.Tracker) []Crossing {
	var crossings []Crossing

	for _, tk := range candidates {
		if !tk.HasPrev {
			continue
		}
		if !line.Crosses(tk.PrevCenter, tk.Center) {
			continue
		}

		current, ok := state.Get(tk.ID)
		if !ok || current.Counted {
			continue
		}

		dir := line.Direction(tk.PrevCenter)
		state.SetCounted(tk.ID, true)
		crossings = append(crossings, Crossing{TrackID: tk.ID, Direction: dir})
	}

	for _, tk := range state.Snapshot() {
		if !tk.Counted {
			continue
		}
		if line.Distance(tk.Center) > c.rearm {
			state.SetCounted(tk.ID, false)
			log.Debug().Int("track_id", tk.ID).Msg("Counted flag re-armed")
		}
	}

	return crossings
}
