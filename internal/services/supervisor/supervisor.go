package supervisor

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Runner is one camera's pipeline loop. Run blocks until the loop ends.
type Runner interface {
	Run(ctx context.Context)
	State() string
}

// Factory builds a fresh runner for a camera.
type Factory func(cameraID int64) Runner

type handle struct {
	runner Runner
	cancel context.CancelFunc
	done   chan struct{}
}

// PipelineInfo describes a supervised loop.
type PipelineInfo struct {
	CameraID int64    `json:"camera_id"`
	State    string   `json:"state"`
	Viewers  []string `json:"viewers"`
}

// Supervisor keeps at most one loop per camera and the viewer set of every camera.
type Supervisor struct {
	mu      sync.Mutex
	loops   map[int64]*handle
	viewers map[int64]map[string]struct{}
	closed  bool
	limit   int

	factory Factory
	wg      sync.WaitGroup
	logger  zerolog.Logger
}

func New(factory Factory, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		loops:   make(map[int64]*handle),
		viewers: make(map[int64]map[string]struct{}),
		factory: factory,
		logger:  logger,
	}
}

// SetLimit caps the number of concurrent loops. Zero means unlimited.
func (s *Supervisor) SetLimit(n int) {
	s.mu.Lock()
	s.limit = n
	s.mu.Unlock()
}

// Enable registers viewerID (when set) and starts the camera's loop if none is running.
func (s *Supervisor) Enable(cameraID int64, viewerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.join(cameraID, viewerID)
	return s.ensure(cameraID)
}

// Join registers a viewer without starting anything.
func (s *Supervisor) Join(cameraID int64, viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.join(cameraID, viewerID)
}

func (s *Supervisor) join(cameraID int64, viewerID string) {
	if viewerID == "" {
		return
	}
	set, ok := s.viewers[cameraID]
	if !ok {
		set = make(map[string]struct{})
		s.viewers[cameraID] = set
	}
	set[viewerID] = struct{}{}
}

// Leave removes a viewer from one camera. The loop keeps running headless.
func (s *Supervisor) Leave(cameraID int64, viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.viewers[cameraID]; ok {
		delete(set, viewerID)
		if len(set) == 0 {
			delete(s.viewers, cameraID)
		}
	}
}

// LeaveAll removes a viewer from every camera.
func (s *Supervisor) LeaveAll(viewerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for cameraID, set := range s.viewers {
		delete(set, viewerID)
		if len(set) == 0 {
			delete(s.viewers, cameraID)
		}
	}
}

// Disable signals the camera's loop to stop and forgets its handle without waiting.
func (s *Supervisor) Disable(cameraID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.loops[cameraID]
	if !ok {
		return false
	}
	h.cancel()
	delete(s.loops, cameraID)
	s.logger.Info().Int64("camera_id", cameraID).Msg("Pipeline stop requested")
	return true
}

// ensure starts a loop when none is registered; callers hold s.mu.
func (s *Supervisor) ensure(cameraID int64) bool {
	if s.closed {
		return false
	}
	if h, ok := s.loops[cameraID]; ok {
		select {
		case <-h.done:
			delete(s.loops, cameraID)
		default:
			return false
		}
	}
	if s.limit > 0 && len(s.loops) >= s.limit {
		s.logger.Warn().Int64("camera_id", cameraID).Int("max_cameras", s.limit).Msg("Maximum number of pipelines reached")
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{runner: s.factory(cameraID), cancel: cancel, done: make(chan struct{})}
	s.loops[cameraID] = h

	s.wg.Add(1)
	go s.run(cameraID, ctx, h)

	s.logger.Info().Int64("camera_id", cameraID).Msg("Pipeline started")
	return true
}

func (s *Supervisor) run(cameraID int64, ctx context.Context, h *handle) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Int64("camera_id", cameraID).Interface("panic", r).Msg("Pipeline panic recovered")
		}
		close(h.done)
		h.cancel()

		s.mu.Lock()
		if s.loops[cameraID] == h {
			delete(s.loops, cameraID)
		}
		s.mu.Unlock()
	}()

	h.runner.Run(ctx)
}

// Running reports whether a loop is registered and has not exited.
func (s *Supervisor) Running(cameraID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.loops[cameraID]
	if !ok {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Viewers returns the camera's viewer ids in sorted order.
func (s *Supervisor) Viewers(cameraID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := lo.Keys(s.viewers[cameraID])
	sort.Strings(ids)
	return ids
}

// Pipelines lists the registered loops ordered by camera id.
func (s *Supervisor) Pipelines() []PipelineInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PipelineInfo, 0, len(s.loops))
	for cameraID, h := range s.loops {
		viewers := lo.Keys(s.viewers[cameraID])
		sort.Strings(viewers)
		out = append(out, PipelineInfo{CameraID: cameraID, State: h.runner.State(), Viewers: viewers})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CameraID < out[j].CameraID })
	return out
}

// Shutdown stops every loop and waits for all of them, including ones already disabled.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for cameraID, h := range s.loops {
		h.cancel()
		delete(s.loops, cameraID)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All pipelines stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
