package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeRunner struct {
	started atomic.Int32
	exit    chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context) {
	f.started.Add(1)
	select {
	case <-ctx.Done():
	case <-f.exit:
	}
}

func (f *fakeRunner) State() string { return "running" }

type fakeFactory struct {
	mu      sync.Mutex
	runners map[int64][]*fakeRunner
}

func (f *fakeFactory) build(cameraID int64) Runner {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &fakeRunner{exit: make(chan struct{})}
	f.runners[cameraID] = append(f.runners[cameraID], r)
	return r
}

func (f *fakeFactory) count(cameraID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runners[cameraID])
}

func (f *fakeFactory) last(cameraID int64) *fakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	rs := f.runners[cameraID]
	return rs[len(rs)-1]
}

func newSupervisor() (*Supervisor, *fakeFactory) {
	f := &fakeFactory{runners: make(map[int64][]*fakeRunner)}
	return New(f.build, zerolog.Nop()), f
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEnableStartsOneLoopPerCamera(t *testing.T) {
	s, f := newSupervisor()
	defer s.Shutdown(context.Background())

	if !s.Enable(1, "v1") {
		t.Fatal("first enable did not start a loop")
	}
	if s.Enable(1, "v2") {
		t.Error("second enable started another loop")
	}
	if f.count(1) != 1 || !s.Running(1) {
		t.Fatalf("runners = %d, running = %v", f.count(1), s.Running(1))
	}
	if got := s.Viewers(1); len(got) != 2 || got[0] != "v1" || got[1] != "v2" {
		t.Errorf("viewers = %v", got)
	}
}

func TestLeaveKeepsLoopRunning(t *testing.T) {
	s, _ := newSupervisor()
	defer s.Shutdown(context.Background())

	s.Enable(1, "v1")
	s.Enable(2, "v1")
	s.Join(2, "v2")

	s.Leave(1, "v1")
	if !s.Running(1) {
		t.Error("loop stopped after last viewer left")
	}
	if len(s.Viewers(1)) != 0 {
		t.Errorf("viewers after leave = %v", s.Viewers(1))
	}

	s.LeaveAll("v1")
	if got := s.Viewers(2); len(got) != 1 || got[0] != "v2" {
		t.Errorf("viewers after LeaveAll = %v", got)
	}
}

func TestJoinDoesNotStart(t *testing.T) {
	s, f := newSupervisor()
	defer s.Shutdown(context.Background())

	s.Join(5, "v")
	if s.Running(5) || f.count(5) != 0 {
		t.Error("join started a loop")
	}
}

func TestDisableIsFireAndForget(t *testing.T) {
	s, f := newSupervisor()

	s.Enable(1, "")
	eventually(t, func() bool { return f.count(1) == 1 && f.last(1).started.Load() == 1 })

	if !s.Disable(1) {
		t.Fatal("disable reported no loop")
	}
	if s.Running(1) {
		t.Error("handle still registered after disable")
	}
	if s.Disable(1) {
		t.Error("second disable found a loop")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestFinishedLoopRestartsOnNextEnable(t *testing.T) {
	s, f := newSupervisor()
	defer s.Shutdown(context.Background())

	s.Enable(1, "v")
	eventually(t, func() bool { return f.last(1).started.Load() == 1 })
	close(f.last(1).exit)
	eventually(t, func() bool { return !s.Running(1) })

	if !s.Enable(1, "v") {
		t.Fatal("enable after exit did not restart")
	}
	if f.count(1) != 2 {
		t.Errorf("runners = %d, want 2", f.count(1))
	}
}

func TestShutdownStopsEverythingAndRejectsNewLoops(t *testing.T) {
	s, _ := newSupervisor()
	s.Enable(1, "")
	s.Enable(2, "")

	if got := s.Pipelines(); len(got) != 2 || got[0].CameraID != 1 || got[1].State != "running" {
		t.Fatalf("pipelines = %+v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if s.Running(1) || s.Running(2) {
		t.Error("loops still registered")
	}
	if s.Enable(3, "") {
		t.Error("enable after shutdown started a loop")
	}
}

func TestLimitCapsConcurrentLoops(t *testing.T) {
	s, f := newSupervisor()
	defer s.Shutdown(context.Background())
	s.SetLimit(1)

	if !s.Enable(1, "") {
		t.Fatal("first loop rejected")
	}
	if s.Enable(2, "v") {
		t.Fatal("loop started beyond limit")
	}
	if f.count(2) != 0 || len(s.Viewers(2)) != 1 {
		t.Errorf("runners = %d, viewers = %v", f.count(2), s.Viewers(2))
	}

	s.Disable(1)
	if !s.Enable(2, "") {
		t.Error("loop rejected after a slot was freed")
	}
}
