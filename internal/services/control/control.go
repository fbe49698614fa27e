package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/storage"
)

// Loops is the part of the supervisor the control use-cases drive.
type Loops interface {
	Enable(cameraID int64, viewerID string) bool
	Join(cameraID int64, viewerID string)
	Leave(cameraID int64, viewerID string)
	LeaveAll(viewerID string)
	Disable(cameraID int64) bool
	Running(cameraID int64) bool
}

// Notifier sends events to one viewer or to all of them.
type Notifier interface {
	Send(viewerID, event string, data any) bool
	Broadcast(event string, data any)
}

// ErrForbidden rejects a live-view change from a viewer that did not present the admin token.
var ErrForbidden = errors.New("admin token required")

// Service holds camera control use-cases shared by REST handlers and the live-view hub.
type Service struct {
	store   storage.Store
	loops   Loops
	notify  Notifier
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	admins map[string]bool
}

func New(store storage.Store, loops Loops, notify Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		loops:   loops,
		notify:  notify,
		timeout: 10 * time.Second,
		logger:  logger,
		admins:  make(map[string]bool),
	}
}

// SetAIEnabled persists the flag and starts or stops the camera's loop.
// viewerID, when set, is subscribed to the camera on enable.
func (s *Service) SetAIEnabled(ctx context.Context, cameraID int64, enabled bool, viewerID string) error {
	if err := s.store.SetAIEnabled(ctx, cameraID, enabled); err != nil {
		return fmt.Errorf("set ai flag for camera %d: %w", cameraID, err)
	}

	logger := logging.WithCamera(s.logger, cameraID)
	if enabled {
		started := s.loops.Enable(cameraID, viewerID)
		logger.Info().Bool("started", started).Msg("AI enabled")
		return nil
	}

	s.loops.Disable(cameraID)
	logger.Info().Msg("AI disabled")
	return nil
}

// SetCountingLine validates and stores the line; nil clears it.
func (s *Service) SetCountingLine(ctx context.Context, cameraID int64, line *models.CountingLine) error {
	raw := ""
	if line != nil {
		if err := line.Validate(); err != nil {
			return err
		}
		raw = line.Encode()
	}

	if err := s.store.SetCountingLine(ctx, cameraID, raw); err != nil {
		return fmt.Errorf("set counting line for camera %d: %w", cameraID, err)
	}
	logger := logging.WithCamera(s.logger, cameraID)
	logger.Info().Bool("cleared", line == nil).Msg("Counting line updated")
	return nil
}

// Subscribe adds the viewer to the camera and starts the loop when AI is enabled.
func (s *Service) Subscribe(ctx context.Context, cameraID int64, viewerID string) error {
	cam, err := s.store.GetCamera(ctx, cameraID)
	if err != nil {
		return fmt.Errorf("subscribe to camera %d: %w", cameraID, err)
	}
	if cam.AIEnabled {
		s.loops.Enable(cameraID, viewerID)
	} else {
		s.loops.Join(cameraID, viewerID)
	}
	return nil
}

func (s *Service) Unsubscribe(cameraID int64, viewerID string) {
	s.loops.Leave(cameraID, viewerID)
}

// Connect registers the viewer with every AI-enabled camera and returns the status list it should render.
func (s *Service) Connect(ctx context.Context, viewerID string) ([]models.CameraStatus, error) {
	cams, err := s.store.ListCameras(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}

	statuses := make([]models.CameraStatus, 0, len(cams))
	for _, cam := range cams {
		if cam.AIEnabled {
			s.loops.Enable(cam.ID, viewerID)
		}
		statuses = append(statuses, models.CameraStatus{
			ID:        cam.ID,
			Name:      cam.Name,
			Location:  cam.Location,
			AIEnabled: cam.AIEnabled,
			Running:   s.loops.Running(cam.ID),
		})
	}
	return statuses, nil
}

func (s *Service) Disconnect(viewerID string) {
	s.loops.LeaveAll(viewerID)
}

// Hub callbacks

// OnConnect sends the initial status; admin viewers may also change cameras over the socket.
func (s *Service) OnConnect(viewerID string, admin bool) {
	if admin {
		s.mu.Lock()
		s.admins[viewerID] = true
		s.mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	statuses, err := s.Connect(ctx, viewerID)
	if err != nil {
		s.logger.Error().Err(err).Str("viewer_id", viewerID).Msg("Failed to build initial status")
		s.notify.Send(viewerID, models.EventError, models.ErrorPayload{Message: "failed to load cameras"})
		return
	}
	s.notify.Send(viewerID, models.EventInitialStatus, statuses)
}

func (s *Service) OnDisconnect(viewerID string) {
	s.mu.Lock()
	delete(s.admins, viewerID)
	s.mu.Unlock()
	s.Disconnect(viewerID)
}

type cameraRequest struct {
	Camera int64 `json:"camera"`
}

type aiRequest struct {
	Camera  int64 `json:"camera"`
	Enabled bool  `json:"enabled"`
}

type lineRequest struct {
	Camera int64                `json:"camera"`
	Coords *models.CountingLine `json:"coords"`
}

func (s *Service) OnMessage(viewerID, event string, data json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.dispatch(ctx, viewerID, event, data); err != nil {
		s.logger.Warn().Err(err).Str("viewer_id", viewerID).Str("event", event).Msg("Viewer request rejected")
		s.notify.Send(viewerID, models.EventError, models.ErrorPayload{Message: errorMessage(err)})
	}
}

func (s *Service) isAdmin(viewerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[viewerID]
}

func (s *Service) dispatch(ctx context.Context, viewerID, event string, data json.RawMessage) error {
	switch event {
	case models.EventSetAIEnabled, models.EventSetCountingLine:
		if !s.isAdmin(viewerID) {
			return fmt.Errorf("%s: %w", event, ErrForbidden)
		}
	}

	switch event {
	case models.EventSubscribe:
		var req cameraRequest
		if err := decode(data, &req); err != nil {
			return err
		}
		return s.Subscribe(ctx, req.Camera, viewerID)

	case models.EventUnsubscribe:
		var req cameraRequest
		if err := decode(data, &req); err != nil {
			return err
		}
		s.Unsubscribe(req.Camera, viewerID)
		return nil

	case models.EventSetAIEnabled:
		var req aiRequest
		if err := decode(data, &req); err != nil {
			return err
		}
		return s.SetAIEnabled(ctx, req.Camera, req.Enabled, viewerID)

	case models.EventSetCountingLine:
		var req lineRequest
		if err := decode(data, &req); err != nil {
			return err
		}
		if err := s.SetCountingLine(ctx, req.Camera, req.Coords); err != nil {
			return err
		}
		ack := models.LineAck{CameraID: req.Camera, Line: req.Coords}
		if req.Coords == nil {
			s.notify.Send(viewerID, models.EventLineCleared, ack)
		} else {
			s.notify.Send(viewerID, models.EventLineSaved, ack)
		}
		return nil

	default:
		return fmt.Errorf("unknown event %q", event)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing event data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed event data: %w", err)
	}
	return nil
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "camera not found"
	case errors.Is(err, models.ErrInvalidLine):
		return "invalid counting line"
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	default:
		return err.Error()
	}
}
