package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"linewatch-worker-go/internal/api"
	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/aiclient"
	"linewatch-worker-go/internal/services/alarm"
	"linewatch-worker-go/internal/services/artifacts"
	"linewatch-worker-go/internal/services/control"
	"linewatch-worker-go/internal/services/dashboard"
	"linewatch-worker-go/internal/services/media"
	"linewatch-worker-go/internal/services/messaging"
	"linewatch-worker-go/internal/services/mjpeg"
	"linewatch-worker-go/internal/services/modelstore"
	"linewatch-worker-go/internal/services/pipeline"
	"linewatch-worker-go/internal/services/storage"
	"linewatch-worker-go/internal/services/supervisor"
	"linewatch-worker-go/internal/services/vision"
	"linewatch-worker-go/internal/transport/ws"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config     *config.Config
	Store      storage.Store
	Bus        messaging.EventBus
	AI         *aiclient.Client
	Hub        *ws.Hub
	MJPEG      *mjpeg.Publisher
	Supervisor *supervisor.Supervisor
	Control    *control.Service
	Dashboard  *dashboard.Sender
	Server     *api.Server

	logger zerolog.Logger
}

// NewServiceContainer opens storage and integrations and wires the pipeline supervisor,
// the live-view hub and the HTTP server together.
func NewServiceContainer(ctx context.Context, cfg *config.Config) (*ServiceContainer, error) {
	logger := logging.NewServiceLogger(cfg, "container")

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	bus, err := messaging.New(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("bus", cfg.EventBus).Msg("Event bus unavailable, events are not published")
		bus = messaging.Noop{}
	}

	uploader, err := artifacts.New(ctx, cfg.Minio)
	if err != nil {
		logger.Warn().Err(err).Msg("Artifact upload unavailable, files stay local")
		uploader = artifacts.Noop{}
	}

	sc := &ServiceContainer{
		Config: cfg,
		Store:  store,
		Bus:    bus,
		AI:     aiclient.New(cfg.AITimeout),
		Hub:    ws.NewHub(logging.NewServiceLogger(cfg, "liveview")),
		MJPEG:  mjpeg.NewPublisher(media.Placeholder),
		logger: logger,
	}

	deps := pipeline.Deps{
		Config:     cfg,
		Store:      store,
		Bus:        bus,
		Events:     sc.Hub,
		MJPEG:      sc.MJPEG,
		Vision:     vision.NewOpenCV(cfg, sc.AI, modelstore.New(nil)),
		Transcoder: alarm.FFmpeg{Binary: cfg.FFmpegPath},
		Actions:    alarm.NewExecutor(&http.Client{Timeout: cfg.ActionTimeout}),
		Uploader:   uploader,
		Logger:     logging.NewServiceLogger(cfg, "pipeline"),
	}
	sc.Supervisor = supervisor.New(func(cameraID int64) supervisor.Runner {
		return pipeline.New(cameraID, deps)
	}, logging.NewServiceLogger(cfg, "supervisor"))
	sc.Supervisor.SetLimit(cfg.MaxCameras)
	deps.Viewers = sc.Supervisor.Viewers

	sc.Control = control.New(store, sc.Supervisor, sc.Hub, logging.NewServiceLogger(cfg, "control"))
	sc.Hub.SetHandler(sc.Control)

	sc.Dashboard = dashboard.New(store, sc.Hub, cfg.DashboardInterval, cfg.DashboardLogEntries,
		logging.NewServiceLogger(cfg, "dashboard"))

	sc.Server = api.NewServer(cfg, api.Deps{
		Store:     store,
		Control:   sc.Control,
		Loops:     sc.Supervisor,
		Dashboard: sc.Dashboard,
		MJPEG:     sc.MJPEG,
		LiveView:  sc.Hub,
	})

	return sc, nil
}

// Seed inserts configured cameras that are not stored yet, matched by name.
func (sc *ServiceContainer) Seed(ctx context.Context) error {
	if len(sc.Config.Seed) == 0 {
		return nil
	}
	existing, err := sc.Store.ListCameras(ctx)
	if err != nil {
		return fmt.Errorf("list cameras: %w", err)
	}
	names := lo.SliceToMap(existing, func(c models.Camera) (string, struct{}) { return c.Name, struct{}{} })

	for _, seed := range sc.Config.Seed {
		if _, ok := names[seed.Name]; ok {
			continue
		}
		cam := &models.Camera{Name: seed.Name, Location: seed.Location, SourceURI: seed.SourceURI}
		if err := sc.Store.CreateCamera(ctx, cam); err != nil {
			return fmt.Errorf("seed camera %q: %w", seed.Name, err)
		}
		if seed.AIEnabled {
			if err := sc.Store.SetAIEnabled(ctx, cam.ID, true); err != nil {
				return fmt.Errorf("seed camera %q: %w", seed.Name, err)
			}
		}
		names[seed.Name] = struct{}{}
		sc.logger.Info().Int64("camera_id", cam.ID).Str("name", cam.Name).Msg("Seeded camera")
	}
	return nil
}

// ResumePipelines starts a loop for every camera stored with AI enabled.
func (sc *ServiceContainer) ResumePipelines(ctx context.Context) error {
	cams, err := sc.Store.ListCameras(ctx)
	if err != nil {
		return fmt.Errorf("list cameras: %w", err)
	}
	enabled := lo.Filter(cams, func(c models.Camera, _ int) bool { return c.AIEnabled })
	for _, cam := range enabled {
		sc.Supervisor.Enable(cam.ID, "")
	}
	sc.logger.Info().Int("cameras", len(cams)).Int("resumed", len(enabled)).Msg("Pipelines resumed")
	return nil
}

// Run serves HTTP and the dashboard until ctx is cancelled or one of them fails,
// then shuts everything down within the configured timeout.
func (sc *ServiceContainer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(sc.Server.Start)
	g.Go(func() error { return sc.Dashboard.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.Config.ShutdownTimeout)
		defer cancel()
		return sc.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if err := sc.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := sc.Supervisor.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("pipelines: %w", err))
	}
	sc.Hub.Close()

	if err := sc.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	if err := sc.AI.Close(); err != nil {
		errs = append(errs, fmt.Errorf("ai client: %w", err))
	}
	if err := sc.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	sc.logger.Info().Msg("All services stopped")
	return nil
}
