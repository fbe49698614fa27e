package detector

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/aiclient"
	"linewatch-worker-go/internal/services/modelstore"
)

var ErrUnsupported = errors.New("unsupported model type")

// Detector produces detections for one frame.
type Detector interface {
	Detect(frame gocv.Mat) ([]models.Detection, error)
	Close() error
	// NativeTracking reports whether detections carry persistent track ids.
	NativeTracking() bool
	Name() string
}

// Options configure the factory for one camera.
type Options struct {
	Camera     *models.Camera
	Model      *models.AIModel
	Thresholds models.Thresholds

	// DefaultType is the model type used when the camera has no registered model.
	DefaultType string

	ModelDir    string
	CascadePath string
	JPEGQuality int

	AI         *aiclient.Client
	AIEndpoint string
	Models     *modelstore.Store

	Logger zerolog.Logger
}

// New selects and loads the detector for the camera's latest model.
// Failure to acquire or load model files is returned; callers treat it as fatal to startup.
func New(ctx context.Context, opts Options) (Detector, error) {
	primary, err := newPrimary(ctx, opts)
	if errors.Is(err, ErrUnsupported) {
		opts.Logger.Warn().Err(err).Msg("Falling back to default remote detector")
		opts.Model = nil
		opts.DefaultType = ""
		primary, err = newRemote(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	if opts.Camera != nil && opts.Camera.FaceDetectionEnabled {
		faces, err := NewCascade(opts.CascadePath)
		if err != nil {
			opts.Logger.Warn().Err(err).Msg("Face detection enabled but cascade unavailable, continuing without it")
			return primary, nil
		}
		opts.Logger.Info().Str("cascade", opts.CascadePath).Msg("Face detection layered on primary detector")
		return &Composite{Primary: primary, Faces: faces}, nil
	}
	return primary, nil
}

func newPrimary(ctx context.Context, opts Options) (Detector, error) {
	modelType := opts.DefaultType
	if opts.Model != nil {
		modelType = opts.Model.ModelType
	}

	switch modelType {
	case "", models.ModelYOLOv8, models.ModelYOLOPose, models.ModelYOLOv5:
		return newRemote(ctx, opts)
	case models.ModelSSDMobileNet:
		files := modelstore.SSDMobileNet(opts.ModelDir)
		if err := opts.Models.AcquireAll(ctx, files...); err != nil {
			return nil, fmt.Errorf("acquire ssd model: %w", err)
		}
		return NewSSD(files[0].Path, files[1].Path, files[2].Path, opts.Thresholds.Confidence)
	case models.ModelYOLOv3:
		files := modelstore.YOLOv3Tiny(opts.ModelDir)
		if err := opts.Models.AcquireAll(ctx, files...); err != nil {
			return nil, fmt.Errorf("acquire yolov3 model: %w", err)
		}
		th := opts.Thresholds
		if opts.Model == nil || opts.Model.ConfThreshold == nil {
			th.Confidence = 0.5
		}
		if opts.Model == nil || opts.Model.IoUThreshold == nil {
			th.IoU = 0.6
		}
		return NewDarknet(files[0].Path, files[1].Path, files[2].Path, th)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, modelType)
	}
}

func newRemote(ctx context.Context, opts Options) (Detector, error) {
	if opts.AI == nil {
		return nil, errors.New("remote detector needs an AI client")
	}

	hint := ""
	if opts.Model != nil && opts.Model.FilePath != "" {
		hint = opts.Model.FilePath
	} else {
		f := modelstore.DefaultYOLO(opts.ModelDir)
		if err := opts.Models.Acquire(ctx, f); err != nil {
			return nil, fmt.Errorf("acquire default model: %w", err)
		}
		hint = f.Path
	}

	if err := opts.AI.EnsureConnected(opts.AIEndpoint); err != nil {
		return nil, fmt.Errorf("connect AI service: %w", err)
	}
	if err := opts.AI.HealthCheck(ctx); err != nil {
		opts.Logger.Warn().Err(err).Msg("AI service not healthy yet, will keep trying per frame")
	}

	cameraID := int64(0)
	if opts.Camera != nil {
		cameraID = opts.Camera.ID
	}
	return &Remote{
		client:     opts.AI,
		endpoint:   opts.AIEndpoint,
		cameraID:   cameraID,
		model:      hint,
		thresholds: opts.Thresholds,
		quality:    opts.JPEGQuality,
	}, nil
}
