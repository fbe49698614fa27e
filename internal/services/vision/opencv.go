// Package vision runs camera loops on OpenCV captures, detectors and video writers.
package vision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"linewatch-worker-go/internal/config"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/aiclient"
	"linewatch-worker-go/internal/services/alarm"
	"linewatch-worker-go/internal/services/detector"
	"linewatch-worker-go/internal/services/media"
	"linewatch-worker-go/internal/services/modelstore"
	"linewatch-worker-go/internal/services/pipeline"
)

// OpenCV implements pipeline.Vision with gocv.
type OpenCV struct {
	cfg    *config.Config
	ai     *aiclient.Client
	models *modelstore.Store
}

func NewOpenCV(cfg *config.Config, ai *aiclient.Client, models *modelstore.Store) *OpenCV {
	return &OpenCV{cfg: cfg, ai: ai, models: models}
}

func (o *OpenCV) OpenSource(uri string, logger zerolog.Logger) (pipeline.Source, error) {
	capture, err := media.OpenCapture(uri, o.cfg.CaptureBufferSize, logger)
	if err != nil {
		return nil, err
	}
	s := &source{capture: capture, mat: gocv.NewMat()}
	s.frame = media.NewFrame(&s.mat)
	return s, nil
}

func (o *OpenCV) OpenDetector(ctx context.Context, req pipeline.DetectorRequest) (pipeline.Detector, error) {
	det, err := detector.New(ctx, detector.Options{
		Camera:      req.Camera,
		Model:       req.Model,
		Thresholds:  req.Thresholds,
		DefaultType: o.cfg.DefaultDetector,
		ModelDir:    o.cfg.ModelDir,
		CascadePath: o.cfg.CascadePath,
		JPEGQuality: o.cfg.JPEGQuality,
		AI:          o.ai,
		AIEndpoint:  o.cfg.AIGRPCURL,
		Models:      o.models,
		Logger:      req.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &matDetector{det: det}, nil
}

func (o *OpenCV) NewWriter(path string, fps float64, width, height int) (alarm.VideoWriter, error) {
	return media.NewVideoWriter(path, fps, width, height)
}

// source reuses one Mat for every read.
type source struct {
	capture *media.Capture
	mat     gocv.Mat
	frame   *media.Frame
}

func (s *source) Read() (pipeline.Frame, bool) {
	if !s.capture.Read(&s.mat) {
		return nil, false
	}
	return s.frame, true
}

func (s *source) FPS() float64 {
	return s.capture.FPS()
}

func (s *source) Close() error {
	err := s.capture.Close()
	s.mat.Close()
	return err
}

type matDetector struct {
	det detector.Detector
}

func (d *matDetector) Detect(f pipeline.Frame) ([]models.Detection, error) {
	frame, ok := f.(*media.Frame)
	if !ok || frame.Mat == nil {
		return nil, fmt.Errorf("unsupported frame type %T", f)
	}
	return d.det.Detect(*frame.Mat)
}

func (d *matDetector) Close() error         { return d.det.Close() }
func (d *matDetector) NativeTracking() bool { return d.det.NativeTracking() }
func (d *matDetector) Name() string         { return d.det.Name() }
