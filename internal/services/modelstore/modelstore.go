package modelstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	MinWeightsSize = 10 * 1024
	MinTorchSize   = 1024 * 1024
)

// Well-known model files fetched on first use.
const (
	YOLOv8nURL = "https://github.com/ultralytics/assets/releases/download/v8.3.0/yolov8n.pt"

	SSDModelURL  = "https://github.com/opencv/opencv_extra/raw/4.x/testdata/dnn/ssd_mobilenet_v3_large_coco_2020_01_14.pb"
	SSDConfigURL = "https://raw.githubusercontent.com/opencv/opencv/4.x/samples/data/dnn/ssd_mobilenet_v3_large_coco.pbtxt"

	YOLOv3TinyCfgURL     = "https://raw.githubusercontent.com/pjreddie/darknet/master/cfg/yolov3-tiny.cfg"
	YOLOv3TinyWeightsURL = "https://pjreddie.com/media/files/yolov3-tiny.weights"

	COCONamesURL = "https://raw.githubusercontent.com/pjreddie/darknet/master/data/coco.names"
)

// File is one artifact to acquire.
type File struct {
	URL     string
	Path    string
	MinSize int64
}

// Store downloads model files that are missing or fail the size check.
type Store struct {
	client *http.Client
}

func New(client *http.Client) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{client: client}
}

// Valid reports whether path exists and is strictly larger than minSize.
func Valid(path string, minSize int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > minSize
}

// Acquire makes sure f.Path holds a file larger than f.MinSize, downloading it otherwise.
func (s *Store) Acquire(ctx context.Context, f File) error {
	if Valid(f.Path, f.MinSize) {
		log.Debug().Str("path", f.Path).Msg("Model file present")
		return nil
	}

	log.Info().Str("url", f.URL).Str("path", f.Path).Msg("Downloading model file")

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", f.URL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: unexpected status %d", f.URL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if n <= f.MinSize {
		return fmt.Errorf("downloaded %s is %d bytes, expected more than %d", f.URL, n, f.MinSize)
	}

	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("move %s into place: %w", f.Path, err)
	}

	log.Info().Str("path", f.Path).Int64("bytes", n).Msg("Model file downloaded")
	return nil
}

// AcquireAll acquires every file in order and stops at the first failure.
func (s *Store) AcquireAll(ctx context.Context, files ...File) error {
	for _, f := range files {
		if err := s.Acquire(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// DefaultYOLO is the default tracker-native model in dir.
func DefaultYOLO(dir string) File {
	return File{URL: YOLOv8nURL, Path: filepath.Join(dir, "yolov8n.pt"), MinSize: MinTorchSize}
}

// SSDMobileNet lists the SSD MobileNet v3 graph, config and labels in dir.
func SSDMobileNet(dir string) []File {
	return []File{
		{URL: SSDModelURL, Path: filepath.Join(dir, "ssd_mobilenet_v3_large_coco.pb"), MinSize: MinWeightsSize},
		{URL: SSDConfigURL, Path: filepath.Join(dir, "ssd_mobilenet_v3_large_coco.pbtxt"), MinSize: 0},
		{URL: COCONamesURL, Path: filepath.Join(dir, "coco.names"), MinSize: 0},
	}
}

// YOLOv3Tiny lists the darknet cfg, weights and labels in dir.
func YOLOv3Tiny(dir string) []File {
	return []File{
		{URL: YOLOv3TinyCfgURL, Path: filepath.Join(dir, "yolov3-tiny.cfg"), MinSize: 0},
		{URL: YOLOv3TinyWeightsURL, Path: filepath.Join(dir, "yolov3-tiny.weights"), MinSize: MinWeightsSize},
		{URL: COCONamesURL, Path: filepath.Join(dir, "coco.names"), MinSize: 0},
	}
}
