package models

// Model types accepted for a camera's detector.
const (
	ModelYOLOv8       = "yolov8"
	ModelYOLOPose     = "yolo-pose"
	ModelYOLOv5       = "yolov5"
	ModelSSDMobileNet = "ssdmobilenet"
	ModelYOLOv3       = "yolov3"
)

// AIModel is a detector model registered for a camera.
type AIModel struct {
	ID            int64    `json:"id"`
	CameraID      int64    `json:"camera_id"`
	Filename      string   `json:"filename"`
	FilePath      string   `json:"file_path"`
	ModelType     string   `json:"model_type"`
	ConfThreshold *float64 `json:"conf_threshold,omitempty"`
	IoUThreshold  *float64 `json:"iou_threshold,omitempty"`
}

// GlobalSettings are the worker-wide artifact and threshold settings.
type GlobalSettings struct {
	VideoFolder      string   `json:"video_folder"`
	ScreenshotFolder string   `json:"screenshot_folder"`
	SaveVideos       bool     `json:"save_videos"`
	SaveScreenshots  bool     `json:"save_screenshots"`
	ConfThreshold    *float64 `json:"conf_threshold,omitempty"`
	IoUThreshold     *float64 `json:"iou_threshold,omitempty"`
}

// Thresholds are the detector confidence and overlap-suppression cut-offs.
type Thresholds struct {
	Confidence float64 `json:"confidence"`
	IoU        float64 `json:"iou"`
}

// ResolveThresholds picks per-model values first, then global ones, then defaults.
func ResolveThresholds(model *AIModel, settings *GlobalSettings, defaults Thresholds) Thresholds {
	out := defaults

	if settings != nil {
		if settings.ConfThreshold != nil {
			out.Confidence = *settings.ConfThreshold
		}
		if settings.IoUThreshold != nil {
			out.IoU = *settings.IoUThreshold
		}
	}
	if model != nil {
		if model.ConfThreshold != nil {
			out.Confidence = *model.ConfThreshold
		}
		if model.IoUThreshold != nil {
			out.IoU = *model.IoUThreshold
		}
	}
	return out
}
