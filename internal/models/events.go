package models

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// StatusEvent reports pipeline lifecycle and failures to viewers.
type StatusEvent struct {
	CameraID  int64     `json:"camera"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	FileTypeScreenshot = "screenshot"
	FileTypeVideo      = "video"
)

// FileRecord is a saved screenshot or video.
type FileRecord struct {
	ID        int64     `json:"id"`
	CameraID  int64     `json:"camera_id"`
	Filename  string    `json:"filename"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// CountLog is a stored count row. CameraID is nil once the camera has been deleted.
type CountLog struct {
	ID         int64     `json:"id"`
	CameraID   *int64    `json:"camera_id"`
	CameraName string    `json:"camera_name"`
	Direction  Direction `json:"direction"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlarmLog is a stored alarm row. CameraID is nil once the camera has been deleted.
type AlarmLog struct {
	ID         int64     `json:"id"`
	CameraID   *int64    `json:"camera_id"`
	CameraName string    `json:"camera_name"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// DisplayName marks rows whose camera no longer exists.
func DisplayName(cameraID *int64, name string) string {
	if cameraID == nil {
		return name + " (deleted)"
	}
	return name
}

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishCount(event CountEvent) error
	PublishAlarm(event AlarmEvent) error
	PublishStatus(event StatusEvent) error
}
