package models

// Live-view event names exchanged with viewers.
const (
	EventInitialStatus = "initial_status"
	EventStatus        = "status"
	EventCountUpdate   = "count_update"
	EventFrame         = "frame"
	EventDashboard     = "dashboard_update"
	EventLineSaved     = "line_saved"
	EventLineCleared   = "line_cleared"
	EventError         = "error"

	EventSubscribe       = "subscribe"
	EventUnsubscribe     = "unsubscribe"
	EventSetAIEnabled    = "set_ai_enabled"
	EventSetCountingLine = "set_counting_line"
)

// CountUpdate carries a camera's running in/out totals for today.
type CountUpdate struct {
	CameraID int64  `json:"camera"`
	Counts   Counts `json:"counts"`
}

// FramePayload is one annotated JPEG frame for a viewer.
type FramePayload struct {
	CameraID   int64  `json:"camera"`
	JPEGBase64 string `json:"jpeg_base64"`
}

// LineAck acknowledges a counting line change to the viewer that made it.
type LineAck struct {
	CameraID int64         `json:"camera"`
	Line     *CountingLine `json:"coords,omitempty"`
}

// ErrorPayload reports a rejected viewer request.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DashboardData is the aggregate pushed to dashboards every interval.
type DashboardData struct {
	ChartData    map[int64]Counts `json:"chart_data"`
	CountingLogs []string         `json:"counting_logs"`
	AlarmLogs    []string         `json:"alarm_logs"`
}
