package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/dashboard"
	"linewatch-worker-go/internal/services/storage"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

type LogsHandler struct {
	store     storage.Store
	dashboard *dashboard.Sender
}

func NewLogsHandler(store storage.Store, dash *dashboard.Sender) *LogsHandler {
	return &LogsHandler{store: store, dashboard: dash}
}

type CountLogView struct {
	models.CountLog
	Display string `json:"camera_display"`
}

type AlarmLogView struct {
	models.AlarmLog
	Display string `json:"camera_display"`
}

func limit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || n <= 0 {
		return defaultLogLimit
	}
	return min(n, maxLogLimit)
}

// @Summary Recent count logs
// @Description Oldest first
// @Tags logs
// @Produce json
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {array} CountLogView
// @Router /logs/counts [get]
func (h *LogsHandler) Counts(c *gin.Context) {
	logs, err := h.store.RecentCounts(c.Request.Context(), limit(c))
	if err != nil {
		respondError(c, err, "Failed to load count logs")
		return
	}
	c.JSON(http.StatusOK, lo.Map(logs, func(l models.CountLog, _ int) CountLogView {
		return CountLogView{CountLog: l, Display: models.DisplayName(l.CameraID, l.CameraName)}
	}))
}

// @Summary Recent alarm logs
// @Description Oldest first
// @Tags logs
// @Produce json
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {array} AlarmLogView
// @Router /logs/alarms [get]
func (h *LogsHandler) Alarms(c *gin.Context) {
	logs, err := h.store.RecentAlarms(c.Request.Context(), limit(c))
	if err != nil {
		respondError(c, err, "Failed to load alarm logs")
		return
	}
	c.JSON(http.StatusOK, lo.Map(logs, func(l models.AlarmLog, _ int) AlarmLogView {
		return AlarmLogView{AlarmLog: l, Display: models.DisplayName(l.CameraID, l.CameraName)}
	}))
}

// @Summary Clear count logs
// @Tags logs
// @Success 200 {object} SuccessResponse
// @Security AdminToken
// @Router /logs/counts [delete]
func (h *LogsHandler) ClearCounts(c *gin.Context) {
	if err := h.store.ClearCounts(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to clear count logs")
		return
	}
	logging.Warn(c).Msg("Count logs cleared")
	c.JSON(http.StatusOK, SuccessResponse{Message: "Count logs cleared"})
}

// @Summary Clear alarm logs
// @Tags logs
// @Success 200 {object} SuccessResponse
// @Security AdminToken
// @Router /logs/alarms [delete]
func (h *LogsHandler) ClearAlarms(c *gin.Context) {
	if err := h.store.ClearAlarms(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to clear alarm logs")
		return
	}
	logging.Warn(c).Msg("Alarm logs cleared")
	c.JSON(http.StatusOK, SuccessResponse{Message: "Alarm logs cleared"})
}

// @Summary Saved screenshots and videos
// @Description Newest first
// @Tags logs
// @Produce json
// @Param type query string false "screenshot or video"
// @Success 200 {array} models.FileRecord
// @Failure 400 {object} ErrorResponse
// @Router /files [get]
func (h *LogsHandler) Files(c *gin.Context) {
	fileType := c.Query("type")
	if fileType != "" && fileType != models.FileTypeScreenshot && fileType != models.FileTypeVideo {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid file type"})
		return
	}
	files, err := h.store.ListFiles(c.Request.Context(), fileType)
	if err != nil {
		respondError(c, err, "Failed to list files")
		return
	}
	c.JSON(http.StatusOK, files)
}

// @Summary In/out counts for one day
// @Description Keyed by camera id. Deleted cameras are not included.
// @Tags dashboard
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Param camera_id query string false "Camera id or all" default(all)
// @Success 200 {object} map[string]models.Counts
// @Failure 400 {object} ErrorResponse
// @Router /api/count_data [get]
func (h *LogsHandler) CountData(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid date"})
			return
		}
		day = parsed
	}

	var camID int64
	if raw := c.DefaultQuery("camera_id", "all"); raw != "all" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid camera_id"})
			return
		}
		camID = id
	}

	counts, err := h.store.CountsForDay(c.Request.Context(), day, camID)
	if err != nil {
		respondError(c, err, "Failed to load counts")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// @Summary Dashboard snapshot
// @Description Same payload as the dashboard_update live event
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardData
// @Router /api/dashboard [get]
func (h *LogsHandler) Dashboard(c *gin.Context) {
	data, err := h.dashboard.Build(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to build dashboard")
		return
	}
	c.JSON(http.StatusOK, data)
}
