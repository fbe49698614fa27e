package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/storage"
)

type SettingsHandler struct {
	store storage.Store
}

func NewSettingsHandler(store storage.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// @Summary Get global settings
// @Tags settings
// @Produce json
// @Success 200 {object} models.GlobalSettings
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary Save global settings
// @Description Running pipelines pick the new values up on their next frame
// @Tags settings
// @Accept json
// @Produce json
// @Param request body models.GlobalSettings true "Settings"
// @Success 200 {object} models.GlobalSettings
// @Failure 400 {object} ErrorResponse
// @Security AdminToken
// @Router /settings [put]
func (h *SettingsHandler) Put(c *gin.Context) {
	var s models.GlobalSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	for _, v := range []*float64{s.ConfThreshold, s.IoUThreshold} {
		if v != nil && (*v < 0 || *v > 1) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "thresholds must be within [0,1]"})
			return
		}
	}

	if err := h.store.SaveSettings(c.Request.Context(), &s); err != nil {
		respondError(c, err, "Failed to save settings")
		return
	}
	logging.Info(c).Bool("save_videos", s.SaveVideos).Bool("save_screenshots", s.SaveScreenshots).Msg("Settings saved")
	c.JSON(http.StatusOK, s)
}
