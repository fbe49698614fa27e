package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/storage"
	"linewatch-worker-go/internal/services/supervisor"
)

type ErrorResponse struct {
	Error string `json:"error" example:"Camera not found"`
}

type SuccessResponse struct {
	Message string `json:"message" example:"ok"`
}

// Loops is the supervisor surface the handlers need.
type Loops interface {
	Disable(cameraID int64) bool
	Running(cameraID int64) bool
	Pipelines() []supervisor.PipelineInfo
}

func cameraID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid camera id"})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors to status codes and logs server-side failures.
func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Camera not found"})
	case errors.Is(err, models.ErrInvalidLine), errors.Is(err, models.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logging.Error(c).Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
	}
}

func jsonString(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
