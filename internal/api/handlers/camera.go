package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"linewatch-worker-go/internal/logging"
	"linewatch-worker-go/internal/models"
	"linewatch-worker-go/internal/services/control"
	"linewatch-worker-go/internal/services/mjpeg"
	"linewatch-worker-go/internal/services/storage"
)

type CameraHandler struct {
	store    storage.Store
	control  *control.Service
	loops    Loops
	mjpeg    *mjpeg.Publisher
	modelDir string
}

func NewCameraHandler(store storage.Store, ctl *control.Service, loops Loops, pub *mjpeg.Publisher, modelDir string) *CameraHandler {
	return &CameraHandler{store: store, control: ctl, loops: loops, mjpeg: pub, modelDir: modelDir}
}

// CameraResponse is a camera with its live pipeline flag.
type CameraResponse struct {
	models.Camera
	Running bool `json:"running"`
}

type AIRequest struct {
	Enabled bool `json:"enabled"`
}

type AlarmRequest struct {
	Triggers []string            `json:"triggers"`
	Action   *models.AlarmAction `json:"action"`
}

type ModelRequest struct {
	Filename      string   `json:"filename" form:"filename"`
	FilePath      string   `json:"file_path" form:"file_path"`
	ModelType     string   `json:"model_type" form:"model_type" binding:"required"`
	ConfThreshold *float64 `json:"conf_threshold" form:"conf_threshold"`
	IoUThreshold  *float64 `json:"iou_threshold" form:"iou_threshold"`
}

var modelTypes = []string{
	models.ModelYOLOv8,
	models.ModelYOLOPose,
	models.ModelYOLOv5,
	models.ModelSSDMobileNet,
	models.ModelYOLOv3,
}

func (h *CameraHandler) response(cam models.Camera) CameraResponse {
	return CameraResponse{Camera: cam, Running: h.loops.Running(cam.ID)}
}

// @Summary List cameras
// @Tags cameras
// @Produce json
// @Success 200 {array} CameraResponse
// @Failure 500 {object} ErrorResponse
// @Router /cameras [get]
func (h *CameraHandler) ListCameras(c *gin.Context) {
	cams, err := h.store.ListCameras(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list cameras")
		return
	}
	c.JSON(http.StatusOK, lo.Map(cams, func(cam models.Camera, _ int) CameraResponse { return h.response(cam) }))
}

// @Summary Get camera
// @Tags cameras
// @Produce json
// @Param id path int true "Camera ID"
// @Success 200 {object} CameraResponse
// @Failure 404 {object} ErrorResponse
// @Router /cameras/{id} [get]
func (h *CameraHandler) GetCamera(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	cam, err := h.store.GetCamera(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load camera")
		return
	}
	c.JSON(http.StatusOK, h.response(*cam))
}

// @Summary Create camera
// @Tags cameras
// @Accept json
// @Produce json
// @Param request body models.CameraRequest true "Camera"
// @Success 201 {object} CameraResponse
// @Failure 400 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras [post]
func (h *CameraHandler) CreateCamera(c *gin.Context) {
	var req models.CameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	cam := &models.Camera{
		Name:                 req.Name,
		Location:             req.Location,
		SourceURI:            req.SourceURI,
		FaceDetectionEnabled: req.FaceDetectionEnabled,
		AlarmTriggers:        req.AlarmTriggers,
	}
	if err := h.store.CreateCamera(c.Request.Context(), cam); err != nil {
		respondError(c, err, "Failed to create camera")
		return
	}

	logging.Info(c).Int64("camera_id", cam.ID).Str("name", cam.Name).Msg("Camera created")
	c.JSON(http.StatusCreated, h.response(*cam))
}

// @Summary Update camera
// @Description Source and detector changes apply the next time the pipeline starts
// @Tags cameras
// @Accept json
// @Produce json
// @Param id path int true "Camera ID"
// @Param request body models.CameraRequest true "Camera"
// @Success 200 {object} CameraResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras/{id} [put]
func (h *CameraHandler) UpdateCamera(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	var req models.CameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	cam, err := h.store.GetCamera(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to load camera")
		return
	}
	cam.Name = req.Name
	cam.Location = req.Location
	cam.SourceURI = req.SourceURI
	cam.FaceDetectionEnabled = req.FaceDetectionEnabled
	cam.AlarmTriggers = req.AlarmTriggers

	if err := h.store.UpdateCamera(ctx, cam); err != nil {
		respondError(c, err, "Failed to update camera")
		return
	}
	logging.Info(c).Msg("Camera updated")
	c.JSON(http.StatusOK, h.response(*cam))
}

// @Summary Delete camera
// @Description Stops the pipeline and deletes the camera. Logs keep the camera name.
// @Tags cameras
// @Param id path int true "Camera ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras/{id} [delete]
func (h *CameraHandler) DeleteCamera(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	h.loops.Disable(id)
	if err := h.store.DeleteCamera(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete camera")
		return
	}
	logging.Info(c).Msg("Camera deleted")
	c.JSON(http.StatusOK, SuccessResponse{Message: "Camera deleted"})
}

// @Summary Enable or disable AI
// @Tags cameras
// @Accept json
// @Produce json
// @Param id path int true "Camera ID"
// @Param request body AIRequest true "AI flag"
// @Success 200 {object} CameraResponse
// @Failure 404 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras/{id}/ai [post]
func (h *CameraHandler) SetAI(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	var req AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.control.SetAIEnabled(ctx, id, req.Enabled, ""); err != nil {
		respondError(c, err, "Failed to change AI state")
		return
	}
	cam, err := h.store.GetCamera(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to load camera")
		return
	}
	c.JSON(http.StatusOK, h.response(*cam))
}

// @Summary Save counting line
// @Description Coordinates are normalized to [0,1]
// @Tags cameras
// @Accept json
// @Produce json
// @Param id path int true "Camera ID"
// @Param request body models.CountingLine true "Line"
// @Success 200 {object} models.LineAck
// @Failure 400 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras/{id}/line [put]
func (h *CameraHandler) SetLine(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	var line models.CountingLine
	if err := c.ShouldBindJSON(&line); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.control.SetCountingLine(c.Request.Context(), id, &line); err != nil {
		respondError(c, err, "Failed to save counting line")
		return
	}
	c.JSON(http.StatusOK, models.LineAck{CameraID: id, Line: &line})
}

// @Summary Clear counting line
// @Tags cameras
// @Produce json
// @Param id path int true "Camera ID"
// @Success 200 {object} models.LineAck
// @Failure 404 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras/{id}/line [delete]
func (h *CameraHandler) ClearLine(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	if err := h.control.SetCountingLine(c.Request.Context(), id, nil); err != nil {
		respondError(c, err, "Failed to clear counting line")
		return
	}
	c.JSON(http.StatusOK, models.LineAck{CameraID: id})
}

// @Summary Configure alarm
// @Description Triggers are class names. The action runs a webhook or a shell command and is privileged.
// @Tags cameras
// @Accept json
// @Produce json
// @Param id path int true "Camera ID"
// @Param request body AlarmRequest true "Alarm"
// @Success 200 {object} CameraResponse
// @Failure 400 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras/{id}/alarm [put]
func (h *CameraHandler) SetAlarm(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	var req AlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	action := ""
	if req.Action != nil {
		if err := req.Action.Validate(); err != nil {
			respondError(c, err, "Invalid alarm action")
			return
		}
		b, err := jsonString(req.Action)
		if err != nil {
			respondError(c, err, "Failed to encode alarm action")
			return
		}
		action = b
	}
	triggers := lo.Uniq(lo.Compact(lo.Map(req.Triggers, func(t string, _ int) string { return strings.TrimSpace(t) })))

	ctx := c.Request.Context()
	if err := h.store.SetAlarm(ctx, id, triggers, action); err != nil {
		respondError(c, err, "Failed to save alarm")
		return
	}
	cam, err := h.store.GetCamera(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to load camera")
		return
	}
	logging.Info(c).Strs("triggers", triggers).Bool("has_action", action != "").Msg("Alarm configured")
	c.JSON(http.StatusOK, h.response(*cam))
}

// @Summary Register detector model
// @Description Accepts JSON with a file path or a multipart upload in field "file". Applies the next time the pipeline starts.
// @Tags cameras
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Camera ID"
// @Param request body ModelRequest true "Model"
// @Success 201 {object} models.AIModel
// @Failure 400 {object} ErrorResponse
// @Security AdminToken
// @Router /cameras/{id}/models [post]
func (h *CameraHandler) AddModel(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	var req ModelRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !lo.Contains(modelTypes, req.ModelType) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported model_type " + strconv.Quote(req.ModelType)})
		return
	}

	if file, err := c.FormFile("file"); err == nil {
		name := filepath.Base(file.Filename)
		dst := filepath.Join(h.modelDir, strconv.FormatInt(id, 10), name)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			respondError(c, err, "Failed to save model file")
			return
		}
		req.Filename, req.FilePath = name, dst
	}
	if req.FilePath == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file_path or file is required"})
		return
	}
	if req.Filename == "" {
		req.Filename = filepath.Base(req.FilePath)
	}

	model := &models.AIModel{
		CameraID:      id,
		Filename:      req.Filename,
		FilePath:      req.FilePath,
		ModelType:     req.ModelType,
		ConfThreshold: req.ConfThreshold,
		IoUThreshold:  req.IoUThreshold,
	}
	if err := h.store.SaveModel(c.Request.Context(), model); err != nil {
		respondError(c, err, "Failed to save model")
		return
	}
	logging.Info(c).Str("model_type", model.ModelType).Str("file", model.Filename).Msg("Model registered")
	c.JSON(http.StatusCreated, model)
}

// @Summary List detector models
// @Tags cameras
// @Produce json
// @Param id path int true "Camera ID"
// @Success 200 {array} models.AIModel
// @Router /cameras/{id}/models [get]
func (h *CameraHandler) ListModels(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	list, err := h.store.ListModels(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to list models")
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary MJPEG live stream
// @Description Annotated frames while the pipeline runs, a placeholder otherwise
// @Tags cameras
// @Produce multipart/x-mixed-replace
// @Param id path int true "Camera ID"
// @Router /cameras/{id}/mjpeg [get]
func (h *CameraHandler) MJPEG(c *gin.Context) {
	id, ok := cameraID(c)
	if !ok {
		return
	}
	if _, err := h.store.GetCamera(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to load camera")
		return
	}
	h.mjpeg.ServeCamera(c.Writer, c.Request, id)
}
