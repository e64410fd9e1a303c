// internal/handler/link_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-service/internal/control"
	"link-service/internal/link"
	"link-service/internal/model"
	"link-service/internal/service"
	"link-service/internal/task"
	"link-service/internal/utils"
)

// LinkHandler handles link control requests
type LinkHandler struct {
	linkService *service.LinkService
	logger      *utils.ServiceLogger
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkService *service.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
		logger:      utils.NewServiceLogger(logger, "link-handler"),
	}
}

// RegisterRoutes registers link routes
func (h *LinkHandler) RegisterRoutes(router *gin.RouterGroup) {
	links := router.Group("/link")
	{
		links.GET("", h.GetStatus)
		links.POST("/connect", h.Connect)
		links.POST("/disconnect", h.Disconnect)
		links.PUT("/screen", h.SelectScreen)
		links.GET("/role", h.GetRole)
		links.PUT("/role", h.SetRole)
		links.GET("/settings", h.GetSettings)
		links.PATCH("/settings", h.UpdateSettings)
		links.PUT("/settings", h.ReplaceSettings)
		links.POST("/worker/restart", h.RestartWorker)
	}
}

// GetStatus returns the combined link status
// @Summary Get link status
// @Description Connection state, screen, role, worker and settings in one document
// @Tags Link
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.LinkStatus} "Link status retrieved"
// @Router /link [get]
func (h *LinkHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Link status retrieved", h.linkService.Status())
}

// Connect turns the connect switch on
// @Summary Connect link
// @Description Starts the background worker in the role of the current screen
// @Tags Link
// @Produce json
// @Success 200 {object} utils.APIResponse{data=control.CycleResult} "Link connected"
// @Failure 500 {object} utils.APIResponse "Reconciliation failed"
// @Router /link/connect [post]
func (h *LinkHandler) Connect(c *gin.Context) {
	res, err := h.linkService.Connect()
	if err != nil {
		h.fail(c, "Failed to connect link", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Link connected", res)
}

// Disconnect turns the connect switch off
// @Summary Disconnect link
// @Description Aborts the background worker without waiting for it
// @Tags Link
// @Produce json
// @Success 200 {object} utils.APIResponse{data=control.CycleResult} "Link disconnected"
// @Failure 500 {object} utils.APIResponse "Reconciliation failed"
// @Router /link/disconnect [post]
func (h *LinkHandler) Disconnect(c *gin.Context) {
	res, err := h.linkService.Disconnect()
	if err != nil {
		h.fail(c, "Failed to disconnect link", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Link disconnected", res)
}

// SelectScreen selects the active screen
// @Summary Select screen
// @Description Switching to the responder or initiator screen also sets the role
// @Tags Link
// @Accept json
// @Produce json
// @Param request body model.ScreenRequest true "Screen request"
// @Success 200 {object} utils.APIResponse{data=control.CycleResult} "Screen selected"
// @Failure 400 {object} utils.APIResponse "Invalid screen"
// @Router /link/screen [put]
func (h *LinkHandler) SelectScreen(c *gin.Context) {
	var req model.ScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	screen, err := control.ParseScreen(req.Screen)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid screen", err)
		return
	}

	res, err := h.linkService.SelectScreen(screen)
	if err != nil {
		h.fail(c, "Failed to select screen", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Screen selected", res)
}

// GetRole returns the current role
// @Summary Get role
// @Tags Link
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{role=string}} "Role retrieved"
// @Router /link/role [get]
func (h *LinkHandler) GetRole(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Role retrieved", gin.H{
		"role": h.linkService.Role().String(),
	})
}

// SetRole sets the role directly
// @Summary Set role
// @Description A running worker picks up the new role on its next iteration
// @Tags Link
// @Accept json
// @Produce json
// @Param request body model.RoleRequest true "Role request"
// @Success 200 {object} utils.APIResponse{data=object{role=string}} "Role updated"
// @Failure 400 {object} utils.APIResponse "Invalid role"
// @Router /link/role [put]
func (h *LinkHandler) SetRole(c *gin.Context) {
	var req model.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role, err := task.ParseRole(req.Role)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid role", err)
		return
	}
	if err := h.linkService.SetRole(role); err != nil {
		h.fail(c, "Failed to set role", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Role updated", gin.H{
		"role": h.linkService.Role().String(),
	})
}

// GetSettings returns the current link settings
// @Summary Get link settings
// @Tags Settings
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.LinkSettings} "Settings retrieved"
// @Router /link/settings [get]
func (h *LinkHandler) GetSettings(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Settings retrieved", service.ToModelSettings(h.linkService.Settings()))
}

// UpdateSettings edits individual settings fields
// @Summary Update link settings
// @Description Partial edit. A running worker sees the new values on its next iteration without restarting.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body model.LinkSettingsPatch true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=object{changed=[]string,settings=model.LinkSettings}} "Settings updated"
// @Failure 400 {object} utils.APIResponse "Invalid settings"
// @Router /link/settings [patch]
func (h *LinkHandler) UpdateSettings(c *gin.Context) {
	var req model.LinkSettingsPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch, err := service.PatchFromModel(req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	if patch.IsEmpty() {
		utils.ErrorResponse(c, http.StatusBadRequest, "No settings to update", nil)
		return
	}

	settings, changed, err := h.linkService.UpdateSettings(patch)
	if err != nil {
		h.fail(c, "Failed to update settings", err)
		return
	}
	if changed == nil {
		changed = []string{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings updated", gin.H{
		"changed":  changed,
		"settings": service.ToModelSettings(settings),
	})
}

// ReplaceSettings swaps the whole settings record
// @Summary Replace link settings
// @Description Full replacement. A running worker is recreated with the new settings.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body model.LinkSettings true "New settings"
// @Success 200 {object} utils.APIResponse{data=object{settings=model.LinkSettings,cycle=control.CycleResult}} "Settings replaced"
// @Failure 400 {object} utils.APIResponse "Invalid settings"
// @Router /link/settings [put]
func (h *LinkHandler) ReplaceSettings(c *gin.Context) {
	var req model.LinkSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	next, err := service.FromModelSettings(req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid settings", err)
		return
	}

	settings, res, err := h.linkService.ReplaceSettings(next)
	if err != nil {
		h.fail(c, "Failed to replace settings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings replaced", gin.H{
		"settings": service.ToModelSettings(settings),
		"cycle":    res,
	})
}

// RestartWorker replaces the running worker with a fresh one
// @Summary Restart worker
// @Tags Link
// @Produce json
// @Success 200 {object} utils.APIResponse{data=task.Status} "Worker restarted"
// @Failure 409 {object} utils.APIResponse "Link is not connected"
// @Router /link/worker/restart [post]
func (h *LinkHandler) RestartWorker(c *gin.Context) {
	st, err := h.linkService.RestartWorker()
	if err != nil {
		h.fail(c, "Failed to restart worker", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Worker restarted", st)
}

func (h *LinkHandler) fail(c *gin.Context, message string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		utils.LogError(h.logger.Logger, message, err, zap.String("request_id", c.GetString("request_id")))
	}
	utils.ErrorResponse(c, status, message, err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, link.ErrInvalidSetting),
		errors.Is(err, task.ErrInvalidRole),
		errors.Is(err, control.ErrInvalidScreen):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotConnected),
		errors.Is(err, task.ErrWorkerExists):
		return http.StatusConflict
	case errors.Is(err, task.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
