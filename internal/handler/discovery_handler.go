// internal/handler/discovery_handler.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-service/internal/service"
	"link-service/internal/utils"
)

// DiscoveryHandler handles port discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ports", h.ListPorts)
}

// ListPorts lists the serial ports on the host
// @Summary List serial ports
// @Description List serial ports that can be used as the link port. USB adapters only unless all=true.
// @Tags Discovery
// @Produce json
// @Param all query bool false "Include non-USB ports" default(false)
// @Success 200 {object} utils.APIResponse{data=object{ports_found=int,ports=[]model.PortInfo}} "Ports listed"
// @Failure 400 {object} utils.APIResponse "Invalid query"
// @Failure 500 {object} utils.APIResponse "Enumeration failed"
// @Router /ports [get]
func (h *DiscoveryHandler) ListPorts(c *gin.Context) {
	includeAll, err := strconv.ParseBool(c.DefaultQuery("all", "false"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid all parameter", err)
		return
	}

	ports, err := h.discoveryService.ListPorts(c.Request.Context(), includeAll)
	if err != nil {
		h.logger.Error("Failed to list ports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ports listed", gin.H{
		"ports_found": len(ports),
		"ports":       ports,
	})
}
