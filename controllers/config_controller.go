package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// ConfigController serves the emergency contacts and remedies record.
type ConfigController struct {
	resources *services.ResourceService
}

func NewConfigController(resources *services.ResourceService) *ConfigController {
	return &ConfigController{resources: resources}
}

// GetResources returns the current configuration. It is public so the help screen
// works before sign in.
func (c *ConfigController) GetResources(ctx *gin.Context) {
	cfg, err := c.resources.Get(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, cfg)
}

// SaveResources replaces the whole configuration.
func (c *ConfigController) SaveResources(ctx *gin.Context) {
	var req models.ResourceConfig
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	saved, err := c.resources.Save(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, saved)
}
