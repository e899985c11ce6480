package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/middleware"
	"github.com/riserecover/server/models"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// CheckInController handles daily check-in endpoints.
type CheckInController struct {
	checkins *services.CheckInService
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(checkins *services.CheckInService) *CheckInController {
	return &CheckInController{checkins: checkins}
}

type checkInRequest struct {
	Mood     int                    `json:"mood"`
	Cravings int                    `json:"cravings"`
	Symptoms []models.SymptomRecord `json:"symptoms"`
	Notes    string                 `json:"notes"`
}

// Submit records a check-in and returns the entry, advice and updated account.
func (c *CheckInController) Submit(ctx *gin.Context) {
	var req checkInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	res, err := c.checkins.Submit(ctx.Request.Context(), middleware.CurrentUsername(ctx), services.CheckInInput{
		Mood:     req.Mood,
		Cravings: req.Cravings,
		Symptoms: req.Symptoms,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, res)
}

// List returns the member's check-ins, oldest first.
func (c *CheckInController) List(ctx *gin.Context) {
	logs, err := c.checkins.History(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, logs)
}
