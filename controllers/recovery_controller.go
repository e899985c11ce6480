package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/middleware"
	"github.com/riserecover/server/models"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// RecoveryController serves progress views and the member's profile.
type RecoveryController struct {
	accounts *services.AccountService
	recovery *services.RecoveryService
}

// NewRecoveryController creates a new controller instance.
func NewRecoveryController(accounts *services.AccountService, recovery *services.RecoveryService) *RecoveryController {
	return &RecoveryController{accounts: accounts, recovery: recovery}
}

// Dashboard returns days clean, phase, streak and balance.
func (r *RecoveryController) Dashboard(ctx *gin.Context) {
	d, err := r.recovery.Dashboard(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, d)
}

// Timeline returns all phases with their status.
func (r *RecoveryController) Timeline(ctx *gin.Context) {
	t, err := r.recovery.Timeline(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, t)
}

// Achievements returns every milestone with progress.
func (r *RecoveryController) Achievements(ctx *gin.Context) {
	a, err := r.recovery.Achievements(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, a)
}

// Analytics returns the mood and cravings trend.
func (r *RecoveryController) Analytics(ctx *gin.Context) {
	points, err := r.recovery.Analytics(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, points)
}

// Phase classifies an arbitrary day count.
func (r *RecoveryController) Phase(ctx *gin.Context) {
	days, err := strconv.Atoi(ctx.Param("days"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeBadRequest, "days must be an integer")
		return
	}
	utils.Success(ctx, gin.H{
		"days":  days,
		"phase": services.ClassifyPhase(days),
	})
}

// Profile returns the member with emergency contacts.
func (r *RecoveryController) Profile(ctx *gin.Context) {
	p, err := r.recovery.Profile(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, p)
}

// UpdateQuitDate moves the member's quit date.
func (r *RecoveryController) UpdateQuitDate(ctx *gin.Context) {
	var req struct {
		QuitDate string `json:"quitDate" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	quit, err := models.ParseDate(req.QuitDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidDate, "quitDate must be YYYY-MM-DD or RFC 3339")
		return
	}
	user, err := r.accounts.UpdateQuitDate(ctx.Request.Context(), middleware.CurrentUsername(ctx), quit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, user)
}
