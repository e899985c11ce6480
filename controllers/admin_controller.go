package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// AdminController serves the admin console.
type AdminController struct {
	accounts *services.AccountService
}

func NewAdminController(accounts *services.AccountService) *AdminController {
	return &AdminController{accounts: accounts}
}

// ListUsers returns every account in registration order.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	users, err := a.accounts.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items": users,
		"total": len(users),
	})
}

// CityReport returns member counts and the top addiction per city.
func (a *AdminController) CityReport(ctx *gin.Context) {
	report, err := a.accounts.CityReport(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, report)
}
