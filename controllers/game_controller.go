package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/middleware"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// GameController pays out mini-game rewards.
type GameController struct {
	accounts *services.AccountService
}

func NewGameController(accounts *services.AccountService) *GameController {
	return &GameController{accounts: accounts}
}

// Reward credits the fixed reward for the game named in the path.
func (g *GameController) Reward(ctx *gin.Context) {
	user, amount, err := g.accounts.RewardGame(ctx.Request.Context(), middleware.CurrentUsername(ctx), ctx.Param("game"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"reward": amount,
		"coins":  user.Coins,
	})
}
