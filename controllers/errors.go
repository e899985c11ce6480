package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// respondError maps service errors onto the response envelope. Validation errors keep
// their message; anything unexpected is logged and reported as a bare 500.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		utils.Error(ctx, http.StatusConflict, utils.CodeUsernameTaken, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(ctx, http.StatusUnauthorized, utils.CodeBadCredentials, err.Error())
	case errors.Is(err, services.ErrInvalidAccount):
		utils.Error(ctx, http.StatusBadRequest, utils.CodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCheckIn):
		utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidCheckIn, err.Error())
	case errors.Is(err, services.ErrEmptyMessage):
		utils.Error(ctx, http.StatusBadRequest, utils.CodeEmptyMessage, err.Error())
	case errors.Is(err, services.ErrUnknownGame):
		utils.Error(ctx, http.StatusNotFound, utils.CodeUnknownGame, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, err.Error())
	default:
		utils.Logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "internal server error")
	}
}

func badPayload(ctx *gin.Context) {
	utils.Error(ctx, http.StatusBadRequest, utils.CodeBadRequest, "invalid request payload")
}
