package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business codes carried in JSONResponse.Code. The first three digits mirror the HTTP status.
const (
	CodeOK             = 0
	CodeBadRequest     = 40001
	CodeInvalidCheckIn = 40002
	CodeEmptyMessage   = 40003
	CodeUnknownGame    = 40004
	CodeInvalidDate    = 40005
	CodeUnauthorized   = 40100
	CodeBadCredentials = 40106
	CodeForbidden      = 40300
	CodeNotFound       = 40400
	CodeUsernameTaken  = 40901
	CodeRateLimited    = 42901
	CodeInternal       = 50000
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, CodeOK, "success", data)
}

// Created answers 201 with data.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, CodeOK, "created", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
