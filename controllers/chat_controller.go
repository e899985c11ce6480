package controllers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/riserecover/server/middleware"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// ChatController serves the community message log.
type ChatController struct {
	chat      *services.ChatService
	heartbeat time.Duration
}

// NewChatController creates a controller. heartbeat is how often streams resend the
// log when nothing changed.
func NewChatController(chat *services.ChatService, heartbeat time.Duration) *ChatController {
	if heartbeat <= 0 {
		heartbeat = 2 * time.Second
	}
	return &ChatController{chat: chat, heartbeat: heartbeat}
}

// List returns the retained messages.
func (c *ChatController) List(ctx *gin.Context) {
	msgs, err := c.chat.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, msgs)
}

// Send posts a message as the authenticated member.
func (c *ChatController) Send(ctx *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	msg, err := c.chat.Send(ctx.Request.Context(), middleware.CurrentUsername(ctx), req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, msg)
}

// Stream pushes the full message list as a server-sent "messages" event whenever it
// changes and on every heartbeat.
func (c *ChatController) Stream(ctx *gin.Context) {
	updates, cancel := c.chat.Hub().Subscribe()
	defer cancel()
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	reqCtx := ctx.Request.Context()
	push := func() bool {
		msgs, err := c.chat.List(reqCtx)
		if err != nil {
			utils.Logger.Warn("chat stream read failed", zap.Error(err))
			return false
		}
		ctx.SSEvent("messages", msgs)
		ctx.Writer.Flush()
		return true
	}
	if !push() {
		return
	}
	ctx.Stream(func(io.Writer) bool {
		select {
		case <-reqCtx.Done():
			return false
		case _, ok := <-updates:
			return ok && push()
		case <-ticker.C:
			return push()
		}
	})
}
