package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/middleware"
	"github.com/riserecover/server/models"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// AuthController handles registration, login and session endpoints.
type AuthController struct {
	accounts *services.AccountService
}

// NewAuthController creates a new controller instance.
func NewAuthController(accounts *services.AccountService) *AuthController {
	return &AuthController{accounts: accounts}
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Name      string `json:"name"`
	Addiction string `json:"addiction"`
	QuitDate  string `json:"quitDate"`
	City      string `json:"city"`
	AgeRange  string `json:"ageRange"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// Register creates an account and signs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}

	var quit time.Time
	if strings.TrimSpace(req.QuitDate) != "" {
		t, err := models.ParseDate(req.QuitDate)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, utils.CodeInvalidDate, "quitDate must be YYYY-MM-DD or RFC 3339")
			return
		}
		quit = t
	}

	user, err := a.accounts.Register(ctx.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Name:      req.Name,
		Addiction: req.Addiction,
		QuitDate:  quit,
		City:      req.City,
		AgeRange:  req.AgeRange,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	session, err := newSession(user)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, session)
}

// Login exchanges a username and password for a token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}

	user, err := a.accounts.Authenticate(ctx.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}

	session, err := newSession(user)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, session)
}

func newSession(user models.User) (sessionResponse, error) {
	token, expires, err := utils.GenerateToken(user.Username, user.IsAdmin, utils.TokenTTL)
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{Token: token, ExpiresAt: expires, User: user}, nil
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token, expiresAt := middleware.CurrentToken(ctx)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(utils.TokenTTL)
	}
	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated account.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.accounts.Lookup(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, user)
}
