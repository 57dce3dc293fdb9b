package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// AuthController handles registration, login and the caller's own profile.
type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type registerRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password" binding:"required"`
	URLID         string `json:"url_id"`
	BlogTitle     string `json:"blog_title"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Captcha issues a new image captcha for registration.
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Fail(ctx, services.Upstream("captcha generation failed", err))
		return
	}
	utils.Success(ctx, gin.H{"captcha_id": id, "image": b64})
}

// Register creates a PENDING account awaiting administrator approval.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	user, err := a.auth.Register(ctx.Request.Context(), services.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		URLID:         req.URLID,
		BlogTitle:     req.BlogTitle,
		CaptchaID:     req.CaptchaID,
		CaptchaAnswer: req.CaptchaAnswer,
		IP:            ctx.ClientIP(),
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, user)
}

func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	res, err := a.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// Logout revokes the presented token.
func (a *AuthController) Logout(ctx *gin.Context) {
	if claims := middleware.Claims(ctx); claims != nil {
		a.auth.Logout(claims.ID, utils.TokenExpiry(claims))
	}
	utils.Success(ctx, gin.H{"logged_out": true})
}

func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.auth.Me(ctx.Request.Context(), middleware.Caller(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req services.ProfileInput
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	user, err := a.auth.UpdateProfile(ctx.Request.Context(), middleware.Caller(ctx), req)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}
