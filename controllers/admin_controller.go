package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// AdminController exposes account lifecycle operations to administrators.
type AdminController struct {
	users *services.UserManager
}

func NewAdminController(users *services.UserManager) *AdminController {
	return &AdminController{users: users}
}

type deleteUserRequest struct {
	Reason string `json:"reason"`
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ListUsers filters by status (all, pending, active, deleted) and searches name/email.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	f := repository.UserFilter{
		Status: repository.UserStatus(strings.ToLower(ctx.Query("status"))),
		Search: strings.TrimSpace(ctx.Query("search")),
	}
	f.Offset, f.Limit = parsePagination(ctx)
	page, err := a.users.List(ctx.Request.Context(), middleware.Caller(ctx), f)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

// GetUser returns the account with its deletion history.
func (a *AdminController) GetUser(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	detail, err := a.users.Get(ctx.Request.Context(), middleware.Caller(ctx), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, detail)
}

func (a *AdminController) Approve(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	user, err := a.users.Approve(ctx.Request.Context(), middleware.Caller(ctx), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

// Delete soft-deletes the account; the body carries an optional reason.
func (a *AdminController) Delete(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req deleteUserRequest
	if ctx.Request.ContentLength != 0 {
		if err := bindJSON(ctx, &req); err != nil {
			utils.Fail(ctx, err)
			return
		}
	}
	user, err := a.users.SoftDelete(ctx.Request.Context(), middleware.Caller(ctx), id, req.Reason)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

// Restore clears the deletion and reinstates the role held before it.
func (a *AdminController) Restore(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	user, err := a.users.Restore(ctx.Request.Context(), middleware.Caller(ctx), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

func (a *AdminController) ChangeRole(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req changeRoleRequest
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	user, err := a.users.ChangeRole(ctx.Request.Context(), middleware.Caller(ctx), id, role)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}
