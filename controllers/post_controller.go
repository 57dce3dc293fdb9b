package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// PostController serves the authoring side of posts: the caller's own
// listing, drafts included, and CRUD.
type PostController struct {
	posts *services.PostService
}

func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// List returns the caller's posts, newest first.
func (p *PostController) List(ctx *gin.Context) {
	q, err := postQuery(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	page, err := p.posts.ListOwn(ctx.Request.Context(), middleware.Caller(ctx), q)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

func (p *PostController) Get(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	post, err := p.posts.Get(ctx.Request.Context(), middleware.Caller(ctx), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

func (p *PostController) Create(ctx *gin.Context) {
	var req services.PostInput
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	post, err := p.posts.Create(ctx.Request.Context(), middleware.Caller(ctx), req)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, post)
}

func (p *PostController) Update(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req services.PostInput
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	post, err := p.posts.Update(ctx.Request.Context(), middleware.Caller(ctx), id, req)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

func (p *PostController) Delete(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := p.posts.Delete(ctx.Request.Context(), middleware.Caller(ctx), id); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}
