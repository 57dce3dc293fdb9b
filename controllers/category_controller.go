package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// CategoryController manages the caller's category tree.
type CategoryController struct {
	categories *services.CategoryService
}

func NewCategoryController(categories *services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

// List returns the caller's categories as a tree with post and subcategory counts.
// flat=true returns the depth-first listing instead.
func (c *CategoryController) List(ctx *gin.Context) {
	tree, err := c.categories.List(ctx.Request.Context(), middleware.Caller(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if ctx.Query("flat") == "true" {
		utils.Success(ctx, services.FlattenTree(tree))
		return
	}
	utils.Success(ctx, tree)
}

func (c *CategoryController) Create(ctx *gin.Context) {
	var req services.CategoryInput
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	cat, err := c.categories.Create(ctx.Request.Context(), middleware.Caller(ctx), req)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Created(ctx, cat)
}

func (c *CategoryController) Update(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var req services.CategoryInput
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	cat, err := c.categories.Update(ctx.Request.Context(), middleware.Caller(ctx), id, req)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, cat)
}

// Delete refuses categories that still hold posts or subcategories.
func (c *CategoryController) Delete(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := c.categories.Delete(ctx.Request.Context(), middleware.Caller(ctx), id); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}
