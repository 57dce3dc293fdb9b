package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// BlogController serves the public reader side: blog pages, published
// listings and post detail.
type BlogController struct {
	posts      *services.PostService
	categories *services.CategoryService
}

func NewBlogController(posts *services.PostService, categories *services.CategoryService) *BlogController {
	return &BlogController{posts: posts, categories: categories}
}

// Profile returns the blog owner's public fields with the public category tree.
func (b *BlogController) Profile(ctx *gin.Context) {
	blog, err := b.posts.Blog(ctx.Request.Context(), ctx.Param("urlId"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	tree, err := b.categories.PublicTree(ctx.Request.Context(), blog.ID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"blog": services.AuthorSummary{
			ID:        blog.ID,
			Name:      blog.Name,
			URLID:     blog.URLID,
			BlogTitle: blog.BlogTitle,
		},
		"categories": tree,
	})
}

// Posts lists a blog's published posts with search and category filters.
func (b *BlogController) Posts(ctx *gin.Context) {
	q, err := postQuery(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	page, err := b.posts.ListBlog(ctx.Request.Context(), ctx.Param("urlId"), q)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

// Post returns one published post and counts the view.
func (b *BlogController) Post(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	post, err := b.posts.View(ctx.Request.Context(), ctx.Param("urlId"), id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, post)
}

// PublicPosts lists published posts across all active blogs.
func (b *BlogController) PublicPosts(ctx *gin.Context) {
	q, err := postQuery(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	page, err := b.posts.ListPublic(ctx.Request.Context(), q)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}
