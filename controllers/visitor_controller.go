package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

type VisitorController struct {
	visitors *services.VisitorService
}

func NewVisitorController(visitors *services.VisitorService) *VisitorController {
	return &VisitorController{visitors: visitors}
}

type visitRequest struct {
	BlogUserID uint   `json:"blog_user_id"`
	URLID      string `json:"url_id"`
	PostID     *uint  `json:"post_id"`
	Referrer   string `json:"referrer"`
}

// Record appends a page view. Views by the blog owner are acknowledged but
// not stored.
func (v *VisitorController) Record(ctx *gin.Context) {
	var req visitRequest
	if err := bindJSON(ctx, &req); err != nil {
		utils.Fail(ctx, err)
		return
	}
	recorded, err := v.visitors.Record(ctx.Request.Context(), middleware.Caller(ctx), services.VisitInput{
		BlogUserID: req.BlogUserID,
		URLID:      req.URLID,
		PostID:     req.PostID,
		Referrer:   req.Referrer,
		IP:         ctx.ClientIP(),
		UserAgent:  ctx.Request.UserAgent(),
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"recorded": recorded})
}
