package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// StatsController serves the author and administrator dashboards.
type StatsController struct {
	stats *services.StatsService
}

func NewStatsController(stats *services.StatsService) *StatsController {
	return &StatsController{stats: stats}
}

// User returns totals, top referrers and countries, and monthly series for the caller's blog.
func (s *StatsController) User(ctx *gin.Context) {
	out, err := s.stats.UserStats(ctx.Request.Context(), middleware.Caller(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, out)
}

// Admin returns platform-wide statistics.
func (s *StatsController) Admin(ctx *gin.Context) {
	out, err := s.stats.AdminStats(ctx.Request.Context(), middleware.Caller(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, out)
}
