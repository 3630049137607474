package controller

import (
	"resume_optimizer_backend/internal/service"
	"resume_optimizer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
	OracleService    *service.OracleService
}

func NewDashboardController(dashboardService *service.DashboardService, oracleService *service.OracleService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		OracleService:    oracleService,
	}
}

// GetDashboard godoc
// @Summary 首页聚合数据
// @Description ATS 分、技能等级、挑战与项目进度、最近动态
// @Tags 首页
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.DashboardData} "Success"
// @Router /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	data, err := c.DashboardService.GetDashboardData(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, data)
}

// GetActivities godoc
// @Summary 最近动态
// @Description 按时间倒序的最近 20 条动态
// @Tags 首页
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Activity} "Success"
// @Router /api/activities [get]
func (c *DashboardController) GetActivities(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	activities, err := c.DashboardService.RecentActivities(claims.UserID, 20)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, activities)
}

// GetUsage godoc
// @Summary 模型用量统计
// @Description 累计调用次数、估算 token 与费用（管理员）
// @Tags 首页
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UsageStats} "Success"
// @Router /api/admin/usage [get]
func (c *DashboardController) GetUsage(ctx *gin.Context) {
	stats, err := c.OracleService.Usage(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// ResetUsage godoc
// @Summary 清零模型用量统计
// @Tags 首页
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "Success"
// @Router /api/admin/usage/reset [post]
func (c *DashboardController) ResetUsage(ctx *gin.Context) {
	if err := c.OracleService.ResetUsage(ctx.Request.Context()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
