package controller

import (
	"errors"
	"resume_optimizer_backend/internal/model"
	"resume_optimizer_backend/internal/service"
	"resume_optimizer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProjectController struct {
	ProjectService *service.ProjectService
	ResumeService  *service.ResumeService
}

func NewProjectController(projectService *service.ProjectService, resumeService *service.ResumeService) *ProjectController {
	return &ProjectController{
		ProjectService: projectService,
		ResumeService:  resumeService,
	}
}

// 优先用档案里的 top skills，没上传过简历就用请求里带的
func (c *ProjectController) resolveSkills(ctx *gin.Context, userID uint, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	profile, err := c.ResumeService.Profile(userID)
	if err != nil || profile.TopSkills == "" {
		return nil
	}
	return splitTopSkills(profile.TopSkills)
}

type IdeasRequest struct {
	Skills []string `json:"skills"`
}

// Ideas godoc
// @Summary 生成项目点子
// @Description 基于技能生成作品集项目点子，不落库
// @Tags 项目
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body IdeasRequest false "技能列表，缺省取简历档案"
// @Success 200 {object} util.Response{data=[]model.ProjectIdea} "Success"
// @Router /api/projects/ideas [post]
func (c *ProjectController) Ideas(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req IdeasRequest
	ctx.ShouldBindJSON(&req)

	skills := c.resolveSkills(ctx, claims.UserID, req.Skills)
	ideas := c.ProjectService.GenerateIdeas(ctx.Request.Context(), skills)
	util.Success(ctx, ideas)
}

type PlanRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// Plan godoc
// @Summary 生成并启动周计划
// @Description 为选定项目生成周计划并逐条幂等落库
// @Tags 项目
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body PlanRequest true "项目信息"
// @Success 201 {object} util.Response{data=object} "计划已创建"
// @Router /api/projects/plan [post]
func (c *ProjectController) Plan(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req PlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skills := c.resolveSkills(ctx, claims.UserID, req.Skills)
	plan := c.ProjectService.GenerateWeeklyPlan(ctx.Request.Context(), req.Title, req.Description, skills)

	createdCount, err := c.ProjectService.BuildSteps(claims.UserID, req.Title, plan)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"title":        req.Title,
		"plan":         plan,
		"createdCount": createdCount,
	})
}

type StepCodeRequest struct {
	Title           string   `json:"title" binding:"required"`
	Week            int      `json:"week" binding:"required,min=1"`
	StepDescription string   `json:"stepDescription" binding:"required"`
	Skills          []string `json:"skills"`
}

// StepCode godoc
// @Summary 生成步骤代码
// @Description 为某一周的任务生成代码与讲解，(用户, 项目, 周) 幂等
// @Tags 项目
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StepCodeRequest true "步骤信息"
// @Success 200 {object} util.Response{data=model.ProjectStep} "Success"
// @Router /api/projects/steps/code [post]
func (c *ProjectController) StepCode(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StepCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skills := c.resolveSkills(ctx, claims.UserID, req.Skills)
	step, err := c.ProjectService.SaveStepCode(ctx.Request.Context(), claims.UserID, req.Title, req.Week, req.StepDescription, skills)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, step)
}

// Timeline godoc
// @Summary 项目步骤时间线
// @Description 当前用户所有项目步骤，按项目和周排序
// @Tags 项目
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ProjectStep} "Success"
// @Router /api/projects/steps [get]
func (c *ProjectController) Timeline(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	steps, err := c.ProjectService.Timeline(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, steps)
}

// MarkDone godoc
// @Summary 标记步骤完成
// @Tags 项目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "步骤ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "步骤不存在"
// @Router /api/projects/steps/{id}/done [put]
func (c *ProjectController) MarkDone(ctx *gin.Context) {
	c.markStatus(ctx, model.StepDone)
}

// MarkPending godoc
// @Summary 步骤回到待办
// @Tags 项目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "步骤ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "步骤不存在"
// @Router /api/projects/steps/{id}/pending [put]
func (c *ProjectController) MarkPending(ctx *gin.Context) {
	c.markStatus(ctx, model.StepPending)
}

func (c *ProjectController) markStatus(ctx *gin.Context, status model.StepStatus) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid step id")
		return
	}

	if err := c.ProjectService.MarkStepStatus(claims.UserID, id, status); err != nil {
		if errors.Is(err, util.ErrStepNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"status": status})
}

// Regenerate godoc
// @Summary 重新生成步骤代码
// @Description 重跑已有步骤的代码生成，状态回到 PENDING
// @Tags 项目
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "步骤ID"
// @Success 200 {object} util.Response{data=model.ProjectStep} "Success"
// @Failure 404 {object} util.Response "步骤不存在"
// @Router /api/projects/steps/{id}/regenerate [post]
func (c *ProjectController) Regenerate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid step id")
		return
	}

	skills := c.resolveSkills(ctx, claims.UserID, nil)
	step, err := c.ProjectService.RegenerateStepCode(ctx.Request.Context(), claims.UserID, id, skills)
	if err != nil {
		if errors.Is(err, util.ErrStepNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, step)
}
