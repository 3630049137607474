package controller

import (
	"errors"
	"resume_optimizer_backend/internal/model"
	"resume_optimizer_backend/internal/service"
	"resume_optimizer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChallengeController struct {
	ChallengeService *service.ChallengeService
}

func NewChallengeController(challengeService *service.ChallengeService) *ChallengeController {
	return &ChallengeController{ChallengeService: challengeService}
}

// List godoc
// @Summary 挑战列表
// @Description 当前用户的全部挑战，按创建时间倒序
// @Tags 挑战
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Challenge} "Success"
// @Router /api/challenges [get]
func (c *ChallengeController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	challenges, err := c.ChallengeService.List(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, challenges)
}

// Get godoc
// @Summary 挑战详情
// @Description 按 ID 获取挑战，只能看自己的
// @Tags 挑战
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "挑战ID"
// @Success 200 {object} util.Response{data=model.Challenge} "Success"
// @Failure 404 {object} util.Response "挑战不存在"
// @Router /api/challenges/{id} [get]
func (c *ChallengeController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid challenge id")
		return
	}

	challenge, err := c.ChallengeService.Get(id, claims.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	// 题目去掉答案再下发
	set, err := model.UnmarshalQuestionSet(challenge.Questions)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	questions := make([]gin.H, 0, len(set.Items))
	for i, item := range set.Items {
		q := gin.H{
			"index":    i,
			"type":     item.Type,
			"question": item.Question,
		}
		if item.Type == model.QuestionMCQ {
			q["options"] = item.Options
		}
		questions = append(questions, q)
	}

	util.Success(ctx, gin.H{
		"id":          challenge.ID,
		"skill":       challenge.Skill.Name,
		"description": challenge.Description,
		"reason":      challenge.Reason,
		"status":      challenge.Status,
		"questions":   questions,
		"createdAt":   challenge.CreatedAt,
	})
}

// SubmitRequest 答案按题目下标提交
type SubmitRequest struct {
	Answers map[int]string `json:"answers" binding:"required"`
}

// Submit godoc
// @Summary 提交挑战答案
// @Description 精确匹配判分，达到通过线置为 PASSED，否则 FAILED
// @Tags 挑战
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "挑战ID"
// @Param   body body SubmitRequest true "答案"
// @Success 200 {object} util.Response{data=service.GradeResult} "判分结果"
// @Failure 404 {object} util.Response "挑战不存在"
// @Router /api/challenges/{id}/submit [post]
func (c *ChallengeController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid challenge id")
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ChallengeService.Grade(claims.UserID, id, req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrChallengeNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}
