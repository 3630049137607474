package controller

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"resume_optimizer_backend/internal/service"
	"resume_optimizer_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

// 上传大小上限 10MB
const maxResumeSize = 10 << 20

type ResumeController struct {
	ResumeService  *service.ResumeService
	StorageService *service.StorageService
}

func NewResumeController(resumeService *service.ResumeService, storageService *service.StorageService) *ResumeController {
	return &ResumeController{
		ResumeService:  resumeService,
		StorageService: storageService,
	}
}

// Upload godoc
// @Summary 上传简历并分析
// @Description 上传 PDF/DOCX/TXT 简历，提取文本、打 ATS 分、识别技能缺口并生成挑战
// @Tags 简历
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "简历文件"
// @Success 200 {object} util.Response{data=service.AnalysisReport} "分析完成"
// @Failure 400 {object} util.Response "文件缺失或类型不支持"
// @Failure 422 {object} util.Response "文本提取失败"
// @Router /api/resume/upload [post]
func (c *ResumeController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if fileHeader.Size > maxResumeSize {
		util.BadRequest(ctx, "file too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	allowed := false
	for _, e := range util.AllowedResumeExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		util.BadRequest(ctx, "unsupported file type, expected one of: "+strings.Join(util.AllowedResumeExtensions, ", "))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// 先落存储再分析，分析失败文件也可追溯
	key := c.StorageService.ResumeKey(claims.UserID, fileHeader.Filename)
	contentType := contentTypeForExt(ext)
	if _, err := c.StorageService.Upload(ctx.Request.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	report, err := c.ResumeService.AnalyzeAndSynthesize(ctx.Request.Context(), claims.UserID, fileHeader.Filename, key, data)
	if err != nil {
		if errors.Is(err, util.ErrExtraction) {
			util.Error(ctx, 422, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, report)
}

// GetProfile godoc
// @Summary 当前简历档案
// @Description 最近一次上传的简历及其分析结论
// @Tags 简历
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.UserProfile} "Success"
// @Router /api/resume/profile [get]
func (c *ResumeController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.ResumeService.Profile(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"resumeName": profile.ResumeName,
		"resumeUrl":  c.StorageService.GetURL(profile.ResumeKey),
		"atsScore":   profile.ATSScore,
		"topSkills":  splitTopSkills(profile.TopSkills),
		"updatedAt":  profile.UpdatedAt,
	})
}

func splitTopSkills(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".pdf":
		return util.MimePDF
	case ".docx":
		return util.MimeDocx
	case ".txt":
		return util.MimePlainText
	}
	return util.MimeOctetStream
}
