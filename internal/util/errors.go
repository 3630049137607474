package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")

	// 流水线错误分级：提取失败终止整轮分析，模型/格式问题走兜底。
	// 重复挑战与唯一键冲突按"已存在"处理，不算失败，因此没有对应的错误值。
	ErrExtraction        = errors.New("resume extraction failed")
	ErrOracle            = errors.New("generative model call failed")
	ErrSchemaValidation  = errors.New("model output failed schema validation")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrStepNotFound      = errors.New("project step not found")
)
