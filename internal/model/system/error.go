/**
 * 模型:错误定义
 * @author: sun977
 * @date: 2025.10.20
 * @description: 系统错误常量和错误类型定义
 * @func: 各种错误常量和ValidationError结构体
 */
package system

import "errors"

// 用户相关错误
var (
	// 验证错误
	ErrInvalidUsername = errors.New("用户名格式无效")
	ErrInvalidEmail    = errors.New("邮箱格式无效")
	ErrInvalidPassword = errors.New("密码格式无效")

	// 业务逻辑错误
	ErrUserAlreadyExists = errors.New("用户已存在")
	ErrUserNotFound      = errors.New("用户不存在")
	ErrGroupNotFound     = errors.New("用户组不存在")

	// 认证错误
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("用户已被禁用")
	ErrTokenExpired       = errors.New("令牌已过期")
	ErrTokenInvalid       = errors.New("令牌无效")

	// 权限错误
	ErrPermissionDenied = errors.New("权限不足")
	ErrUnauthorized     = errors.New("未授权访问")
)

// 工作流引擎与库存相关错误
// 处理层按哨兵映射HTTP状态码:无效请求400、不存在404、权限不足403、已消亡410
var (
	ErrInvalidRequest    = errors.New("请求参数无效")
	ErrObjectNotFound    = errors.New("对象不存在")
	ErrObjectGone        = errors.New("对象已不存在")
	ErrInsufficientStock = errors.New("库存数量不足")
	ErrTaskInProgress    = errors.New("任务已在进行中")
	ErrTaskNotInProgress = errors.New("任务未在进行中")
	ErrTaskMismatch      = errors.New("任务与产品当前进度不匹配")
	ErrWorkflowFinished  = errors.New("产品已完成全部任务")
	ErrProductInWorkflow = errors.New("产品已在运行中工作流内")
)

// ValidationError 验证错误结构体
type ValidationError struct {
	Field   string `json:"field"`   // 字段名
	Message string `json:"message"` // 错误消息
}

// NewValidationError 创建验证错误
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		Message: message,
	}
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// APIResponse 通用API响应结构
type APIResponse struct {
	Code    int               `json:"code,omitempty"`   // 响应状态码，可选
	Status  string            `json:"status"`           // 响应状态："success" 或 "error"
	Message string            `json:"message"`          // 响应消息
	Data    interface{}       `json:"data,omitempty"`   // 响应数据，可选
	Error   string            `json:"error,omitempty"`  // 错误信息，可选
	Errors  []ValidationError `json:"errors,omitempty"` // 验证错误列表，可选
}
