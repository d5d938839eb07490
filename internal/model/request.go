/**
 * 模型:请求模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: API请求数据模型，包含各种业务操作的请求结构体
 * @func: 各种Request结构体定义
 */
package model

// LoginRequest 登录请求结构
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // 用户名
	Password string `json:"password" binding:"required"` // 密码
}

// RefreshTokenRequest 刷新令牌请求结构
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"` // 刷新令牌
}

// RegisterRequest 用户注册请求结构
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"` // 用户名
	Email    string `json:"email" binding:"required,email"`           // 邮箱地址
	Password string `json:"password" binding:"required,min=8"`        // 密码
	Nickname string `json:"nickname"`                                 // 昵称
}

// PaginationRequest 分页请求结构
type PaginationRequest struct {
	Page     int `json:"page" form:"page"`           // 页码，从1开始
	PageSize int `json:"page_size" form:"page_size"` // 每页大小
}

// Normalize 规范化分页参数
func (p *PaginationRequest) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > 100 {
		p.PageSize = 20
	}
}

// AssignPermissionRequest 权限授予请求结构
type AssignPermissionRequest struct {
	ObjectType string `json:"object_type" binding:"required"` // 对象类型
	ObjectID   uint64 `json:"object_id" binding:"required"`   // 对象ID
	GroupID    uint64 `json:"group_id" binding:"required"`    // 被授权用户组ID
	CanRead    bool   `json:"can_read"`                       // 读权限
	CanWrite   bool   `json:"can_write"`                      // 写权限
}
