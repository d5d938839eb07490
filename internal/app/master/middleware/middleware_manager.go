/**
 * 中间件:中间件管理器
 * @author: sun977
 * @date: 2025.10.22
 * @description: 统一管理Gin中间件，提供认证、日志、安全相关中间件入口
 * @func: NewMiddlewareManager
 */
package middleware

import (
	"labmaster/internal/config"
	"labmaster/internal/service/auth"
)

// MiddlewareManager 中间件管理器
// 负责管理所有Gin框架的中间件，提供统一的中间件接口
type MiddlewareManager struct {
	sessionService *auth.SessionService   // 会话服务，用于JWT令牌验证
	userService    *auth.UserService      // 用户服务，用于加载用户组信息
	securityConfig *config.SecurityConfig // 安全配置
}

// NewMiddlewareManager 创建中间件管理器
func NewMiddlewareManager(sessionService *auth.SessionService, userService *auth.UserService, securityConfig *config.SecurityConfig) *MiddlewareManager {
	return &MiddlewareManager{
		sessionService: sessionService,
		userService:    userService,
		securityConfig: securityConfig,
	}
}
