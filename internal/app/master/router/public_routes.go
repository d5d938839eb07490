/**
 * 路由:公共路由
 * @author: sun977
 * @date: 2025.10.22
 * @description: 公共路由，包含注册、登录等不需要认证的路由
 * @func: setupPublicRoutes
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupPublicRoutes 设置公共路由
func (r *Router) setupPublicRoutes(v1 *gin.RouterGroup) {
	auth := v1.Group("/auth")
	{
		// 用户注册
		auth.POST("/register", r.registerHandler.Register)
		// 用户登录
		auth.POST("/login", r.loginHandler.Login)
		// 刷新令牌(从body中传递refresh_token)
		auth.POST("/refresh", r.refreshHandler.RefreshToken)
	}
}
