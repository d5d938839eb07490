/**
 * 中间件:认证相关中间件
 * @author: sun977
 * @date: 2025.10.22
 * @description: 定义认证相关中间件
 * @func:
 *   - GinJWTAuthMiddleware: Gin JWT认证中间件
 *   - GinUserActiveMiddleware: 检查用户是否活跃中间件
 *   - extractTokenFromGinHeader: 从Gin请求头中提取JWT令牌
 */
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model/system"
	"labmaster/internal/pkg/logger"
	"labmaster/internal/pkg/utils"
)

// GinJWTAuthMiddleware Gin JWT认证中间件
// 验证请求头中的JWT令牌（含撤销状态与密码版本检查），
// 并将用户ID、用户名、用户组信息存储到Gin上下文中供后续处理器使用
// 使用方式: router.Use(middlewareManager.GinJWTAuthMiddleware())
func (m *MiddlewareManager) GinJWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := utils.GetClientIP(c)
		XRequestID := c.GetHeader("X-Request-ID")

		accessToken, err := m.extractTokenFromGinHeader(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, system.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "failed",
				Message: "missing or invalid authorization header",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}

		claims, err := m.sessionService.ValidateAccessToken(c.Request.Context(), accessToken)
		if err != nil {
			logger.LogError(err, XRequestID, 0, clientIP, "token_validation", c.Request.Method, map[string]interface{}{
				"operation": "token_validation",
				"client_ip": clientIP,
			})
			c.JSON(http.StatusUnauthorized, system.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "failed",
				Message: "invalid or expired token",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}

		// 用户组以数据库当前值为准，令牌签发后组关系变化立即生效
		user, err := m.userService.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			c.JSON(http.StatusUnauthorized, system.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "failed",
				Message: "user not found",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("groups", user.GroupNames())
		c.Set("group_ids", user.GroupIDs())
		c.Set("claims", claims)

		c.Next()
	}
}

// GinUserActiveMiddleware Gin用户激活状态中间件
// 验证用户账户是否处于激活状态
// 使用方式: router.Use(middlewareManager.GinUserActiveMiddleware())
func (m *MiddlewareManager) GinUserActiveMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := utils.GetCurrentUserID(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, system.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "failed",
				Message: "user not authenticated",
			})
			c.Abort()
			return
		}

		user, err := m.userService.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, system.APIResponse{
				Code:    http.StatusInternalServerError,
				Status:  "failed",
				Message: "failed to check user status",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}
		if user == nil || !user.IsActive() {
			c.JSON(http.StatusForbidden, system.APIResponse{
				Code:    http.StatusForbidden,
				Status:  "failed",
				Message: "user account is inactive",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractTokenFromGinHeader 从Gin请求头中提取JWT令牌
func (m *MiddlewareManager) extractTokenFromGinHeader(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("authorization header must start with Bearer")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", errors.New("token is required")
	}
	return token, nil
}
