/**
 * 中间件:日志相关中间件
 * @author: sun977
 * @date: 2025.10.22
 * @description: 定义日志中间件
 * @func:
 *   - GinLoggingMiddleware Gin日志中间件[同时把客户端IP存储到Gin上下文和标准上下文,供后续使用]
 */
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"labmaster/internal/pkg/logger"
	"labmaster/internal/pkg/utils"
)

// GinLoggingMiddleware Gin日志中间件
// 记录所有HTTP请求的访问日志和错误日志
// 使用方式: router.Use(middlewareManager.GinLoggingMiddleware())
func (m *MiddlewareManager) GinLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		clientIP := utils.GetClientIP(c)
		XRequestID := utils.GetRequestID(c)
		userAgent := c.GetHeader("User-Agent")

		// 存储到Gin上下文
		c.Set("client_ip", clientIP)

		// 存储到标准上下文，service层统一从标准上下文取客户端IP
		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyClientIP, clientIP)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		userID := utils.GetCurrentUserID(c)
		username := c.GetString("username")

		logger.LogBusinessOperation("http_request", userID, username, clientIP, XRequestID, "success", "API Request", map[string]interface{}{
			"operation":     "http_request",
			"method":        c.Request.Method,
			"url":           c.Request.URL.String(),
			"status_code":   statusCode,
			"duration":      duration.Milliseconds(),
			"user_agent":    userAgent,
			"referer":       c.Request.Referer(),
			"request_size":  c.Request.ContentLength,
			"response_size": int64(c.Writer.Size()),
		})

		if statusCode >= 400 {
			errorMsg := http.StatusText(statusCode)
			if ginErrors := c.Errors; len(ginErrors) > 0 {
				errorMsg = ginErrors.String()
			}
			logger.LogError(fmt.Errorf("HTTP %d: %s", statusCode, errorMsg), XRequestID, userID, clientIP, "http_request", c.Request.Method, map[string]interface{}{
				"operation":   "http_request",
				"method":      c.Request.Method,
				"url":         c.Request.URL.String(),
				"status_code": statusCode,
				"username":    username,
				"user_agent":  userAgent,
			})
		}
	}
}
