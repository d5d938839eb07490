/**
 * 中间件:安全中间件
 * @author: sun977
 * @date: 2025.10.22
 * @description: 定义安全中间件
 * @func:
 *   - GinCORSMiddleware CORS跨域资源共享中间件,处理跨域请求，设置必要的CORS头部信息
 *   - GinSecurityHeadersMiddleware 安全头部中间件,设置必要的安全头部信息，防止常见的安全漏洞
 *   - GinRequestIDMiddleware 请求ID中间件,为每个请求添加唯一的请求ID,方便日志跟踪和调试
 */
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"labmaster/internal/pkg/utils"
)

// GinCORSMiddleware CORS跨域资源共享中间件
// 处理跨域请求，设置必要的CORS头部信息
func (m *MiddlewareManager) GinCORSMiddleware() gin.HandlerFunc {
	corsConfig := m.securityConfig.CORS
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case corsConfig.AllowAllOrigins:
			if origin != "" {
				c.Header("Access-Control-Allow-Origin", origin)
			} else {
				c.Header("Access-Control-Allow-Origin", "*")
			}
		case origin != "" && containsOrigin(corsConfig.AllowOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
		}

		if len(corsConfig.AllowMethods) > 0 {
			c.Header("Access-Control-Allow-Methods", strings.Join(corsConfig.AllowMethods, ", "))
		} else {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		}
		if len(corsConfig.AllowHeaders) > 0 {
			c.Header("Access-Control-Allow-Headers", strings.Join(corsConfig.AllowHeaders, ", "))
		} else {
			c.Header("Access-Control-Allow-Headers",
				"Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID")
		}
		if corsConfig.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if corsConfig.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", strconv.Itoa(int(corsConfig.MaxAge.Seconds())))
		}

		// 预检请求直接返回
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// GinSecurityHeadersMiddleware 安全头部中间件
// 设置必要的安全头部信息，防止常见的安全漏洞
func (m *MiddlewareManager) GinSecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// GinRequestIDMiddleware 请求ID中间件
// 为每个请求添加唯一的请求ID，方便日志跟踪和调试
func (m *MiddlewareManager) GinRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := utils.GetRequestID(c)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// containsOrigin 判断来源是否在允许列表内
func containsOrigin(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == origin || a == "*" {
			return true
		}
	}
	return false
}
