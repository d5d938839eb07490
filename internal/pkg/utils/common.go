/*
 * @author: sun977
 * @date: 2025.10.20
 * @description: 通用的工具包
 * @func:
 */

package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKey 类型用于标准上下文键的定义，避免使用裸字符串造成键冲突
type ContextKey string

// ContextKeyClientIP 标准上下文中存储客户端IP的统一键
const ContextKeyClientIP ContextKey = "client_ip"

// GetClientIP 从 Gin 上下文中提取客户端IP
func GetClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// GetCurrentUserID 从 Gin 上下文中提取当前用户ID
// 如果不存在则返回0，轻校验
// 来源：user_id 最初是JWT中间件写入Gin上下文 GinJWTAuthMiddleware() 中
func GetCurrentUserID(c *gin.Context) uint64 {
	if v, ok := c.Get("user_id"); ok {
		if id, ok2 := v.(uint64); ok2 {
			return id
		}
	}
	return 0
}

// GetCurrentGroupIDs 从 Gin 上下文中提取当前用户的用户组ID列表
// 来源：group_ids 由JWT中间件写入Gin上下文
func GetCurrentGroupIDs(c *gin.Context) []uint64 {
	if v, ok := c.Get("group_ids"); ok {
		if ids, ok2 := v.([]uint64); ok2 {
			return ids
		}
	}
	return nil
}

// GetRequestID 获取请求追踪ID，缺失时生成新的UUID
func GetRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	if v, ok := c.Get("request_id"); ok {
		if id, ok2 := v.(string); ok2 && id != "" {
			return id
		}
	}
	id := uuid.NewString()
	c.Set("request_id", id)
	return id
}

// GetClientIPFromContext 从标准上下文读取客户端IP（统一键）
// 说明：
// - 使用 ContextKeyClientIP 作为唯一键，保证读写一致，跨包可用
// - 如果不存在或类型不匹配，返回空字符串
func GetClientIPFromContext(ctx context.Context) string {
	v := ctx.Value(ContextKeyClientIP)
	if ip, ok := v.(string); ok {
		return ip
	}
	return ""
}
