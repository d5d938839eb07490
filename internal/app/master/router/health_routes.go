/**
 * 路由:健康检查路由
 * @author: sun977
 * @date: 2025.10.22
 * @description: 包含健康检查路由
 * @func: setupHealthRoutes
 */
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labmaster/internal/pkg/logger"
)

// setupHealthRoutes 设置健康检查路由
func (r *Router) setupHealthRoutes(api *gin.RouterGroup) {
	// 健康检查
	api.GET("/health", r.healthCheck)
	// 存活检查
	api.GET("/live", r.livenessCheck)
}

// healthCheck 健康检查处理器
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"app":       r.config.App.Name,
		"version":   r.config.App.Version,
		"timestamp": logger.NowFormatted(),
	})
}

// livenessCheck 存活检查处理器
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": logger.NowFormatted(),
	})
}
