/**
 * 处理器:登出接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 用户登出接口处理器
 * @func: Logout
 */
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model/system"
	authPkg "labmaster/internal/pkg/auth"
	authService "labmaster/internal/service/auth"
)

// LogoutHandler 登出接口处理器
type LogoutHandler struct {
	sessionService *authService.SessionService
}

// NewLogoutHandler 创建登出处理器实例
func NewLogoutHandler(sessionService *authService.SessionService) *LogoutHandler {
	return &LogoutHandler{
		sessionService: sessionService,
	}
}

// Logout 用户登出接口
// POST /api/v1/auth/logout
func (h *LogoutHandler) Logout(c *gin.Context) {
	accessToken := authPkg.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, system.APIResponse{
			Code:    http.StatusUnauthorized,
			Status:  "failed",
			Message: "Missing authorization header",
		})
		return
	}

	if err := h.sessionService.Logout(c.Request.Context(), accessToken); err != nil {
		c.JSON(http.StatusUnauthorized, system.APIResponse{
			Code:    http.StatusUnauthorized,
			Status:  "failed",
			Message: "Logout failed",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Logout successful",
	})
}
