/**
 * 处理器:令牌刷新接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 刷新令牌接口处理器
 * @func: RefreshToken
 */
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	authService "labmaster/internal/service/auth"
)

// RefreshHandler 令牌刷新处理器
type RefreshHandler struct {
	sessionService *authService.SessionService
}

// NewRefreshHandler 创建令牌刷新处理器实例
func NewRefreshHandler(sessionService *authService.SessionService) *RefreshHandler {
	return &RefreshHandler{
		sessionService: sessionService,
	}
}

// RefreshToken 刷新令牌接口
// POST /api/v1/auth/refresh
func (h *RefreshHandler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	resp, err := h.sessionService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, system.ErrTokenInvalid), errors.Is(err, system.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
		case errors.Is(err, system.ErrUserNotFound), errors.Is(err, system.ErrUserDisabled):
			statusCode = http.StatusForbidden
		case system.IsValidationError(err):
			statusCode = http.StatusBadRequest
		}
		c.JSON(statusCode, system.APIResponse{
			Code:    statusCode,
			Status:  "failed",
			Message: "Token refresh failed",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Token refreshed",
		Data:    resp,
	})
}
