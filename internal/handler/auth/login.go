/**
 * 处理器:登录接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 用户登录接口处理器
 * @func: Login
 */
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/logger"
	"labmaster/internal/pkg/utils"
	authService "labmaster/internal/service/auth"
)

// LoginHandler 登录接口处理器
type LoginHandler struct {
	sessionService *authService.SessionService
}

// NewLoginHandler 创建登录处理器实例
func NewLoginHandler(sessionService *authService.SessionService) *LoginHandler {
	return &LoginHandler{
		sessionService: sessionService,
	}
}

// Login 用户登录接口
// POST /api/v1/auth/login
func (h *LoginHandler) Login(c *gin.Context) {
	clientIP := utils.GetClientIP(c)
	userAgent := c.GetHeader("User-Agent")
	XRequestID := c.GetHeader("X-Request-ID")

	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	resp, err := h.sessionService.Login(c.Request.Context(), &req, clientIP, userAgent)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, system.ErrInvalidCredentials):
			statusCode = http.StatusUnauthorized
		case errors.Is(err, system.ErrUserDisabled):
			statusCode = http.StatusForbidden
		case system.IsValidationError(err):
			statusCode = http.StatusBadRequest
		}
		logger.LogBusinessError(err, XRequestID, 0, clientIP, "user_login", "POST", map[string]interface{}{
			"operation":  "login",
			"username":   req.Username,
			"user_agent": userAgent,
		})
		c.JSON(statusCode, system.APIResponse{
			Code:    statusCode,
			Status:  "failed",
			Message: "Login failed",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Login successful",
		Data:    resp,
	})
}
