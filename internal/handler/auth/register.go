/**
 * 处理器:注册接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 用户注册接口处理器
 * @func: Register
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

// RegisterHandler 注册接口处理器
type RegisterHandler struct {
	userService *authService.UserService
}

// NewRegisterHandler 创建注册处理器实例
func NewRegisterHandler(userService *authService.UserService) *RegisterHandler {
	return &RegisterHandler{
		userService: userService,
	}
}

// Register 用户注册接口
// POST /api/v1/auth/register
func (h *RegisterHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, system.ErrUserAlreadyExists):
			statusCode = http.StatusConflict
		case system.IsValidationError(err):
			statusCode = http.StatusBadRequest
		}
		c.JSON(statusCode, system.APIResponse{
			Code:    statusCode,
			Status:  "failed",
			Message: "Registration failed",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "User registered",
		Data:    authService.ToUserInfo(user),
	})
}
