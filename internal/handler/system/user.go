/**
 * 处理器:用户管理接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 用户信息、密码修改、用户组管理接口处理器
 * @func: UserHandler、GroupHandler
 */
package system

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/utils"
	authService "labmaster/internal/service/auth"
)

// UserHandler 用户管理接口处理器
type UserHandler struct {
	userService *authService.UserService
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService *authService.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetCurrentUser 获取当前登录用户信息
// GET /api/v1/users/me
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to get current user")
		return
	}
	if user == nil {
		respondError(c, system.ErrUserNotFound, "Failed to get current user")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   authService.ToUserInfo(user),
	})
}

// GetUserList 分页获取用户列表
// GET /api/v1/users
func (h *UserHandler) GetUserList(c *gin.Context) {
	var pagination model.PaginationRequest
	if err := c.ShouldBindQuery(&pagination); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid pagination",
			Error:   err.Error(),
		})
		return
	}
	pagination.Normalize()

	var keyword *string
	if kw := c.Query("keyword"); kw != "" {
		keyword = &kw
	}

	users, total, err := h.userService.GetUserList(c.Request.Context(), pagination.Page, pagination.PageSize, keyword)
	if err != nil {
		respondError(c, err, "Failed to list users")
		return
	}

	infos := make([]*model.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, authService.ToUserInfo(user))
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data: model.PaginationResponse{
			Total:    total,
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
			Data:     infos,
		},
	})
}

// ChangePassword 修改当前用户密码
// POST /api/v1/users/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req struct {
		OldPassword string `json:"old_password" binding:"required"` // 旧密码
		NewPassword string `json:"new_password" binding:"required"` // 新密码
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Password changed, please login again",
	})
}

// AddUserToGroup 将用户加入用户组
// POST /api/v1/groups/:id/users
func (h *UserHandler) AddUserToGroup(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid group ID",
			Error:   err.Error(),
		})
		return
	}

	var req struct {
		UserID uint64 `json:"user_id" binding:"required"` // 用户ID
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.userService.AddUserToGroup(c.Request.Context(), req.UserID, groupID); err != nil {
		respondError(c, err, "Failed to add user to group")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "User added to group",
	})
}

// RemoveUserFromGroup 将用户移出用户组
// DELETE /api/v1/groups/:id/users/:uid
func (h *UserHandler) RemoveUserFromGroup(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid group ID",
			Error:   err.Error(),
		})
		return
	}
	userID, err := strconv.ParseUint(c.Param("uid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid user ID",
			Error:   err.Error(),
		})
		return
	}

	if err := h.userService.RemoveUserFromGroup(c.Request.Context(), userID, groupID); err != nil {
		respondError(c, err, "Failed to remove user from group")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "User removed from group",
	})
}
