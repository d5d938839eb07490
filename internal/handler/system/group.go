/**
 * 处理器:用户组接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 用户组增删改查接口处理器
 * @func: GroupHandler
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

// GroupHandler 用户组接口处理器
type GroupHandler struct {
	groupService *authService.GroupService
}

// NewGroupHandler 创建用户组处理器实例
func NewGroupHandler(groupService *authService.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

// CreateGroup 创建用户组
// POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var group model.Group
	if err := c.ShouldBindJSON(&group); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.groupService.CreateGroup(c.Request.Context(), &group, userID); err != nil {
		respondError(c, err, "Failed to create group")
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Group created",
		Data:    group,
	})
}

// GetGroupList 获取全部用户组
// GET /api/v1/groups
func (h *GroupHandler) GetGroupList(c *gin.Context) {
	groups, err := h.groupService.GetGroupList(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list groups")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   groups,
	})
}

// GetGroup 获取用户组详情
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid group ID",
			Error:   err.Error(),
		})
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get group")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   group,
	})
}

// GetGroupUsers 获取用户组成员
// GET /api/v1/groups/:id/users
func (h *GroupHandler) GetGroupUsers(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid group ID",
			Error:   err.Error(),
		})
		return
	}

	users, err := h.groupService.GetGroupUsers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get group users")
		return
	}

	infos := make([]*model.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, authService.ToUserInfo(user))
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   infos,
	})
}

// DeleteGroup 删除用户组
// DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid group ID",
			Error:   err.Error(),
		})
		return
	}

	if err := h.groupService.DeleteGroup(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete group")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Group deleted",
	})
}
