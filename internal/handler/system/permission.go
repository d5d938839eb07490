/**
 * 处理器:对象权限接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 对象级权限授予、撤销、查询接口处理器
 * @func: PermissionHandler
 */
package system

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/utils"
	authService "labmaster/internal/service/auth"
)

// PermissionHandler 对象权限接口处理器
type PermissionHandler struct {
	permService *authService.PermissionService
}

// NewPermissionHandler 创建权限处理器实例
func NewPermissionHandler(permService *authService.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		permService: permService,
	}
}

// statusFromError 错误哨兵到HTTP状态码的映射
func statusFromError(err error) int {
	switch {
	case errors.Is(err, system.ErrObjectNotFound), errors.Is(err, system.ErrUserNotFound), errors.Is(err, system.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, system.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, system.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case system.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError 写入错误响应
func respondError(c *gin.Context, err error, message string) {
	statusCode := statusFromError(err)
	c.JSON(statusCode, system.APIResponse{
		Code:    statusCode,
		Status:  "failed",
		Message: message,
		Error:   err.Error(),
	})
}

// AssignPermission 授予用户组对象权限
// POST /api/v1/permissions
func (h *PermissionHandler) AssignPermission(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req model.AssignPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	err := h.permService.AssignPermissions(c.Request.Context(),
		model.ObjectType(req.ObjectType), req.ObjectID, req.GroupID, req.CanRead, req.CanWrite, userID)
	if err != nil {
		respondError(c, err, "Failed to assign permission")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Permission assigned",
	})
}

// RevokePermission 撤销用户组对象权限
// DELETE /api/v1/permissions?object_type=&object_id=&group_id=
func (h *PermissionHandler) RevokePermission(c *gin.Context) {
	objectType := c.Query("object_type")
	objectID, err := strconv.ParseUint(c.Query("object_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid object_id",
			Error:   err.Error(),
		})
		return
	}
	groupID, err := strconv.ParseUint(c.Query("group_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid group_id",
			Error:   err.Error(),
		})
		return
	}

	if err := h.permService.RevokePermissions(c.Request.Context(), model.ObjectType(objectType), objectID, groupID); err != nil {
		respondError(c, err, "Failed to revoke permission")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Permission revoked",
	})
}

// GetObjectPermissions 查询对象的全部授权记录
// GET /api/v1/permissions?object_type=&object_id=
func (h *PermissionHandler) GetObjectPermissions(c *gin.Context) {
	objectType := c.Query("object_type")
	objectID, err := strconv.ParseUint(c.Query("object_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid object_id",
			Error:   err.Error(),
		})
		return
	}

	perms, err := h.permService.GetObjectPermissions(c.Request.Context(), model.ObjectType(objectType), objectID)
	if err != nil {
		respondError(c, err, "Failed to get object permissions")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   perms,
	})
}
