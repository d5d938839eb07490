/**
 * 处理器:工作流定义接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 工作流定义接口处理器，创建、查询、任务序列维护
 * @func: WorkflowHandler
 */
package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	catalogModel "labmaster/internal/model/catalog"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/utils"
	catalogService "labmaster/internal/service/catalog"
)

// WorkflowHandler 工作流定义接口处理器
type WorkflowHandler struct {
	catalogService *catalogService.CatalogService
}

// NewWorkflowHandler 创建工作流处理器实例
func NewWorkflowHandler(catalogService *catalogService.CatalogService) *WorkflowHandler {
	return &WorkflowHandler{
		catalogService: catalogService,
	}
}

// statusFromError 错误哨兵到HTTP状态码的映射
func statusFromError(err error) int {
	switch {
	case errors.Is(err, system.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, system.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, system.ErrInvalidRequest), system.IsValidationError(err):
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

// parseIDParam 解析路径中的数字ID
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid " + name,
			Error:   err.Error(),
		})
		return 0, false
	}
	return id, true
}

// CreateWorkflow 创建工作流定义
// POST /api/v1/workflows
func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupIDs := utils.GetCurrentGroupIDs(c)

	var workflow catalogModel.Workflow
	if err := c.ShouldBindJSON(&workflow); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.catalogService.CreateWorkflow(c.Request.Context(), &workflow, userID, groupIDs); err != nil {
		respondError(c, err, "Failed to create workflow")
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Workflow created",
		Data:    workflow,
	})
}

// GetWorkflow 获取工作流定义
// GET /api/v1/workflows/:id
func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	workflow, err := h.catalogService.GetWorkflow(c.Request.Context(), id, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to get workflow")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   workflow,
	})
}

// GetWorkflowList 分页获取工作流列表
// GET /api/v1/workflows
func (h *WorkflowHandler) GetWorkflowList(c *gin.Context) {
	groupIDs := utils.GetCurrentGroupIDs(c)

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

	workflows, total, err := h.catalogService.GetWorkflowList(c.Request.Context(), pagination.Page, pagination.PageSize, keyword, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to list workflows")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data: model.PaginationResponse{
			Total:    total,
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
			Data:     workflows,
		},
	})
}

// UpdateWorkflowTasks 整体替换工作流任务序列
// PUT /api/v1/workflows/:id/tasks
func (h *WorkflowHandler) UpdateWorkflowTasks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	var req struct {
		TaskTemplateIDs []uint64 `json:"task_template_ids" binding:"required"` // 任务模板ID列表(按执行顺序)
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

	if err := h.catalogService.UpdateWorkflowTasks(c.Request.Context(), id, req.TaskTemplateIDs, groupIDs); err != nil {
		respondError(c, err, "Failed to update workflow tasks")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Workflow tasks updated",
	})
}

// DeleteWorkflow 删除工作流定义
// DELETE /api/v1/workflows/:id
func (h *WorkflowHandler) DeleteWorkflow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	if err := h.catalogService.DeleteWorkflow(c.Request.Context(), id, groupIDs); err != nil {
		respondError(c, err, "Failed to delete workflow")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Workflow deleted",
	})
}
