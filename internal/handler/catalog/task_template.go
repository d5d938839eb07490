/**
 * 处理器:任务模板接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 任务模板接口处理器，含字段定义的创建与查询
 * @func: TaskTemplateHandler
 */
package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	catalogModel "labmaster/internal/model/catalog"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/utils"
	catalogService "labmaster/internal/service/catalog"
)

// TaskTemplateHandler 任务模板接口处理器
type TaskTemplateHandler struct {
	catalogService *catalogService.CatalogService
}

// NewTaskTemplateHandler 创建任务模板处理器实例
func NewTaskTemplateHandler(catalogService *catalogService.CatalogService) *TaskTemplateHandler {
	return &TaskTemplateHandler{
		catalogService: catalogService,
	}
}

// CreateTaskTemplate 创建任务模板
// POST /api/v1/task-templates
func (h *TaskTemplateHandler) CreateTaskTemplate(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupIDs := utils.GetCurrentGroupIDs(c)

	var template catalogModel.TaskTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.catalogService.CreateTaskTemplate(c.Request.Context(), &template, userID, groupIDs); err != nil {
		respondError(c, err, "Failed to create task template")
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Task template created",
		Data:    template,
	})
}

// GetTaskTemplate 获取任务模板详情
// GET /api/v1/task-templates/:id
func (h *TaskTemplateHandler) GetTaskTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	template, err := h.catalogService.GetTaskTemplate(c.Request.Context(), id, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to get task template")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   template,
	})
}

// GetTaskTemplateList 分页获取任务模板列表
// GET /api/v1/task-templates
func (h *TaskTemplateHandler) GetTaskTemplateList(c *gin.Context) {
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

	templates, total, err := h.catalogService.GetTaskTemplateList(c.Request.Context(), pagination.Page, pagination.PageSize, keyword, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to list task templates")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data: model.PaginationResponse{
			Total:    total,
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
			Data:     templates,
		},
	})
}

// UpdateTaskTemplate 更新任务模板
// PUT /api/v1/task-templates/:id
func (h *TaskTemplateHandler) UpdateTaskTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	var template catalogModel.TaskTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}
	template.ID = id

	if err := h.catalogService.UpdateTaskTemplate(c.Request.Context(), &template, groupIDs); err != nil {
		respondError(c, err, "Failed to update task template")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Task template updated",
		Data:    template,
	})
}

// DeleteTaskTemplate 删除任务模板
// DELETE /api/v1/task-templates/:id
func (h *TaskTemplateHandler) DeleteTaskTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	if err := h.catalogService.DeleteTaskTemplate(c.Request.Context(), id, groupIDs); err != nil {
		respondError(c, err, "Failed to delete task template")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Task template deleted",
	})
}
