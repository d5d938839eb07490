/**
 * 处理器:工作流执行引擎接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 运行实例与任务执行接口处理器，启动/完成/重试/状态查询/切换
 * @func: 库存不足错误原文透传给调用方，错误哨兵统一映射HTTP状态码
 */
package workflow

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/logger"
	"labmaster/internal/pkg/utils"
	authService "labmaster/internal/service/auth"
	wfService "labmaster/internal/service/workflow"
)

// EngineHandler 工作流执行引擎处理器
type EngineHandler struct {
	engineService *wfService.EngineService
	permService   *authService.PermissionService
}

// NewEngineHandler 创建引擎处理器实例
func NewEngineHandler(engineService *wfService.EngineService, permService *authService.PermissionService) *EngineHandler {
	return &EngineHandler{
		engineService: engineService,
		permService:   permService,
	}
}

// statusFromError 错误哨兵到HTTP状态码的映射
func statusFromError(err error) int {
	switch {
	case errors.Is(err, system.ErrObjectNotFound), errors.Is(err, system.ErrUserNotFound), errors.Is(err, system.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, system.ErrObjectGone):
		return http.StatusGone
	case errors.Is(err, system.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, system.ErrInvalidRequest),
		errors.Is(err, system.ErrInsufficientStock),
		errors.Is(err, system.ErrTaskInProgress),
		errors.Is(err, system.ErrTaskNotInProgress),
		errors.Is(err, system.ErrTaskMismatch),
		errors.Is(err, system.ErrWorkflowFinished),
		errors.Is(err, system.ErrProductInWorkflow),
		system.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError 写入错误响应，错误原文放在error字段透传
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

// CreateActiveWorkflow 创建运行实例
// POST /api/v1/active-workflows
func (h *EngineHandler) CreateActiveWorkflow(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupIDs := utils.GetCurrentGroupIDs(c)

	var req struct {
		WorkflowID uint64   `json:"workflow_id" binding:"required"` // 工作流定义ID
		ProductIDs []uint64 `json:"products" binding:"required"`    // 产品ID列表
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

	if err := h.permService.RequireRead(c.Request.Context(), model.ObjectTypeWorkflow, req.WorkflowID, groupIDs); err != nil {
		respondError(c, err, "Failed to create active workflow")
		return
	}

	aw, err := h.engineService.CreateActiveWorkflow(c.Request.Context(), req.WorkflowID, req.ProductIDs, userID)
	if err != nil {
		respondError(c, err, "Failed to create active workflow")
		return
	}

	// 创建者所属用户组获得运行实例的读写权限
	for _, groupID := range groupIDs {
		if err := h.permService.AssignPermissions(c.Request.Context(), model.ObjectTypeActiveWorkflow, aw.ID, groupID, true, true, userID); err != nil {
			logger.LogBusinessError(err, utils.GetRequestID(c), userID, utils.GetClientIP(c), "grant_active_workflow", "POST", map[string]interface{}{
				"active_workflow_id": aw.ID,
				"group_id":           groupID,
			})
		}
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Active workflow created",
		Data:    aw,
	})
}

// GetActiveWorkflow 获取运行实例详情
// GET /api/v1/active-workflows/:id
func (h *EngineHandler) GetActiveWorkflow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	if err := h.permService.RequireRead(c.Request.Context(), model.ObjectTypeActiveWorkflow, id, groupIDs); err != nil {
		respondError(c, err, "Failed to get active workflow")
		return
	}
	aw, err := h.engineService.GetActiveWorkflow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get active workflow")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   aw,
	})
}

// GetActiveWorkflowList 分页获取运行实例列表
// GET /api/v1/active-workflows
func (h *EngineHandler) GetActiveWorkflowList(c *gin.Context) {
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

	aws, total, err := h.engineService.GetActiveWorkflowList(c.Request.Context(), pagination.Page, pagination.PageSize)
	if err != nil {
		respondError(c, err, "Failed to list active workflows")
		return
	}

	// 列表按读权限过滤
	groupIDs := utils.GetCurrentGroupIDs(c)
	ids := make([]uint64, 0, len(aws))
	for _, aw := range aws {
		ids = append(ids, aw.ID)
	}
	readable, err := h.permService.FilterReadable(c.Request.Context(), model.ObjectTypeActiveWorkflow, ids, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to list active workflows")
		return
	}
	readableSet := make(map[uint64]struct{}, len(readable))
	for _, id := range readable {
		readableSet[id] = struct{}{}
	}
	visible := aws[:0]
	for _, aw := range aws {
		if _, ok := readableSet[aw.ID]; ok {
			visible = append(visible, aw)
		}
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data: model.PaginationResponse{
			Total:    total,
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
			Data:     visible,
		},
	})
}

// StartTask 启动任务
// POST /api/v1/active-workflows/:id/start-task
func (h *EngineHandler) StartTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := utils.GetCurrentUserID(c)
	groupIDs := utils.GetCurrentGroupIDs(c)

	var req wfModel.StartTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.permService.RequireWrite(c.Request.Context(), model.ObjectTypeActiveWorkflow, id, groupIDs); err != nil {
		respondError(c, err, "Failed to start task")
		return
	}

	resp, err := h.engineService.StartTask(c.Request.Context(), id, &req, userID)
	if err != nil {
		logger.LogBusinessError(err, utils.GetRequestID(c), userID, utils.GetClientIP(c), "start_task", "POST", map[string]interface{}{
			"active_workflow_id": id,
			"task_template_id":   req.Task.TaskTemplateID,
			"is_preview":         req.IsPreview,
		})
		respondError(c, err, "Failed to start task")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Task started",
		Data:    resp,
	})
}

// TaskStatus 查询任务执行状态
// GET /api/v1/active-workflows/:id/task-status?run_identifier=xxx&task_number=N
func (h *EngineHandler) TaskStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	runIdentifier := c.Query("run_identifier")
	taskNumber, err := strconv.Atoi(c.DefaultQuery("task_number", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid task_number",
			Error:   err.Error(),
		})
		return
	}

	if err := h.permService.RequireRead(c.Request.Context(), model.ObjectTypeActiveWorkflow, id, groupIDs); err != nil {
		respondError(c, err, "Failed to get task status")
		return
	}

	resp, err := h.engineService.TaskStatus(c.Request.Context(), id, runIdentifier, taskNumber)
	if err != nil {
		respondError(c, err, "Failed to get task status")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   resp,
	})
}

// CompleteTask 完成任务
// POST /api/v1/active-workflows/:id/complete-task
func (h *EngineHandler) CompleteTask(c *gin.Context) {
	h.finishTask(c, false)
}

// RetryTask 重试任务
// POST /api/v1/active-workflows/:id/retry-task
func (h *EngineHandler) RetryTask(c *gin.Context) {
	h.finishTask(c, true)
}

func (h *EngineHandler) finishTask(c *gin.Context, isRetry bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := utils.GetCurrentUserID(c)
	groupIDs := utils.GetCurrentGroupIDs(c)

	var req wfModel.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.permService.RequireWrite(c.Request.Context(), model.ObjectTypeActiveWorkflow, id, groupIDs); err != nil {
		respondError(c, err, "Failed to finish task")
		return
	}

	var message string
	var err error
	if isRetry {
		message, err = h.engineService.RetryTask(c.Request.Context(), id, req.TaskID, req.ProductIDs, userID)
	} else {
		message, err = h.engineService.CompleteTask(c.Request.Context(), id, req.TaskID, req.ProductIDs, userID)
	}
	if err != nil {
		logger.LogBusinessError(err, utils.GetRequestID(c), userID, utils.GetClientIP(c), "finish_task", "POST", map[string]interface{}{
			"active_workflow_id": id,
			"task_id":            req.TaskID,
			"is_retry":           isRetry,
		})
		respondError(c, err, "Failed to finish task")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: message,
	})
}

// AddProduct 向运行实例添加产品
// POST /api/v1/active-workflows/:id/products
func (h *EngineHandler) AddProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	var req struct {
		ProductID uint64 `json:"product_id" binding:"required"` // 产品ID
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

	if err := h.permService.RequireWrite(c.Request.Context(), model.ObjectTypeActiveWorkflow, id, groupIDs); err != nil {
		respondError(c, err, "Failed to add product")
		return
	}

	if err := h.engineService.AddProduct(c.Request.Context(), id, req.ProductID); err != nil {
		respondError(c, err, "Failed to add product")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Product added",
	})
}

// RemoveProduct 从运行实例移除产品
// DELETE /api/v1/active-workflows/:id/products/:wpid
func (h *EngineHandler) RemoveProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	wpID, ok := parseIDParam(c, "wpid")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	if err := h.permService.RequireWrite(c.Request.Context(), model.ObjectTypeActiveWorkflow, id, groupIDs); err != nil {
		respondError(c, err, "Failed to remove product")
		return
	}

	if err := h.engineService.RemoveProduct(c.Request.Context(), id, wpID); err != nil {
		respondError(c, err, "Failed to remove product")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Product removed",
	})
}

// SwitchWorkflow 将产品切换到其他工作流
// POST /api/v1/active-workflows/:id/switch
func (h *EngineHandler) SwitchWorkflow(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	var req wfModel.SwitchWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.permService.RequireWrite(c.Request.Context(), model.ObjectTypeActiveWorkflow, id, groupIDs); err != nil {
		respondError(c, err, "Failed to switch workflow")
		return
	}
	if req.TargetWorkflowID != 0 {
		if err := h.permService.RequireRead(c.Request.Context(), model.ObjectTypeWorkflow, req.TargetWorkflowID, groupIDs); err != nil {
			respondError(c, err, "Failed to switch workflow")
			return
		}
	}

	if err := h.engineService.SwitchWorkflow(c.Request.Context(), id, &req); err != nil {
		respondError(c, err, "Failed to switch workflow")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Workflow switched",
	})
}
