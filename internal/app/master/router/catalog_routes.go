/**
 * 路由:目录路由
 * @author: sun977
 * @date: 2025.10.22
 * @description: 工作流定义与任务模板相关路由
 * @func: setupCatalogRoutes
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupCatalogRoutes 设置目录路由
func (r *Router) setupCatalogRoutes(v1 *gin.RouterGroup) {
	workflows := v1.Group("/workflows")
	workflows.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		workflows.POST("", r.workflowHandler.CreateWorkflow)
		workflows.GET("", r.workflowHandler.GetWorkflowList)
		workflows.GET("/:id", r.workflowHandler.GetWorkflow)
		workflows.PUT("/:id/tasks", r.workflowHandler.UpdateWorkflowTasks)
		workflows.DELETE("/:id", r.workflowHandler.DeleteWorkflow)
	}

	taskTemplates := v1.Group("/task-templates")
	taskTemplates.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		taskTemplates.POST("", r.taskTemplateHandler.CreateTaskTemplate)
		taskTemplates.GET("", r.taskTemplateHandler.GetTaskTemplateList)
		taskTemplates.GET("/:id", r.taskTemplateHandler.GetTaskTemplate)
		taskTemplates.PUT("/:id", r.taskTemplateHandler.UpdateTaskTemplate)
		taskTemplates.DELETE("/:id", r.taskTemplateHandler.DeleteTaskTemplate)
	}
}
