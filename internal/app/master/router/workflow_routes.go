/**
 * 路由:工作流执行路由
 * @author: sun977
 * @date: 2025.10.22
 * @description: 活动工作流与产品相关路由
 * @func: setupWorkflowRoutes
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupWorkflowRoutes 设置工作流执行路由
func (r *Router) setupWorkflowRoutes(v1 *gin.RouterGroup) {
	activeWorkflows := v1.Group("/active-workflows")
	activeWorkflows.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		activeWorkflows.POST("", r.engineHandler.CreateActiveWorkflow)
		activeWorkflows.GET("", r.engineHandler.GetActiveWorkflowList)
		activeWorkflows.GET("/:id", r.engineHandler.GetActiveWorkflow)

		// 任务执行
		activeWorkflows.POST("/:id/start-task", r.engineHandler.StartTask)
		activeWorkflows.GET("/:id/task-status", r.engineHandler.TaskStatus)
		activeWorkflows.POST("/:id/complete-task", r.engineHandler.CompleteTask)
		activeWorkflows.POST("/:id/retry-task", r.engineHandler.RetryTask)

		// 产品挂载与切换
		activeWorkflows.POST("/:id/products", r.engineHandler.AddProduct)
		activeWorkflows.DELETE("/:id/products/:wpid", r.engineHandler.RemoveProduct)
		activeWorkflows.POST("/:id/switch", r.engineHandler.SwitchWorkflow)
	}

	products := v1.Group("/products")
	products.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		products.POST("", r.productHandler.CreateProduct)
		products.GET("", r.productHandler.GetProductList)
		products.GET("/:id", r.productHandler.GetProduct)
		products.GET("/:id/history", r.productHandler.GetProductHistory)
		products.PUT("/:id", r.productHandler.UpdateProduct)
		products.DELETE("/:id", r.productHandler.DeleteProduct)
	}
}
