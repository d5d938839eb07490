/**
 * 路由:库存路由
 * @author: sun977
 * @date: 2025.10.22
 * @description: 库存物品、物品类型、存放位置相关路由
 * @func: setupInventoryRoutes
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupInventoryRoutes 设置库存路由
func (r *Router) setupInventoryRoutes(v1 *gin.RouterGroup) {
	items := v1.Group("/items")
	items.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		items.POST("", r.itemHandler.CreateItem)
		items.GET("", r.itemHandler.GetItemList)
		items.GET("/:id", r.itemHandler.GetItem)
		items.GET("/:id/transfers", r.itemHandler.GetItemTransfers)
		items.DELETE("/:id", r.itemHandler.DeleteItem)
	}

	itemTypes := v1.Group("/item-types")
	itemTypes.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		itemTypes.POST("", r.itemHandler.CreateItemType)
		itemTypes.GET("", r.itemHandler.GetItemTypeList)
	}

	locations := v1.Group("/locations")
	locations.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		locations.POST("", r.itemHandler.CreateLocation)
		locations.GET("", r.itemHandler.GetLocationList)
	}
}
