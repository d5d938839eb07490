/**
 * 路由:用户与权限路由
 * @author: sun977
 * @date: 2025.10.22
 * @description: 用户、用户组、对象权限相关的认证路由
 * @func: setupUserRoutes
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupUserRoutes 设置用户与权限路由
func (r *Router) setupUserRoutes(v1 *gin.RouterGroup) {
	// 登出需要携带有效令牌，但不依赖用户上下文
	v1.POST("/auth/logout", r.logoutHandler.Logout)

	users := v1.Group("/users")
	users.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		users.GET("/me", r.userHandler.GetCurrentUser)
		users.GET("", r.userHandler.GetUserList)
		users.POST("/change-password", r.userHandler.ChangePassword)
	}

	groups := v1.Group("/groups")
	groups.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		groups.POST("", r.groupHandler.CreateGroup)
		groups.GET("", r.groupHandler.GetGroupList)
		groups.GET("/:id", r.groupHandler.GetGroup)
		groups.DELETE("/:id", r.groupHandler.DeleteGroup)
		groups.GET("/:id/users", r.groupHandler.GetGroupUsers)
		groups.POST("/:id/users", r.userHandler.AddUserToGroup)
		groups.DELETE("/:id/users/:uid", r.userHandler.RemoveUserFromGroup)
	}

	permissions := v1.Group("/permissions")
	permissions.Use(r.middlewareManager.GinJWTAuthMiddleware(), r.middlewareManager.GinUserActiveMiddleware())
	{
		permissions.POST("", r.permissionHandler.AssignPermission)
		permissions.GET("", r.permissionHandler.GetObjectPermissions)
		permissions.DELETE("", r.permissionHandler.RevokePermission)
	}
}
