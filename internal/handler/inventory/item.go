/**
 * 处理器:库存接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 库存物品、物品类型、存放位置接口处理器
 * @func: ItemHandler
 */
package inventory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/utils"
	invService "labmaster/internal/service/inventory"
)

// ItemHandler 库存接口处理器
type ItemHandler struct {
	itemService *invService.ItemService
}

// NewItemHandler 创建库存处理器实例
func NewItemHandler(itemService *invService.ItemService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
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

// CreateItem 创建库存物品
// POST /api/v1/items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupIDs := utils.GetCurrentGroupIDs(c)

	var item invModel.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.itemService.CreateItem(c.Request.Context(), &item, userID, groupIDs); err != nil {
		respondError(c, err, "Failed to create item")
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Item created",
		Data:    item,
	})
}

// GetItem 获取物品详情
// GET /api/v1/items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid ID",
			Error:   err.Error(),
		})
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	item, err := h.itemService.GetItem(c.Request.Context(), id, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to get item")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   item,
	})
}

// GetItemList 分页获取物品列表
// GET /api/v1/items?page=&page_size=&item_type_id=&keyword=
func (h *ItemHandler) GetItemList(c *gin.Context) {
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

	var itemTypeID *uint64
	if raw := c.Query("item_type_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, system.APIResponse{
				Code:    http.StatusBadRequest,
				Status:  "failed",
				Message: "Invalid item_type_id",
				Error:   err.Error(),
			})
			return
		}
		itemTypeID = &id
	}
	var keyword *string
	if kw := c.Query("keyword"); kw != "" {
		keyword = &kw
	}

	items, total, err := h.itemService.GetItemList(c.Request.Context(), pagination.Page, pagination.PageSize, itemTypeID, keyword, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to list items")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data: model.PaginationResponse{
			Total:    total,
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
			Data:     items,
		},
	})
}

// GetItemTransfers 获取物品转移记录
// GET /api/v1/items/:id/transfers
func (h *ItemHandler) GetItemTransfers(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid ID",
			Error:   err.Error(),
		})
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	transfers, err := h.itemService.GetItemTransfers(c.Request.Context(), id, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to get item transfers")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   transfers,
	})
}

// DeleteItem 删除物品
// DELETE /api/v1/items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid ID",
			Error:   err.Error(),
		})
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	if err := h.itemService.DeleteItem(c.Request.Context(), id, groupIDs); err != nil {
		respondError(c, err, "Failed to delete item")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Item deleted",
	})
}

// CreateItemType 创建物品类型
// POST /api/v1/item-types
func (h *ItemHandler) CreateItemType(c *gin.Context) {
	var itemType invModel.ItemType
	if err := c.ShouldBindJSON(&itemType); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.itemService.CreateItemType(c.Request.Context(), &itemType); err != nil {
		respondError(c, err, "Failed to create item type")
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Item type created",
		Data:    itemType,
	})
}

// GetItemTypeList 获取全部物品类型
// GET /api/v1/item-types
func (h *ItemHandler) GetItemTypeList(c *gin.Context) {
	itemTypes, err := h.itemService.GetItemTypeList(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list item types")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   itemTypes,
	})
}

// CreateLocation 创建存放位置
// POST /api/v1/locations
func (h *ItemHandler) CreateLocation(c *gin.Context) {
	var location invModel.Location
	if err := c.ShouldBindJSON(&location); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.itemService.CreateLocation(c.Request.Context(), &location); err != nil {
		respondError(c, err, "Failed to create location")
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Location created",
		Data:    location,
	})
}

// GetLocationList 获取全部存放位置
// GET /api/v1/locations
func (h *ItemHandler) GetLocationList(c *gin.Context) {
	locations, err := h.itemService.GetLocationList(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list locations")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   locations,
	})
}
