/**
 * 处理器:产品接口
 * @author: sun977
 * @date: 2025.10.22
 * @description: 产品管理接口处理器，登记、查询、历史记录
 * @func: ProductHandler
 */
package workflow

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/utils"
	wfService "labmaster/internal/service/workflow"
)

// ProductHandler 产品接口处理器
type ProductHandler struct {
	productService *wfService.ProductService
}

// NewProductHandler 创建产品处理器实例
func NewProductHandler(productService *wfService.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// CreateProduct 登记新产品
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupIDs := utils.GetCurrentGroupIDs(c)

	var product wfModel.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}

	if err := h.productService.CreateProduct(c.Request.Context(), &product, userID, groupIDs); err != nil {
		respondError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, system.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "Product created",
		Data:    product,
	})
}

// GetProduct 获取产品详情
// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	product, err := h.productService.GetProduct(c.Request.Context(), id, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data:   product,
	})
}

// GetProductList 分页获取产品列表
// GET /api/v1/products
func (h *ProductHandler) GetProductList(c *gin.Context) {
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

	products, total, err := h.productService.GetProductList(c.Request.Context(), pagination.Page, pagination.PageSize, keyword, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to list products")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data: model.PaginationResponse{
			Total:    total,
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
			Data:     products,
		},
	})
}

// GetProductHistory 分页获取产品执行历史
// GET /api/v1/products/:id/history
func (h *ProductHandler) GetProductHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
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

	entries, total, err := h.productService.GetProductHistory(c.Request.Context(), id, pagination.Page, pagination.PageSize, groupIDs)
	if err != nil {
		respondError(c, err, "Failed to get product history")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:   http.StatusOK,
		Status: "success",
		Data: model.PaginationResponse{
			Total:    total,
			Page:     pagination.Page,
			PageSize: pagination.PageSize,
			Data:     entries,
		},
	})
}

// UpdateProduct 更新产品基础信息
// PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	var product wfModel.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, system.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "failed",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}
	product.ID = id

	if err := h.productService.UpdateProduct(c.Request.Context(), &product, groupIDs); err != nil {
		respondError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Product updated",
		Data:    product,
	})
}

// DeleteProduct 删除产品
// DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groupIDs := utils.GetCurrentGroupIDs(c)

	if err := h.productService.DeleteProduct(c.Request.Context(), id, groupIDs); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, system.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "Product deleted",
	})
}
