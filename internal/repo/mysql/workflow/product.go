/**
 * 工作流仓库层:产品数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 产品数据访问层，不包含业务逻辑
 * @func: 产品的增删改查、批量获取
 */
package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/logger"
)

// ProductRepository 产品仓库结构体
type ProductRepository struct {
	db *gorm.DB // 数据库连接
}

// NewProductRepository 创建产品仓库实例
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		db: db,
	}
}

// CreateProduct 创建产品
func (r *ProductRepository) CreateProduct(ctx context.Context, product *wfModel.Product) error {
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(product).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "product_create", "POST", map[string]interface{}{
			"operation":          "create_product",
			"func_name":          "repo.workflow.CreateProduct",
			"product_identifier": product.Identifier,
		})
		return err
	}
	return nil
}

// GetProductByID 根据ID获取产品
func (r *ProductRepository) GetProductByID(ctx context.Context, id uint64) (*wfModel.Product, error) {
	var product wfModel.Product
	err := r.db.WithContext(ctx).Preload("LinkedItem").
		Where("id = ?", id).First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "product_get", "GET", map[string]interface{}{
			"operation":  "get_product_by_id",
			"func_name":  "repo.workflow.GetProductByID",
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

// GetProductByIdentifier 根据产品编号获取产品
func (r *ProductRepository) GetProductByIdentifier(ctx context.Context, identifier string) (*wfModel.Product, error) {
	var product wfModel.Product
	err := r.db.WithContext(ctx).Preload("LinkedItem").
		Where("identifier = ?", identifier).First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs 批量获取产品（保留入参顺序由调用方处理）
func (r *ProductRepository) GetProductsByIDs(ctx context.Context, ids []uint64) ([]*wfModel.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []*wfModel.Product
	err := r.db.WithContext(ctx).Preload("LinkedItem").
		Where("id IN ?", ids).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductList 分页获取产品列表
func (r *ProductRepository) GetProductList(ctx context.Context, offset, limit int, keyword *string) ([]*wfModel.Product, int64, error) {
	var products []*wfModel.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&wfModel.Product{})
	if keyword != nil && *keyword != "" {
		query = query.Where("name LIKE ? OR identifier LIKE ?", "%"+*keyword+"%", "%"+*keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("LinkedItem").
		Order("id DESC").Offset(offset).Limit(limit).Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// UpdateProduct 更新产品基本信息
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *wfModel.Product) error {
	product.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&wfModel.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":           product.Name,
			"linked_item_id": product.LinkedItemID,
			"updated_at":     product.UpdatedAt,
		}).Error
}

// DeleteProduct 删除产品
func (r *ProductRepository) DeleteProduct(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&wfModel.Product{}, id).Error
}
