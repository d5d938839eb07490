/**
 * 工作流仓库层:产品进度游标数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 产品进度游标数据访问层，task_in_progress与run_identifier必须成对变更
 * @func: 游标的创建、查询、字段更新、删除
 */
package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/logger"
)

// WorkflowProductRepository 产品进度游标仓库结构体
type WorkflowProductRepository struct {
	db *gorm.DB // 数据库连接
}

// NewWorkflowProductRepository 创建产品进度游标仓库实例
func NewWorkflowProductRepository(db *gorm.DB) *WorkflowProductRepository {
	return &WorkflowProductRepository{
		db: db,
	}
}

// CreateWorkflowProductWithTx 事务内创建产品进度游标
func (r *WorkflowProductRepository) CreateWorkflowProductWithTx(tx *gorm.DB, wp *wfModel.WorkflowProduct) error {
	wp.CreatedAt = time.Now()
	wp.UpdatedAt = time.Now()
	return tx.Create(wp).Error
}

// GetWorkflowProductByID 根据ID获取产品进度游标
func (r *WorkflowProductRepository) GetWorkflowProductByID(ctx context.Context, id uint64) (*wfModel.WorkflowProduct, error) {
	var wp wfModel.WorkflowProduct
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.LinkedItem").
		Where("id = ?", id).First(&wp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "workflow_product_get", "GET", map[string]interface{}{
			"operation":           "get_workflow_product_by_id",
			"func_name":           "repo.workflow.GetWorkflowProductByID",
			"workflow_product_id": id,
		})
		return nil, err
	}
	return &wp, nil
}

// GetWorkflowProductByProductID 根据产品ID获取进度游标
// 产品与游标一对一，产品不在任何工作流中时返回 (nil, nil)
func (r *WorkflowProductRepository) GetWorkflowProductByProductID(ctx context.Context, productID uint64) (*wfModel.WorkflowProduct, error) {
	var wp wfModel.WorkflowProduct
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.LinkedItem").
		Where("product_id = ?", productID).First(&wp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &wp, nil
}

// GetWorkflowProductByProductIDWithTx 事务内根据产品ID获取进度游标
func (r *WorkflowProductRepository) GetWorkflowProductByProductIDWithTx(tx *gorm.DB, productID uint64) (*wfModel.WorkflowProduct, error) {
	var wp wfModel.WorkflowProduct
	err := tx.Preload("Product").Preload("Product.LinkedItem").
		Where("product_id = ?", productID).First(&wp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &wp, nil
}

// GetWorkflowProductsByRunIdentifier 按执行关联ID获取进行中的游标
func (r *WorkflowProductRepository) GetWorkflowProductsByRunIdentifier(ctx context.Context, runIdentifier string) ([]*wfModel.WorkflowProduct, error) {
	var wps []*wfModel.WorkflowProduct
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.LinkedItem").
		Where("run_identifier = ? AND task_in_progress = ?", runIdentifier, true).
		Order("id ASC").Find(&wps).Error
	if err != nil {
		return nil, err
	}
	return wps, nil
}

// GetWorkflowProductsByActiveWorkflow 获取运行实例的全部成员游标
func (r *WorkflowProductRepository) GetWorkflowProductsByActiveWorkflow(ctx context.Context, activeWorkflowID uint64) ([]*wfModel.WorkflowProduct, error) {
	var wps []*wfModel.WorkflowProduct
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("active_workflow_id = ?", activeWorkflowID).
		Order("id ASC").Find(&wps).Error
	if err != nil {
		return nil, err
	}
	return wps, nil
}

// UpdateWorkflowProductFieldsWithTx 事务内更新游标字段
// 调用方保证task_in_progress与run_identifier成对出现在fields中
func (r *WorkflowProductRepository) UpdateWorkflowProductFieldsWithTx(tx *gorm.DB, id uint64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return tx.Model(&wfModel.WorkflowProduct{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteWorkflowProductWithTx 事务内删除产品进度游标
func (r *WorkflowProductRepository) DeleteWorkflowProductWithTx(tx *gorm.DB, id uint64) error {
	return tx.Delete(&wfModel.WorkflowProduct{}, id).Error
}
