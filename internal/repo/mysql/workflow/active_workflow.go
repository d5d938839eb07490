/**
 * 工作流仓库层:运行实例数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 运行中工作流实例数据访问层，不包含业务逻辑
 * @func: 运行实例的创建、查询、成员计数、删除
 */
package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/logger"
)

// ActiveWorkflowRepository 运行实例仓库结构体
type ActiveWorkflowRepository struct {
	db *gorm.DB // 数据库连接
}

// NewActiveWorkflowRepository 创建运行实例仓库实例
func NewActiveWorkflowRepository(db *gorm.DB) *ActiveWorkflowRepository {
	return &ActiveWorkflowRepository{
		db: db,
	}
}

// BeginTx 开始事务
func (r *ActiveWorkflowRepository) BeginTx(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Begin()
}

// CreateActiveWorkflow 创建运行实例
func (r *ActiveWorkflowRepository) CreateActiveWorkflow(ctx context.Context, aw *wfModel.ActiveWorkflow) error {
	aw.CreatedAt = time.Now()
	aw.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(aw).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "active_workflow_create", "POST", map[string]interface{}{
			"operation":   "create_active_workflow",
			"func_name":   "repo.workflow.CreateActiveWorkflow",
			"workflow_id": aw.WorkflowID,
		})
		return err
	}
	return nil
}

// CreateActiveWorkflowWithTx 事务创建运行实例
func (r *ActiveWorkflowRepository) CreateActiveWorkflowWithTx(tx *gorm.DB, aw *wfModel.ActiveWorkflow) error {
	aw.CreatedAt = time.Now()
	aw.UpdatedAt = time.Now()
	return tx.Create(aw).Error
}

// GetActiveWorkflowByID 根据ID获取运行实例
// 预加载成员产品及其关联库存物品
func (r *ActiveWorkflowRepository) GetActiveWorkflowByID(ctx context.Context, id uint64) (*wfModel.ActiveWorkflow, error) {
	var aw wfModel.ActiveWorkflow
	err := r.db.WithContext(ctx).
		Preload("Products").
		Preload("Products.Product").
		Preload("Products.Product.LinkedItem").
		Where("id = ?", id).First(&aw).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "active_workflow_get", "GET", map[string]interface{}{
			"operation":          "get_active_workflow_by_id",
			"func_name":          "repo.workflow.GetActiveWorkflowByID",
			"active_workflow_id": id,
		})
		return nil, err
	}
	return &aw, nil
}

// GetActiveWorkflowList 分页获取运行实例列表
func (r *ActiveWorkflowRepository) GetActiveWorkflowList(ctx context.Context, offset, limit int) ([]*wfModel.ActiveWorkflow, int64, error) {
	var aws []*wfModel.ActiveWorkflow
	var total int64

	query := r.db.WithContext(ctx).Model(&wfModel.ActiveWorkflow{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Workflow").Order("id DESC").
		Offset(offset).Limit(limit).Find(&aws).Error
	if err != nil {
		return nil, 0, err
	}
	return aws, total, nil
}

// CountProductsWithTx 事务内统计运行实例的成员产品数
// 最后一个成员被移除时实例随之删除，计数必须在同事务内取得
func (r *ActiveWorkflowRepository) CountProductsWithTx(tx *gorm.DB, activeWorkflowID uint64) (int64, error) {
	var count int64
	err := tx.Model(&wfModel.WorkflowProduct{}).
		Where("active_workflow_id = ?", activeWorkflowID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteActiveWorkflowWithTx 事务内删除运行实例
func (r *ActiveWorkflowRepository) DeleteActiveWorkflowWithTx(tx *gorm.DB, id uint64) error {
	return tx.Delete(&wfModel.ActiveWorkflow{}, id).Error
}
