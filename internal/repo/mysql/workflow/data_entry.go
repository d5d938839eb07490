/**
 * 工作流仓库层:执行审计记录数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 任务执行审计记录数据访问层，只追加写入，仅状态字段可升级
 * @func: 审计记录的创建、按执行ID/产品查询、状态升级、重复尝试判定
 */
package workflow

import (
	"context"
	"time"

	"gorm.io/gorm"

	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/logger"
)

// DataEntryRepository 审计记录仓库结构体
type DataEntryRepository struct {
	db *gorm.DB // 数据库连接
}

// NewDataEntryRepository 创建审计记录仓库实例
func NewDataEntryRepository(db *gorm.DB) *DataEntryRepository {
	return &DataEntryRepository{
		db: db,
	}
}

// CreateDataEntryWithTx 事务内创建审计记录
func (r *DataEntryRepository) CreateDataEntryWithTx(tx *gorm.DB, entry *wfModel.DataEntry) error {
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	return tx.Create(entry).Error
}

// GetDataEntriesByRunIdentifier 按执行关联ID获取审计记录
func (r *DataEntryRepository) GetDataEntriesByRunIdentifier(ctx context.Context, runIdentifier string) ([]*wfModel.DataEntry, error) {
	var entries []*wfModel.DataEntry
	err := r.db.WithContext(ctx).
		Where("run_identifier = ?", runIdentifier).
		Order("id ASC").Find(&entries).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "data_entry_get_by_run", "GET", map[string]interface{}{
			"operation":      "get_data_entries_by_run",
			"func_name":      "repo.workflow.GetDataEntriesByRunIdentifier",
			"run_identifier": runIdentifier,
		})
		return nil, err
	}
	return entries, nil
}

// GetActiveDataEntryWithTx 事务内获取某产品某次执行的活动审计记录
func (r *DataEntryRepository) GetActiveDataEntryWithTx(tx *gorm.DB, productID uint64, runIdentifier string) (*wfModel.DataEntry, error) {
	var entry wfModel.DataEntry
	err := tx.Where("product_id = ? AND run_identifier = ? AND state = ?",
		productID, runIdentifier, wfModel.DataEntryStateActive).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// UpdateDataEntryStateWithTx 事务内升级审计记录状态
// 只允许 active 升级为终态，内容字段不可修改
func (r *DataEntryRepository) UpdateDataEntryStateWithTx(tx *gorm.DB, id uint64, state wfModel.DataEntryState) error {
	return tx.Model(&wfModel.DataEntry{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now(),
		}).Error
}

// HasTerminalDataEntryWithTx 事务内判断某产品是否已有该任务的终态记录
// 用于区分首次尝试与重复尝试（repeat succeeded / repeat failed）
func (r *DataEntryRepository) HasTerminalDataEntryWithTx(tx *gorm.DB, productID, taskTemplateID uint64) (bool, error) {
	var count int64
	err := tx.Model(&wfModel.DataEntry{}).
		Where("product_id = ? AND task_template_id = ? AND state <> ?",
			productID, taskTemplateID, wfModel.DataEntryStateActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetDataEntriesByProduct 按产品获取审计历史（分页）
func (r *DataEntryRepository) GetDataEntriesByProduct(ctx context.Context, productID uint64, offset, limit int) ([]*wfModel.DataEntry, int64, error) {
	var entries []*wfModel.DataEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&wfModel.DataEntry{}).Where("product_id = ?", productID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("TaskTemplate").
		Order("id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
