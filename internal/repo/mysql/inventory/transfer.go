/**
 * 库存仓库层:转移记录数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 库存转移台账数据访问层，记录按run_identifier关联的扣减与恢复
 * @func: 转移记录的创建、按执行ID查询、终结标记
 */
package inventory

import (
	"context"
	"time"

	"gorm.io/gorm"

	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/pkg/logger"
)

// TransferRepository 库存转移仓库结构体
type TransferRepository struct {
	db *gorm.DB // 数据库连接
}

// NewTransferRepository 创建转移仓库实例
func NewTransferRepository(db *gorm.DB) *TransferRepository {
	return &TransferRepository{
		db: db,
	}
}

// CreateTransferWithTx 事务内创建转移记录
// 台账只追加，数量变动必须与同事务内的物品数量回写配对
func (r *TransferRepository) CreateTransferWithTx(tx *gorm.DB, transfer *invModel.ItemTransfer) error {
	transfer.CreatedAt = time.Now()
	transfer.UpdatedAt = time.Now()
	return tx.Create(transfer).Error
}

// GetTransfersByRunIdentifier 按执行关联ID获取转移记录
func (r *TransferRepository) GetTransfersByRunIdentifier(ctx context.Context, runIdentifier string) ([]*invModel.ItemTransfer, error) {
	var transfers []*invModel.ItemTransfer
	err := r.db.WithContext(ctx).Where("run_identifier = ?", runIdentifier).
		Order("id ASC").Find(&transfers).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "transfer_get_by_run", "GET", map[string]interface{}{
			"operation":      "get_transfers_by_run",
			"func_name":      "repo.inventory.GetTransfersByRunIdentifier",
			"run_identifier": runIdentifier,
		})
		return nil, err
	}
	return transfers, nil
}

// GetPendingDeductionsByRunWithTx 事务内获取某次执行未终结的扣减记录
// 恢复库存时按这些记录逐条回加
func (r *TransferRepository) GetPendingDeductionsByRunWithTx(tx *gorm.DB, runIdentifier string) ([]*invModel.ItemTransfer, error) {
	var transfers []*invModel.ItemTransfer
	err := tx.Where("run_identifier = ? AND is_addition = ? AND transfer_complete = ?",
		runIdentifier, false, false).
		Order("id ASC").Find(&transfers).Error
	if err != nil {
		return nil, err
	}
	return transfers, nil
}

// MarkRunTransfersCompleteWithTx 事务内将某次执行的转移记录全部标记为终结
func (r *TransferRepository) MarkRunTransfersCompleteWithTx(tx *gorm.DB, runIdentifier string) error {
	return tx.Model(&invModel.ItemTransfer{}).
		Where("run_identifier = ? AND transfer_complete = ?", runIdentifier, false).
		Updates(map[string]interface{}{
			"transfer_complete": true,
			"updated_at":        time.Now(),
		}).Error
}

// MarkTransferCompleteWithTx 事务内标记单条转移记录为终结
func (r *TransferRepository) MarkTransferCompleteWithTx(tx *gorm.DB, id uint64) error {
	return tx.Model(&invModel.ItemTransfer{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"transfer_complete": true,
			"updated_at":        time.Now(),
		}).Error
}

// GetTransfersByItemID 按物品获取转移流水（分页）
func (r *TransferRepository) GetTransfersByItemID(ctx context.Context, itemID uint64, offset, limit int) ([]*invModel.ItemTransfer, int64, error) {
	var transfers []*invModel.ItemTransfer
	var total int64

	query := r.db.WithContext(ctx).Model(&invModel.ItemTransfer{}).Where("item_id = ?", itemID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&transfers).Error
	if err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}
