/**
 * 库存服务层:台账服务
 * @author: sun977
 * @date: 2025.10.21
 * @description: 库存台账业务逻辑，充足性检查、扣减、恢复、产出物品创建
 * @func: 台账不变式：amount_available 只经由转移记录变动，检查与扣减在同一事务锁内
 */
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	invModel "labmaster/internal/model/inventory"
	invRepo "labmaster/internal/repo/mysql/inventory"
	"labmaster/internal/pkg/logger"
	"labmaster/internal/pkg/measure"
)

// LedgerService 库存台账服务
// 单位换算走注入的度量注册表，不用隐藏的全局单例
type LedgerService struct {
	itemRepo     *invRepo.ItemRepository
	transferRepo *invRepo.TransferRepository
	measures     *measure.Registry
}

// NewLedgerService 创建台账服务实例
func NewLedgerService(itemRepo *invRepo.ItemRepository, transferRepo *invRepo.TransferRepository, measures *measure.Registry) *LedgerService {
	return &LedgerService{
		itemRepo:     itemRepo,
		transferRepo: transferRepo,
		measures:     measures,
	}
}

// Measures 返回注入的度量注册表
func (s *LedgerService) Measures() *measure.Registry {
	return s.measures
}

// CheckSufficient 充足性检查
// 将请求数量换算到物品原生单位后与可用数量比较
// 返回 (是否充足, 不足量[物品原生单位], 错误)；单位不兼容是校验错误，不是不足
func (s *LedgerService) CheckSufficient(item *invModel.Item, amount float64, measureSymbol string) (bool, float64, error) {
	converted, err := s.measures.Convert(amount, measureSymbol, item.AmountMeasure)
	if err != nil {
		return false, 0, fmt.Errorf("物品 %s 单位换算失败: %w", item.Identifier, err)
	}
	if converted > item.AmountAvailable {
		return false, converted - item.AmountAvailable, nil
	}
	return true, 0, nil
}

// Deduct 扣减库存
// 在调用方事务内执行：创建非增加转移记录并回写可用数量
// 同一笔转移只允许调用一次，幂等性由转移记录承载
func (s *LedgerService) Deduct(ctx context.Context, tx *gorm.DB, item *invModel.Item, amount float64, measureSymbol string, runIdentifier string, operatorID uint64) (*invModel.ItemTransfer, error) {
	converted, err := s.measures.Convert(amount, measureSymbol, item.AmountMeasure)
	if err != nil {
		return nil, fmt.Errorf("物品 %s 单位换算失败: %w", item.Identifier, err)
	}

	transfer := &invModel.ItemTransfer{
		ItemID:           item.ID,
		Amount:           converted,
		Measure:          item.AmountMeasure,
		IsAddition:       false,
		TransferComplete: false,
		RunIdentifier:    runIdentifier,
		CreatedBy:        operatorID,
	}
	if err := s.transferRepo.CreateTransferWithTx(tx, transfer); err != nil {
		return nil, fmt.Errorf("创建扣减转移记录失败: %w", err)
	}

	item.AmountAvailable -= converted
	if err := s.itemRepo.UpdateItemAmountWithTx(tx, item.ID, item.AmountAvailable); err != nil {
		return nil, fmt.Errorf("回写物品可用数量失败: %w", err)
	}

	logger.LogBusinessOperation("inventory_deduct", operatorID, "", "", "", "success",
		"库存扣减", map[string]interface{}{
			"item_identifier": item.Identifier,
			"amount":          converted,
			"measure":         item.AmountMeasure,
			"run_identifier":  runIdentifier,
		})
	return transfer, nil
}

// Restore 恢复库存
// 创建增加转移记录并回写可用数量，用于回滚或外部入库
func (s *LedgerService) Restore(ctx context.Context, tx *gorm.DB, item *invModel.Item, amount float64, measureSymbol string, runIdentifier string, operatorID uint64) (*invModel.ItemTransfer, error) {
	converted, err := s.measures.Convert(amount, measureSymbol, item.AmountMeasure)
	if err != nil {
		return nil, fmt.Errorf("物品 %s 单位换算失败: %w", item.Identifier, err)
	}

	transfer := &invModel.ItemTransfer{
		ItemID:           item.ID,
		Amount:           converted,
		Measure:          item.AmountMeasure,
		IsAddition:       true,
		TransferComplete: true,
		RunIdentifier:    runIdentifier,
		CreatedBy:        operatorID,
	}
	if err := s.transferRepo.CreateTransferWithTx(tx, transfer); err != nil {
		return nil, fmt.Errorf("创建恢复转移记录失败: %w", err)
	}

	item.AmountAvailable += converted
	if err := s.itemRepo.UpdateItemAmountWithTx(tx, item.ID, item.AmountAvailable); err != nil {
		return nil, fmt.Errorf("回写物品可用数量失败: %w", err)
	}
	return transfer, nil
}

// CreateOutputItem 任务产出物品入库
// 新建物品、登记增加转移、记录溯源（消耗的输入物品）
func (s *LedgerService) CreateOutputItem(ctx context.Context, tx *gorm.DB, name string, itemTypeID uint64, amount float64, measureSymbol string, locationID uint64, creatorID uint64, runIdentifier string, createdFrom []*invModel.Item) (*invModel.Item, error) {
	if _, err := s.measures.Lookup(measureSymbol); err != nil {
		return nil, fmt.Errorf("产出物品单位无效: %w", err)
	}

	item := &invModel.Item{
		Identifier:      generateItemIdentifier(),
		Name:            name,
		ItemTypeID:      itemTypeID,
		LocationID:      locationID,
		AmountAvailable: amount,
		AmountMeasure:   measureSymbol,
		CreatedBy:       creatorID,
	}
	if err := s.itemRepo.CreateItemWithTx(tx, item); err != nil {
		return nil, fmt.Errorf("创建产出物品失败: %w", err)
	}

	transfer := &invModel.ItemTransfer{
		ItemID:           item.ID,
		Amount:           amount,
		Measure:          measureSymbol,
		IsAddition:       true,
		TransferComplete: true,
		RunIdentifier:    runIdentifier,
		CreatedBy:        creatorID,
	}
	if err := s.transferRepo.CreateTransferWithTx(tx, transfer); err != nil {
		return nil, fmt.Errorf("创建产出转移记录失败: %w", err)
	}

	if err := s.itemRepo.AppendProvenanceWithTx(tx, item, createdFrom); err != nil {
		return nil, fmt.Errorf("登记产出物品溯源失败: %w", err)
	}

	logger.LogBusinessOperation("inventory_create_output", creatorID, "", "", "", "success",
		"产出物品入库", map[string]interface{}{
			"item_identifier": item.Identifier,
			"item_name":       item.Name,
			"amount":          amount,
			"measure":         measureSymbol,
			"run_identifier":  runIdentifier,
		})
	return item, nil
}

// generateItemIdentifier 生成产出物品编号
func generateItemIdentifier() string {
	return "itm-" + strings.Split(uuid.NewString(), "-")[0]
}
