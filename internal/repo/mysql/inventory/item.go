/**
 * 库存仓库层:物品数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 库存物品数据访问层，专注于数据操作，不包含业务逻辑
 * @func: 物品的增删改查、行级锁查询、数量回写
 */
package inventory

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/pkg/logger"
)

// ItemRepository 库存物品仓库结构体
// 负责物品相关的数据访问，不包含业务逻辑
type ItemRepository struct {
	db *gorm.DB // 数据库连接
}

// NewItemRepository 创建物品仓库实例
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{
		db: db,
	}
}

// BeginTx 开始事务
func (r *ItemRepository) BeginTx(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Begin()
}

// CreateItem 创建物品
func (r *ItemRepository) CreateItem(ctx context.Context, item *invModel.Item) error {
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(item).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "item_create", "POST", map[string]interface{}{
			"operation":       "create_item",
			"func_name":       "repo.inventory.CreateItem",
			"item_identifier": item.Identifier,
		})
		return err
	}
	return nil
}

// CreateItemWithTx 事务创建物品
func (r *ItemRepository) CreateItemWithTx(tx *gorm.DB, item *invModel.Item) error {
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	return tx.Create(item).Error
}

// GetItemByID 根据ID获取物品
// 物品不存在时返回 (nil, nil)，由上层决定是否视为错误
func (r *ItemRepository) GetItemByID(ctx context.Context, id uint64) (*invModel.Item, error) {
	var item invModel.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "item_get_by_id", "GET", map[string]interface{}{
			"operation": "get_item_by_id",
			"func_name": "repo.inventory.GetItemByID",
			"item_id":   id,
		})
		return nil, err
	}
	return &item, nil
}

// GetItemByIdentifier 根据物品编号获取物品
func (r *ItemRepository) GetItemByIdentifier(ctx context.Context, identifier string) (*invModel.Item, error) {
	var item invModel.Item
	err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "item_get_by_identifier", "GET", map[string]interface{}{
			"operation":       "get_item_by_identifier",
			"func_name":       "repo.inventory.GetItemByIdentifier",
			"item_identifier": identifier,
		})
		return nil, err
	}
	return &item, nil
}

// GetItemByIdentifierForUpdate 事务内按编号获取物品并加行级写锁
// 库存检查与扣减必须在同一把锁内完成，防止并发扣减超卖
func (r *ItemRepository) GetItemByIdentifierForUpdate(tx *gorm.DB, identifier string) (*invModel.Item, error) {
	var item invModel.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("identifier = ?", identifier).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetItemByIDForUpdate 事务内按ID获取物品并加行级写锁
func (r *ItemRepository) GetItemByIDForUpdate(tx *gorm.DB, id uint64) (*invModel.Item, error) {
	var item invModel.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// UpdateItemAmountWithTx 事务内回写物品可用数量
func (r *ItemRepository) UpdateItemAmountWithTx(tx *gorm.DB, id uint64, amount float64) error {
	return tx.Model(&invModel.Item{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_available": amount,
			"updated_at":       time.Now(),
		}).Error
}

// AppendProvenanceWithTx 事务内登记产出物品的溯源关系
func (r *ItemRepository) AppendProvenanceWithTx(tx *gorm.DB, item *invModel.Item, sources []*invModel.Item) error {
	if len(sources) == 0 {
		return nil
	}
	return tx.Model(item).Association("CreatedFrom").Append(sources)
}

// GetItemList 分页获取物品列表
func (r *ItemRepository) GetItemList(ctx context.Context, offset, limit int, itemTypeID *uint64, keyword *string) ([]*invModel.Item, int64, error) {
	var items []*invModel.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&invModel.Item{})
	if itemTypeID != nil {
		query = query.Where("item_type_id = ?", *itemTypeID)
	}
	if keyword != nil && *keyword != "" {
		query = query.Where("name LIKE ? OR identifier LIKE ?", "%"+*keyword+"%", "%"+*keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("ItemType").Preload("Location").
		Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "item_list", "GET", map[string]interface{}{
			"operation": "get_item_list",
			"func_name": "repo.inventory.GetItemList",
			"offset":    offset,
			"limit":     limit,
		})
		return nil, 0, err
	}
	return items, total, nil
}

// GetItemsByIDs 批量获取物品
func (r *ItemRepository) GetItemsByIDs(ctx context.Context, ids []uint64) ([]*invModel.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []*invModel.Item
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteItem 删除物品
func (r *ItemRepository) DeleteItem(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Delete(&invModel.Item{}, id).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "item_delete", "DELETE", map[string]interface{}{
			"operation": "delete_item",
			"func_name": "repo.inventory.DeleteItem",
			"item_id":   id,
		})
		return err
	}
	return nil
}

// CreateItemType 创建物品类型
func (r *ItemRepository) CreateItemType(ctx context.Context, itemType *invModel.ItemType) error {
	return r.db.WithContext(ctx).Create(itemType).Error
}

// GetItemTypeByID 根据ID获取物品类型
func (r *ItemRepository) GetItemTypeByID(ctx context.Context, id uint64) (*invModel.ItemType, error) {
	var itemType invModel.ItemType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&itemType).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &itemType, nil
}

// GetItemTypeList 获取全部物品类型
func (r *ItemRepository) GetItemTypeList(ctx context.Context) ([]*invModel.ItemType, error) {
	var itemTypes []*invModel.ItemType
	err := r.db.WithContext(ctx).Order("id ASC").Find(&itemTypes).Error
	if err != nil {
		return nil, err
	}
	return itemTypes, nil
}

// CreateLocation 创建存放位置
func (r *ItemRepository) CreateLocation(ctx context.Context, location *invModel.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

// GetLocationByID 根据ID获取存放位置
func (r *ItemRepository) GetLocationByID(ctx context.Context, id uint64) (*invModel.Location, error) {
	var location invModel.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// GetLocationList 获取全部存放位置
func (r *ItemRepository) GetLocationList(ctx context.Context) ([]*invModel.Location, error) {
	var locations []*invModel.Location
	err := r.db.WithContext(ctx).Order("id ASC").Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}
