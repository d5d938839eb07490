/**
 * 库存服务层:物品管理服务
 * @author: sun977
 * @date: 2025.10.21
 * @description: 库存物品、物品类型、存放位置的管理业务逻辑
 * @func: 列表按对象权限过滤，创建时向创建者所属用户组授予读写权限
 */
package inventory

import (
	"context"
	"fmt"

	"labmaster/internal/model"
	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/model/system"
	invRepo "labmaster/internal/repo/mysql/inventory"
	"labmaster/internal/service/auth"
)

// ItemService 库存物品管理服务
type ItemService struct {
	itemRepo     *invRepo.ItemRepository
	transferRepo *invRepo.TransferRepository
	ledger       *LedgerService
	permService  *auth.PermissionService
}

// NewItemService 创建物品管理服务实例
func NewItemService(itemRepo *invRepo.ItemRepository, transferRepo *invRepo.TransferRepository, ledger *LedgerService, permService *auth.PermissionService) *ItemService {
	return &ItemService{
		itemRepo:     itemRepo,
		transferRepo: transferRepo,
		ledger:       ledger,
		permService:  permService,
	}
}

// CreateItem 创建库存物品
// 编号缺省时自动生成，数量单位必须在度量注册表内
func (s *ItemService) CreateItem(ctx context.Context, item *invModel.Item, creatorID uint64, creatorGroupIDs []uint64) error {
	if item == nil || item.Name == "" {
		return system.NewValidationError("物品名称不能为空")
	}
	if _, err := s.ledger.Measures().Lookup(item.AmountMeasure); err != nil {
		return system.NewValidationError(fmt.Sprintf("未知的数量单位: %s", item.AmountMeasure))
	}
	if item.Identifier == "" {
		item.Identifier = generateItemIdentifier()
	}
	existing, err := s.itemRepo.GetItemByIdentifier(ctx, item.Identifier)
	if err != nil {
		return fmt.Errorf("查询物品失败: %w", err)
	}
	if existing != nil {
		return system.NewValidationError("物品编号已存在")
	}

	item.CreatedBy = creatorID
	if err := s.itemRepo.CreateItem(ctx, item); err != nil {
		return fmt.Errorf("创建物品失败: %w", err)
	}
	for _, groupID := range creatorGroupIDs {
		if err := s.permService.AssignPermissions(ctx, model.ObjectTypeItem, item.ID, groupID, true, true, creatorID); err != nil {
			return fmt.Errorf("授予创建者权限失败: %w", err)
		}
	}
	return nil
}

// GetItem 获取物品详情
// 无读权限与不存在统一返回对象不存在
func (s *ItemService) GetItem(ctx context.Context, id uint64, groupIDs []uint64) (*invModel.Item, error) {
	if err := s.permService.RequireRead(ctx, model.ObjectTypeItem, id, groupIDs); err != nil {
		return nil, err
	}
	item, err := s.itemRepo.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, system.ErrObjectNotFound
	}
	return item, nil
}

// GetItemList 分页获取物品列表，仅返回有读权限的条目
func (s *ItemService) GetItemList(ctx context.Context, page, pageSize int, itemTypeID *uint64, keyword *string, groupIDs []uint64) ([]*invModel.Item, int64, error) {
	offset := (page - 1) * pageSize
	items, total, err := s.itemRepo.GetItemList(ctx, offset, pageSize, itemTypeID, keyword)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	readable, err := s.permService.FilterReadable(ctx, model.ObjectTypeItem, ids, groupIDs)
	if err != nil {
		return nil, 0, err
	}
	readableSet := make(map[uint64]struct{}, len(readable))
	for _, id := range readable {
		readableSet[id] = struct{}{}
	}
	visible := make([]*invModel.Item, 0, len(readable))
	for _, item := range items {
		if _, ok := readableSet[item.ID]; ok {
			visible = append(visible, item)
		}
	}
	return visible, total, nil
}

// GetItemTransfers 获取物品的全部转移记录
func (s *ItemService) GetItemTransfers(ctx context.Context, itemID uint64, groupIDs []uint64) ([]*invModel.ItemTransfer, error) {
	if err := s.permService.RequireRead(ctx, model.ObjectTypeItem, itemID, groupIDs); err != nil {
		return nil, err
	}
	transfers, _, err := s.transferRepo.GetTransfersByItemID(ctx, itemID, 0, -1)
	if err != nil {
		return nil, err
	}
	return transfers, nil
}

// DeleteItem 删除物品并清理其权限记录
func (s *ItemService) DeleteItem(ctx context.Context, id uint64, groupIDs []uint64) error {
	if err := s.permService.RequireWrite(ctx, model.ObjectTypeItem, id, groupIDs); err != nil {
		return err
	}
	if err := s.itemRepo.DeleteItem(ctx, id); err != nil {
		return err
	}
	return s.permService.DeleteObjectPermissions(ctx, model.ObjectTypeItem, id)
}

// CreateItemType 创建物品类型
func (s *ItemService) CreateItemType(ctx context.Context, itemType *invModel.ItemType) error {
	if itemType == nil || itemType.Name == "" {
		return system.NewValidationError("物品类型名称不能为空")
	}
	return s.itemRepo.CreateItemType(ctx, itemType)
}

// GetItemTypeList 获取全部物品类型
func (s *ItemService) GetItemTypeList(ctx context.Context) ([]*invModel.ItemType, error) {
	return s.itemRepo.GetItemTypeList(ctx)
}

// CreateLocation 创建存放位置
func (s *ItemService) CreateLocation(ctx context.Context, location *invModel.Location) error {
	if location == nil || location.Name == "" {
		return system.NewValidationError("存放位置名称不能为空")
	}
	return s.itemRepo.CreateLocation(ctx, location)
}

// GetLocationList 获取全部存放位置
func (s *ItemService) GetLocationList(ctx context.Context) ([]*invModel.Location, error) {
	return s.itemRepo.GetLocationList(ctx)
}
