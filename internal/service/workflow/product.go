/**
 * 工作流服务层:产品服务
 * @author: sun977
 * @date: 2025.10.21
 * @description: 产品管理业务逻辑，产品登记、查询、历史记录
 * @func: 产品可关联库存物品，任务的product_input要求按关联物品扣减
 */
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	wfModel "labmaster/internal/model/workflow"
	invRepo "labmaster/internal/repo/mysql/inventory"
	wfRepo "labmaster/internal/repo/mysql/workflow"
	"labmaster/internal/service/auth"
)

// ProductService 产品管理服务
type ProductService struct {
	productRepo *wfRepo.ProductRepository
	entryRepo   *wfRepo.DataEntryRepository
	itemRepo    *invRepo.ItemRepository
	permService *auth.PermissionService
}

// NewProductService 创建产品服务实例
func NewProductService(productRepo *wfRepo.ProductRepository, entryRepo *wfRepo.DataEntryRepository, itemRepo *invRepo.ItemRepository, permService *auth.PermissionService) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		entryRepo:   entryRepo,
		itemRepo:    itemRepo,
		permService: permService,
	}
}

// CreateProduct 登记新产品
// 编号缺省时自动生成，关联物品存在性在此校验
func (s *ProductService) CreateProduct(ctx context.Context, product *wfModel.Product, creatorID uint64, creatorGroupIDs []uint64) error {
	if product == nil || product.Name == "" {
		return system.NewValidationError("产品名称不能为空")
	}
	if product.Identifier == "" {
		product.Identifier = "prd-" + strings.Split(uuid.NewString(), "-")[0]
	}
	existing, err := s.productRepo.GetProductByIdentifier(ctx, product.Identifier)
	if err != nil {
		return fmt.Errorf("查询产品失败: %w", err)
	}
	if existing != nil {
		return system.NewValidationError("产品编号已存在")
	}
	if product.LinkedItemID != 0 {
		item, err := s.itemRepo.GetItemByID(ctx, product.LinkedItemID)
		if err != nil {
			return fmt.Errorf("查询关联物品失败: %w", err)
		}
		if item == nil {
			return system.ErrObjectNotFound
		}
	}

	product.CreatedBy = creatorID
	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		return fmt.Errorf("创建产品失败: %w", err)
	}
	for _, groupID := range creatorGroupIDs {
		if err := s.permService.AssignPermissions(ctx, model.ObjectTypeProduct, product.ID, groupID, true, true, creatorID); err != nil {
			return fmt.Errorf("授予创建者权限失败: %w", err)
		}
	}
	return nil
}

// GetProduct 获取产品详情
// 无读权限与不存在统一返回对象不存在
func (s *ProductService) GetProduct(ctx context.Context, id uint64, groupIDs []uint64) (*wfModel.Product, error) {
	if err := s.permService.RequireRead(ctx, model.ObjectTypeProduct, id, groupIDs); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, system.ErrObjectNotFound
	}
	return product, nil
}

// GetProductList 分页获取产品列表，仅返回有读权限的条目
func (s *ProductService) GetProductList(ctx context.Context, page, pageSize int, keyword *string, groupIDs []uint64) ([]*wfModel.Product, int64, error) {
	offset := (page - 1) * pageSize
	products, total, err := s.productRepo.GetProductList(ctx, offset, pageSize, keyword)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	readable, err := s.permService.FilterReadable(ctx, model.ObjectTypeProduct, ids, groupIDs)
	if err != nil {
		return nil, 0, err
	}
	readableSet := make(map[uint64]struct{}, len(readable))
	for _, id := range readable {
		readableSet[id] = struct{}{}
	}
	visible := make([]*wfModel.Product, 0, len(readable))
	for _, p := range products {
		if _, ok := readableSet[p.ID]; ok {
			visible = append(visible, p)
		}
	}
	return visible, total, nil
}

// GetProductHistory 分页获取产品的数据录入记录
// 每条记录是一次任务执行的字段值快照，含执行状态
func (s *ProductService) GetProductHistory(ctx context.Context, productID uint64, page, pageSize int, groupIDs []uint64) ([]*wfModel.DataEntry, int64, error) {
	if err := s.permService.RequireRead(ctx, model.ObjectTypeProduct, productID, groupIDs); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	return s.entryRepo.GetDataEntriesByProduct(ctx, productID, offset, pageSize)
}

// UpdateProduct 更新产品基础信息
func (s *ProductService) UpdateProduct(ctx context.Context, product *wfModel.Product, groupIDs []uint64) error {
	if product == nil || product.ID == 0 {
		return system.NewValidationError("产品ID不能为空")
	}
	if err := s.permService.RequireWrite(ctx, model.ObjectTypeProduct, product.ID, groupIDs); err != nil {
		return err
	}
	return s.productRepo.UpdateProduct(ctx, product)
}

// DeleteProduct 删除产品并清理其权限记录
func (s *ProductService) DeleteProduct(ctx context.Context, id uint64, groupIDs []uint64) error {
	if err := s.permService.RequireWrite(ctx, model.ObjectTypeProduct, id, groupIDs); err != nil {
		return err
	}
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	return s.permService.DeleteObjectPermissions(ctx, model.ObjectTypeProduct, id)
}
