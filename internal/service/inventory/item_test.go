package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"labmaster/internal/model"
	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/measure"
	invRepo "labmaster/internal/repo/mysql/inventory"
	sysRepo "labmaster/internal/repo/mysql/system"
	"labmaster/internal/service/auth"
)

func newItemTestService(t *testing.T) (*ItemService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(
		&model.Group{},
		&model.ObjectPermission{},
	))

	itemRepo := invRepo.NewItemRepository(db)
	transferRepo := invRepo.NewTransferRepository(db)
	ledger := NewLedgerService(itemRepo, transferRepo, measure.NewDefaultRegistry())
	permService := auth.NewPermissionService(
		sysRepo.NewObjectPermissionRepository(db),
		sysRepo.NewGroupRepository(db),
	)
	return NewItemService(itemRepo, transferRepo, ledger, permService), db
}

func seedInvGroup(t *testing.T, db *gorm.DB, name string) *model.Group {
	t.Helper()
	group := &model.Group{Name: name, Status: 1}
	require.NoError(t, db.Create(group).Error)
	return group
}

func TestCreateItemGeneratesIdentifier(t *testing.T) {
	svc, db := newItemTestService(t)
	ctx := context.Background()
	group := seedInvGroup(t, db, "bench")

	item := &invModel.Item{Name: "Elution Buffer", AmountAvailable: 500, AmountMeasure: "ml"}
	require.NoError(t, svc.CreateItem(ctx, item, 1, []uint64{group.ID}))
	assert.True(t, strings.HasPrefix(item.Identifier, "itm-"))
	assert.Equal(t, uint64(1), item.CreatedBy)

	// 创建者所属组自动获得读写权限
	got, err := svc.GetItem(ctx, item.ID, []uint64{group.ID})
	require.NoError(t, err)
	assert.Equal(t, "Elution Buffer", got.Name)
}

func TestCreateItemRejectsUnknownMeasureAndDuplicateIdentifier(t *testing.T) {
	svc, db := newItemTestService(t)
	ctx := context.Background()
	group := seedInvGroup(t, db, "bench-2")

	err := svc.CreateItem(ctx, &invModel.Item{Name: "Mystery", AmountMeasure: "parsec"}, 1, []uint64{group.ID})
	assert.True(t, system.IsValidationError(err))

	first := &invModel.Item{Identifier: "itm-dup", Name: "First", AmountMeasure: "g"}
	require.NoError(t, svc.CreateItem(ctx, first, 1, []uint64{group.ID}))
	err = svc.CreateItem(ctx, &invModel.Item{Identifier: "itm-dup", Name: "Second", AmountMeasure: "g"}, 1, []uint64{group.ID})
	assert.True(t, system.IsValidationError(err))
}

func TestGetItemListFiltersByPermission(t *testing.T) {
	svc, db := newItemTestService(t)
	ctx := context.Background()
	mine := seedInvGroup(t, db, "mine")
	theirs := seedInvGroup(t, db, "theirs")

	require.NoError(t, svc.CreateItem(ctx, &invModel.Item{Name: "Visible", AmountMeasure: "ml"}, 1, []uint64{mine.ID}))
	require.NoError(t, svc.CreateItem(ctx, &invModel.Item{Name: "Hidden", AmountMeasure: "ml"}, 2, []uint64{theirs.ID}))

	visible, total, err := svc.GetItemList(ctx, 1, 10, nil, nil, []uint64{mine.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, visible, 1)
	assert.Equal(t, "Visible", visible[0].Name)
}

func TestItemTransfersRequireReadPermission(t *testing.T) {
	svc, db := newItemTestService(t)
	ctx := context.Background()
	group := seedInvGroup(t, db, "audit")

	item := &invModel.Item{Name: "Proteinase K", AmountAvailable: 25, AmountMeasure: "mg"}
	require.NoError(t, svc.CreateItem(ctx, item, 1, []uint64{group.ID}))

	transfers, err := svc.GetItemTransfers(ctx, item.ID, []uint64{group.ID})
	require.NoError(t, err)
	assert.Empty(t, transfers)

	_, err = svc.GetItemTransfers(ctx, item.ID, nil)
	assert.ErrorIs(t, err, system.ErrObjectNotFound)
}

func TestDeleteItemRequiresWrite(t *testing.T) {
	svc, db := newItemTestService(t)
	ctx := context.Background()
	owners := seedInvGroup(t, db, "owners")
	readers := seedInvGroup(t, db, "viewers")

	item := &invModel.Item{Name: "Old Stock", AmountMeasure: "g"}
	require.NoError(t, svc.CreateItem(ctx, item, 1, []uint64{owners.ID}))
	require.NoError(t, db.Create(&model.ObjectPermission{
		ObjectType: model.ObjectTypeItem,
		ObjectID:   item.ID,
		GroupID:    readers.ID,
		CanRead:    true,
		GrantedBy:  1,
	}).Error)

	err := svc.DeleteItem(ctx, item.ID, []uint64{readers.ID})
	assert.ErrorIs(t, err, system.ErrPermissionDenied)

	require.NoError(t, svc.DeleteItem(ctx, item.ID, []uint64{owners.ID}))
	_, err = svc.GetItem(ctx, item.ID, []uint64{owners.ID})
	assert.ErrorIs(t, err, system.ErrObjectNotFound)
}
