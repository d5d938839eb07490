package inventory

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/pkg/measure"
	invRepo "labmaster/internal/repo/mysql/inventory"
)

// newTestDB 构建内存sqlite库并迁移库存相关表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invModel.ItemType{},
		&invModel.Location{},
		&invModel.Item{},
		&invModel.ItemTransfer{},
	))
	return db
}

func newTestLedger(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	itemRepo := invRepo.NewItemRepository(db)
	transferRepo := invRepo.NewTransferRepository(db)
	return NewLedgerService(itemRepo, transferRepo, measure.NewDefaultRegistry()), db
}

func seedItem(t *testing.T, db *gorm.DB, identifier, name string, amount float64, measureSymbol string) *invModel.Item {
	t.Helper()
	item := &invModel.Item{
		Identifier:      identifier,
		Name:            name,
		AmountAvailable: amount,
		AmountMeasure:   measureSymbol,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestCheckSufficient(t *testing.T) {
	svc, db := newTestLedger(t)
	item := seedItem(t, db, "i1", "item_1", 10, "ml")

	// 同单位，数量充足
	ok, shortfall, err := svc.CheckSufficient(item, 2.0, "ml")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, shortfall)

	// 跨单位换算：0.005 l = 5 ml
	ok, shortfall, err = svc.CheckSufficient(item, 0.005, "l")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, shortfall)

	// 不足量按物品原生单位返回
	ok, shortfall, err = svc.CheckSufficient(item, 99, "ml")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, 89.0, shortfall, 1e-9)

	// 量纲不兼容是校验错误
	_, _, err = svc.CheckSufficient(item, 1, "s")
	assert.Error(t, err)
}

func TestDeduct(t *testing.T) {
	svc, db := newTestLedger(t)
	item := seedItem(t, db, "i1", "item_1", 10, "ml")
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		transfer, err := svc.Deduct(ctx, tx, item, 2.0, "ml", "run-1", 1)
		require.NoError(t, err)
		assert.False(t, transfer.IsAddition)
		assert.False(t, transfer.TransferComplete)
		assert.InDelta(t, 2.0, transfer.Amount, 1e-9)
		assert.Equal(t, "run-1", transfer.RunIdentifier)
		return nil
	})
	require.NoError(t, err)

	var reloaded invModel.Item
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	assert.InDelta(t, 8.0, reloaded.AmountAvailable, 1e-9)
}

func TestDeductConvertsUnits(t *testing.T) {
	svc, db := newTestLedger(t)
	item := seedItem(t, db, "i2", "item_2", 2, "l")
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		// 500 ml 从2 l中扣减
		_, err := svc.Deduct(ctx, tx, item, 500, "ml", "run-2", 1)
		return err
	})
	require.NoError(t, err)

	var reloaded invModel.Item
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	assert.InDelta(t, 1.5, reloaded.AmountAvailable, 1e-9)
}

func TestRestore(t *testing.T) {
	svc, db := newTestLedger(t)
	item := seedItem(t, db, "i1", "item_1", 5, "ml")
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		transfer, err := svc.Restore(ctx, tx, item, 3.0, "ml", "run-3", 1)
		require.NoError(t, err)
		assert.True(t, transfer.IsAddition)
		assert.True(t, transfer.TransferComplete)
		return nil
	})
	require.NoError(t, err)

	var reloaded invModel.Item
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	assert.InDelta(t, 8.0, reloaded.AmountAvailable, 1e-9)
}

func TestCreateOutputItem(t *testing.T) {
	svc, db := newTestLedger(t)
	source := seedItem(t, db, "i1", "item_1", 10, "ml")
	ctx := context.Background()

	itemType := &invModel.ItemType{Name: "plasmid prep"}
	require.NoError(t, db.Create(itemType).Error)

	var created *invModel.Item
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = svc.CreateOutputItem(ctx, tx, "p1 plasmid prep", itemType.ID, 50, "ul", 0, 1, "run-4", []*invModel.Item{source})
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "p1 plasmid prep", created.Name)
	assert.InDelta(t, 50.0, created.AmountAvailable, 1e-9)
	assert.Equal(t, "ul", created.AmountMeasure)
	assert.NotEmpty(t, created.Identifier)

	// 产出入库伴随一条终结的增加转移
	var transfer invModel.ItemTransfer
	require.NoError(t, db.Where("item_id = ? AND run_identifier = ?", created.ID, "run-4").First(&transfer).Error)
	assert.True(t, transfer.IsAddition)
	assert.True(t, transfer.TransferComplete)

	// 溯源指向被消耗的输入物品
	var reloaded invModel.Item
	require.NoError(t, db.Preload("CreatedFrom").First(&reloaded, created.ID).Error)
	require.Len(t, reloaded.CreatedFrom, 1)
	assert.Equal(t, source.ID, reloaded.CreatedFrom[0].ID)
}

func TestCreateOutputItemInvalidMeasure(t *testing.T) {
	svc, db := newTestLedger(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.CreateOutputItem(ctx, tx, "x", 1, 1, "parsec", 0, 1, "run-5", nil)
		return err
	})
	assert.Error(t, err)
}
