/*
*
  - 数据库迁移工具
  - @author: sun977
  - @date: 2025.10.22
  - @description: 数据库模型迁移和测试数据初始化工具
  - @usage: go run main.go -env=test -seed=true -drop=true
    -drop
    是否先删除表（危险操作）
    -env string
    环境标识 (test, dev, prod) (default "test")
    -seed
    是否填充测试数据 (default true)
    -verbose
    是否显示详细日志

示例:
main.exe -env=test -seed=true    # 测试环境迁移并填充数据
main.exe -env=prod -seed=false   # 生产环境仅迁移表结构
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"labmaster/internal/config"
	"labmaster/internal/model"
	"labmaster/internal/model/catalog"
	"labmaster/internal/model/inventory"
	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/database"
	"labmaster/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MigrateOptions 迁移选项配置
type MigrateOptions struct {
	Environment string // 环境标识: test, dev, prod
	SeedData    bool   // 是否填充测试数据
	DropFirst   bool   // 是否先删除表（危险操作）
	Verbose     bool   // 是否显示详细日志
}

// DataSeeder 测试数据填充器
type DataSeeder struct {
	db  *gorm.DB
	env string
	log *logger.LoggerManager
}

func main() {
	// 解析命令行参数
	opts := parseFlags()

	// 加载配置
	cfg, err := config.LoadConfig("", opts.Environment)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 初始化日志管理器
	logManager, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	logManager.GetLogger().WithFields(logrus.Fields{
		"path":        "cmd/migrate/main.go",
		"operation":   "database_migration",
		"option":      "migrate.start",
		"func_name":   "main",
		"environment": opts.Environment,
		"seed_data":   opts.SeedData,
		"drop_first":  opts.DropFirst,
	}).Info("开始数据库迁移")

	// 初始化数据库连接
	db, err := database.NewMySQLConnection(&cfg.Database.MySQL)
	if err != nil {
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "database_connection",
			"option":    "database.NewMySQLConnection",
			"func_name": "main",
			"error":     err.Error(),
		}).Fatal("数据库连接失败")
	}

	// 执行迁移
	if err := performMigration(db, opts, logManager); err != nil {
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "database_migration",
			"option":    "performMigration",
			"func_name": "main",
			"error":     err.Error(),
		}).Fatal("数据库迁移失败")
	}

	logManager.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "database_migration",
		"option":    "migrate.complete",
		"func_name": "main",
	}).Info("数据库迁移完成")
}

// parseFlags 解析命令行参数
func parseFlags() *MigrateOptions {
	opts := &MigrateOptions{}

	flag.StringVar(&opts.Environment, "env", "test", "环境标识 (test, dev, prod)")
	flag.BoolVar(&opts.SeedData, "seed", true, "是否填充测试数据")
	flag.BoolVar(&opts.DropFirst, "drop", false, "是否先删除表（危险操作）")
	flag.BoolVar(&opts.Verbose, "verbose", false, "是否显示详细日志")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "LabMaster 数据库迁移工具\n\n")
		fmt.Fprintf(os.Stderr, "用法: %s [选项]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "选项:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n示例:\n")
		fmt.Fprintf(os.Stderr, "  %s -env=test -seed=true    # 测试环境迁移并填充数据\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -env=prod -seed=false   # 生产环境仅迁移表结构\n", os.Args[0])
	}

	flag.Parse()
	return opts
}

// performMigration 执行数据库迁移
func performMigration(db *gorm.DB, opts *MigrateOptions, logManager *logger.LoggerManager) error {
	// 1. 删除表（如果指定）
	if opts.DropFirst {
		if err := dropTables(db, logManager); err != nil {
			return fmt.Errorf("删除表失败: %w", err)
		}
	}

	// 2. 执行模型迁移
	if err := migrateModels(db, logManager); err != nil {
		return fmt.Errorf("模型迁移失败: %w", err)
	}

	// 3. 填充测试数据（如果指定）
	if opts.SeedData {
		seeder := NewDataSeeder(db, opts.Environment, logManager)
		if err := seeder.SeedAll(); err != nil {
			return fmt.Errorf("数据填充失败: %w", err)
		}
	}

	return nil
}

// dropTables 删除所有表
// 危险操作，仅用于开发环境重置
func dropTables(db *gorm.DB, logManager *logger.LoggerManager) error {
	logManager.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "drop_tables",
		"option":    "dropTables",
		"func_name": "dropTables",
	}).Warn("开始删除数据库表")

	// 按依赖关系逆序删除
	models := []interface{}{
		// 关联表与明细表先删除
		&model.UserGroup{},
		&model.ObjectPermission{},
		&wfModel.DataEntry{},
		&wfModel.WorkflowProduct{},
		&inventory.ItemTransfer{},
		&catalog.WorkflowTask{},
		&catalog.StepFieldProperty{},
		&catalog.InputFieldTemplate{},
		&catalog.VariableFieldTemplate{},
		&catalog.OutputFieldTemplate{},
		&catalog.StepFieldTemplate{},
		&catalog.CalculationFieldTemplate{},

		// 主表后删除
		&wfModel.ActiveWorkflow{},
		&wfModel.Product{},
		&catalog.Workflow{},
		&catalog.TaskTemplate{},
		&inventory.Item{},
		&inventory.ItemType{},
		&inventory.Location{},
		&model.User{},
		&model.Group{},
	}

	for _, m := range models {
		if err := db.Migrator().DropTable(m); err != nil {
			logManager.GetLogger().WithFields(logrus.Fields{
				"path":      "cmd/migrate/main.go",
				"operation": "drop_table",
				"option":    "db.Migrator().DropTable",
				"func_name": "dropTables",
				"model":     fmt.Sprintf("%T", m),
				"error":     err.Error(),
			}).Error("删除表失败")
		}
	}

	return nil
}

// migrateModels 执行模型迁移
func migrateModels(db *gorm.DB, loggerMgr *logger.LoggerManager) error {
	loggerMgr.GetLogger().Info("开始执行模型迁移...")

	// 定义所有需要迁移的模型
	models := []interface{}{
		// 用户与权限模块
		&model.User{},
		&model.Group{},
		&model.UserGroup{},
		&model.ObjectPermission{},

		// 库存模块
		&inventory.ItemType{},
		&inventory.Location{},
		&inventory.Item{},
		&inventory.ItemTransfer{},

		// 目录模块
		&catalog.TaskTemplate{},
		&catalog.InputFieldTemplate{},
		&catalog.VariableFieldTemplate{},
		&catalog.OutputFieldTemplate{},
		&catalog.StepFieldTemplate{},
		&catalog.StepFieldProperty{},
		&catalog.CalculationFieldTemplate{},
		&catalog.Workflow{},
		&catalog.WorkflowTask{},

		// 工作流执行模块
		&wfModel.Product{},
		&wfModel.ActiveWorkflow{},
		&wfModel.WorkflowProduct{},
		&wfModel.DataEntry{},
	}

	// 执行自动迁移
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("迁移模型 %T 失败: %w", m, err)
		}
		loggerMgr.GetLogger().WithField("model", fmt.Sprintf("%T", m)).Info("模型迁移成功")
	}

	loggerMgr.GetLogger().Info("所有模型迁移完成")
	return nil
}

// NewDataSeeder 创建数据填充器
func NewDataSeeder(db *gorm.DB, env string, logManager *logger.LoggerManager) *DataSeeder {
	return &DataSeeder{
		db:  db,
		env: env,
		log: logManager,
	}
}

// SeedAll 填充所有测试数据
func (s *DataSeeder) SeedAll() error {
	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_data",
		"option":    "SeedAll",
		"func_name": "DataSeeder.SeedAll",
		"env":       s.env,
	}).Info("开始填充测试数据")

	// 按依赖关系顺序填充数据
	seedFunctions := []struct {
		name string
		fn   func() error
	}{
		{"用户与用户组数据", s.seedSystemData},
		{"库存基础数据", s.seedInventoryData},
		{"任务模板与工作流数据", s.seedCatalogData},
	}

	for _, seed := range seedFunctions {
		s.log.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "seed_module",
			"option":    seed.name,
			"func_name": "DataSeeder.SeedAll",
		}).Info("填充数据模块")

		if err := seed.fn(); err != nil {
			return fmt.Errorf("填充%s失败: %w", seed.name, err)
		}
	}

	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_data",
		"option":    "SeedAll.complete",
		"func_name": "DataSeeder.SeedAll",
	}).Info("测试数据填充完成")

	return nil
}

// seedSystemData 填充用户与用户组基础数据
func (s *DataSeeder) seedSystemData() error {
	// 1. 创建默认用户组
	groups := []model.Group{
		{Name: "admins", Description: "系统管理组", Status: 1},
		{Name: "lab-techs", Description: "实验室技术员组", Status: 1},
		{Name: "researchers", Description: "研究人员组", Status: 1},
	}

	for _, group := range groups {
		if err := s.db.Where("name = ?", group.Name).FirstOrCreate(&group).Error; err != nil {
			return fmt.Errorf("创建用户组失败: %w", err)
		}
	}

	// 2. 创建默认管理员用户
	adminUser := model.User{
		Username:  "admin",
		Email:     "admin@labmaster.local",
		Password:  "$argon2id$v=19$m=65536,t=3,p=2$lMamQlbNnoIXZfszn4jWqw$zVTokU4nXju4CdOR1bH5ABOMbaEagr8mTXrhAh/p0kQ", // 密码: admin123
		Nickname:  "系统管理员",
		PasswordV: 1,
		Status:    model.UserStatusEnabled,
	}

	if err := s.db.Where("username = ?", adminUser.Username).FirstOrCreate(&adminUser).Error; err != nil {
		return fmt.Errorf("创建管理员用户失败: %w", err)
	}

	// 3. 管理员加入管理组
	var adminGroup model.Group
	if err := s.db.Where("name = ?", "admins").First(&adminGroup).Error; err != nil {
		return fmt.Errorf("查找管理组失败: %w", err)
	}

	userGroup := model.UserGroup{
		UserID:  adminUser.ID,
		GroupID: adminGroup.ID,
	}
	s.db.Where("user_id = ? AND group_id = ?", userGroup.UserID, userGroup.GroupID).FirstOrCreate(&userGroup)

	return nil
}

// seedInventoryData 填充库存基础数据
func (s *DataSeeder) seedInventoryData() error {
	// 1. 创建物品类型
	itemTypes := []inventory.ItemType{
		{Name: "reagent", Description: "化学试剂", CreatedBy: 1},
		{Name: "buffer", Description: "缓冲液", CreatedBy: 1},
		{Name: "sample", Description: "生物样本", CreatedBy: 1},
		{Name: "consumable", Description: "耗材", CreatedBy: 1},
	}

	for _, itemType := range itemTypes {
		if err := s.db.Where("name = ?", itemType.Name).FirstOrCreate(&itemType).Error; err != nil {
			return fmt.Errorf("创建物品类型失败: %w", err)
		}
	}

	// 2. 创建存放位置
	locations := []inventory.Location{
		{Name: "主实验室", ParentID: 0, CreatedBy: 1},
		{Name: "冷藏室 4C", ParentID: 1, CreatedBy: 1},
		{Name: "冷冻柜 -20C", ParentID: 1, CreatedBy: 1},
		{Name: "试剂柜 A", ParentID: 1, CreatedBy: 1},
	}

	for _, location := range locations {
		if err := s.db.Where("name = ?", location.Name).FirstOrCreate(&location).Error; err != nil {
			return fmt.Errorf("创建位置失败: %w", err)
		}
	}

	// 3. 创建测试库存物品（仅在test环境）
	if s.env == "test" {
		items := []inventory.Item{
			{
				Identifier:      "itm-eb0001",
				Name:            "Elution Buffer",
				ItemTypeID:      2,
				LocationID:      2,
				AmountAvailable: 500,
				AmountMeasure:   "mL",
				CreatedBy:       1,
			},
			{
				Identifier:      "itm-pk0001",
				Name:            "Proteinase K",
				ItemTypeID:      1,
				LocationID:      3,
				AmountAvailable: 25,
				AmountMeasure:   "mg",
				CreatedBy:       1,
			},
			{
				Identifier:      "itm-tip001",
				Name:            "Filter Tips 200uL",
				ItemTypeID:      4,
				LocationID:      4,
				AmountAvailable: 960,
				AmountMeasure:   "piece",
				CreatedBy:       1,
			},
		}

		for _, item := range items {
			if err := s.db.Where("identifier = ?", item.Identifier).FirstOrCreate(&item).Error; err != nil {
				return fmt.Errorf("创建测试物品失败: %w", err)
			}
		}
	}

	return nil
}

// seedCatalogData 填充任务模板与工作流测试数据
func (s *DataSeeder) seedCatalogData() error {
	s.log.GetLogger().Info("开始填充任务模板与工作流测试数据...")

	// 1. 创建任务模板
	templates := []catalog.TaskTemplate{
		{
			Name:        "DNA Extraction",
			Description: "样本裂解与DNA提取工序",
			CreatedBy:   1,
		},
		{
			Name:        "Quantification",
			Description: "核酸浓度定量工序",
			CreatedBy:   1,
		},
	}

	for i := range templates {
		if err := s.db.Where("name = ?", templates[i].Name).FirstOrCreate(&templates[i]).Error; err != nil {
			return fmt.Errorf("创建任务模板失败: %w", err)
		}
		s.log.GetLogger().WithField("template", templates[i].Name).Info("任务模板创建成功")
	}

	// 2. 为提取工序挂字段模板
	extraction := templates[0]
	inputFields := []catalog.InputFieldTemplate{
		{TaskTemplateID: extraction.ID, Label: "elution buffer", Amount: 50, Measure: "uL", ItemTypeID: 2},
		{TaskTemplateID: extraction.ID, Label: "proteinase K", Amount: 0, Measure: "mg", ItemTypeID: 1, FromCalculation: true, CalculationUsed: "protk needed"},
	}
	for _, field := range inputFields {
		if err := s.db.Where("task_template_id = ? AND label = ?", field.TaskTemplateID, field.Label).FirstOrCreate(&field).Error; err != nil {
			return fmt.Errorf("创建输入字段模板失败: %w", err)
		}
	}

	variableFields := []catalog.VariableFieldTemplate{
		{TaskTemplateID: extraction.ID, Label: "sample count", Amount: 1, Measure: "piece"},
	}
	for _, field := range variableFields {
		if err := s.db.Where("task_template_id = ? AND label = ?", field.TaskTemplateID, field.Label).FirstOrCreate(&field).Error; err != nil {
			return fmt.Errorf("创建变量字段模板失败: %w", err)
		}
	}

	calcFields := []catalog.CalculationFieldTemplate{
		{TaskTemplateID: extraction.ID, Label: "protk needed", Calculation: "{sample count} * 0.5"},
	}
	for _, field := range calcFields {
		if err := s.db.Where("task_template_id = ? AND label = ?", field.TaskTemplateID, field.Label).FirstOrCreate(&field).Error; err != nil {
			return fmt.Errorf("创建计算字段模板失败: %w", err)
		}
	}

	outputFields := []catalog.OutputFieldTemplate{
		{TaskTemplateID: extraction.ID, Label: "extracted DNA", Amount: 50, Measure: "uL", ItemTypeID: 3, LocationID: 3},
	}
	for _, field := range outputFields {
		if err := s.db.Where("task_template_id = ? AND label = ?", field.TaskTemplateID, field.Label).FirstOrCreate(&field).Error; err != nil {
			return fmt.Errorf("创建输出字段模板失败: %w", err)
		}
	}

	// 3. 创建示例工作流并挂任务
	workflow := catalog.Workflow{
		Name:        "Standard DNA Pipeline",
		Description: "提取后定量的标准流程",
		CreatedBy:   1,
	}
	if err := s.db.Where("name = ?", workflow.Name).FirstOrCreate(&workflow).Error; err != nil {
		return fmt.Errorf("创建工作流失败: %w", err)
	}

	workflowTasks := []catalog.WorkflowTask{
		{WorkflowID: workflow.ID, TaskTemplateID: templates[0].ID, Position: 0},
		{WorkflowID: workflow.ID, TaskTemplateID: templates[1].ID, Position: 1},
	}
	for _, task := range workflowTasks {
		if err := s.db.Where("workflow_id = ? AND task_template_id = ?", task.WorkflowID, task.TaskTemplateID).FirstOrCreate(&task).Error; err != nil {
			return fmt.Errorf("创建工作流任务失败: %w", err)
		}
	}

	// 4. 创建者所在组授予读写权限
	objectGrants := []model.ObjectPermission{
		{ObjectType: model.ObjectTypeTaskTemplate, ObjectID: templates[0].ID, GroupID: 1, CanRead: true, CanWrite: true, GrantedBy: 1},
		{ObjectType: model.ObjectTypeTaskTemplate, ObjectID: templates[1].ID, GroupID: 1, CanRead: true, CanWrite: true, GrantedBy: 1},
		{ObjectType: model.ObjectTypeWorkflow, ObjectID: workflow.ID, GroupID: 1, CanRead: true, CanWrite: true, GrantedBy: 1},
	}
	for _, grant := range objectGrants {
		if err := s.db.Where("object_type = ? AND object_id = ? AND group_id = ?", grant.ObjectType, grant.ObjectID, grant.GroupID).FirstOrCreate(&grant).Error; err != nil {
			return fmt.Errorf("创建对象权限失败: %w", err)
		}
	}

	s.log.GetLogger().Info("任务模板与工作流测试数据填充完成")
	return nil
}
