/**
 * 应用装配
 * @author: sun977
 * @date: 2025.10.22
 * @description: 应用程序生命周期管理，负责配置加载、日志、数据库连接与路由装配
 * @func: NewApp / Start / Stop
 */
package master

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"labmaster/internal/app/master/router"
	"labmaster/internal/config"
	"labmaster/internal/pkg/database"
	"labmaster/internal/pkg/logger"
	wfService "labmaster/internal/service/workflow"
)

// App 应用程序结构体
type App struct {
	config      *config.Config
	router      *router.Router
	db          *gorm.DB
	redisClient *redis.Client
}

// NewApp 创建新的应用程序实例
// configPath 为配置目录，env 为运行环境，均可为空走默认值
func NewApp(configPath, env string) (*App, error) {
	// 加载配置
	cfg, err := config.LoadConfig(configPath, env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 初始化日志
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	// 初始化数据库连接
	db, err := database.NewMySQLConnection(&cfg.Database.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect mysql: %w", err)
	}

	redisClient, err := database.NewRedisConnection(&cfg.Database.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	// 初始化路由器并装配所有依赖
	r := router.NewRouter(db, redisClient, cfg)
	r.SetupRoutes()

	// 注册默认的状态变更审计钩子
	r.GetEngineService().RegisterHook(auditHook)

	logger.WithFields(map[string]interface{}{
		"app_name": cfg.App.Name,
		"version":  cfg.App.Version,
		"env":      cfg.App.Env,
	}).Info("应用初始化完成")

	return &App{
		config:      cfg,
		router:      r,
		db:          db,
		redisClient: redisClient,
	}, nil
}

// GetConfig 获取应用配置
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetRouter 获取路由器实例
func (a *App) GetRouter() *router.Router {
	return a.router
}

// Stop 停止应用程序，释放数据库与Redis连接
func (a *App) Stop() error {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Errorf("failed to close redis client: %v", err)
		}
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Errorf("failed to close mysql connection: %v", err)
			}
		}
	}
	logger.Info("应用已停止")
	return nil
}

// auditHook 状态变更审计钩子，事务提交后记录一条结构化日志
func auditHook(_ context.Context, event wfService.Event) {
	logger.WithFields(map[string]interface{}{
		"operation":      event.Operation,
		"run_identifier": event.RunIdentifier,
		"before":         event.Before,
		"after":          event.After,
	}).Info("工作流状态变更")
}
