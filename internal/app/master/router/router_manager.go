/**
 * 路由:路由管理器
 * @author: sun977
 * @date: 2025.10.22
 * @description: 路由管理器，包含Router结构体、NewRouter函数和SetupRoutes主函数
 * @func: 仓库→服务→处理器逐层装配，路由按模块分文件注册
 */
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"labmaster/internal/app/master/middleware"
	"labmaster/internal/config"
	authHandler "labmaster/internal/handler/auth"
	catalogHandler "labmaster/internal/handler/catalog"
	invHandler "labmaster/internal/handler/inventory"
	sysHandler "labmaster/internal/handler/system"
	wfHandler "labmaster/internal/handler/workflow"
	authPkg "labmaster/internal/pkg/auth"
	"labmaster/internal/pkg/calc"
	"labmaster/internal/pkg/logger"
	"labmaster/internal/pkg/measure"
	catalogRepo "labmaster/internal/repo/mysql/catalog"
	invRepo "labmaster/internal/repo/mysql/inventory"
	sysRepo "labmaster/internal/repo/mysql/system"
	wfRepo "labmaster/internal/repo/mysql/workflow"
	redisRepo "labmaster/internal/repo/redis"
	authService "labmaster/internal/service/auth"
	catalogService "labmaster/internal/service/catalog"
	invService "labmaster/internal/service/inventory"
	wfService "labmaster/internal/service/workflow"
)

// Router 路由管理器
type Router struct {
	config            *config.Config
	engine            *gin.Engine
	middlewareManager *middleware.MiddlewareManager

	loginHandler    *authHandler.LoginHandler
	logoutHandler   *authHandler.LogoutHandler
	refreshHandler  *authHandler.RefreshHandler
	registerHandler *authHandler.RegisterHandler

	userHandler       *sysHandler.UserHandler
	groupHandler      *sysHandler.GroupHandler
	permissionHandler *sysHandler.PermissionHandler

	itemHandler         *invHandler.ItemHandler
	workflowHandler     *catalogHandler.WorkflowHandler
	taskTemplateHandler *catalogHandler.TaskTemplateHandler
	engineHandler       *wfHandler.EngineHandler
	productHandler      *wfHandler.ProductHandler

	// 执行引擎，供外部注册提交后钩子
	engineService *wfService.EngineService
}

// NewRouter 创建路由管理器实例
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Router {
	jwtConfig := cfg.Security.JWT
	securityConfig := &cfg.Security

	// 初始化工具包
	jwtManager := authPkg.NewJWTManager(jwtConfig.Secret, jwtConfig.Issuer, jwtConfig.AccessTokenExpire, jwtConfig.RefreshTokenExpire)
	passwordManager := authPkg.NewPasswordManager(nil)
	measures := measure.NewDefaultRegistry()
	evaluator := calc.NewEvaluator()

	// 初始化仓库
	userRepo := sysRepo.NewUserRepository(db)
	groupRepo := sysRepo.NewGroupRepository(db)
	permRepo := sysRepo.NewObjectPermissionRepository(db)
	sessionRepo := redisRepo.NewSessionRepository(redisClient)
	itemRepo := invRepo.NewItemRepository(db)
	transferRepo := invRepo.NewTransferRepository(db)
	workflowRepo := catalogRepo.NewWorkflowRepository(db)
	templateRepo := catalogRepo.NewTaskTemplateRepository(db)
	awRepo := wfRepo.NewActiveWorkflowRepository(db)
	wpRepo := wfRepo.NewWorkflowProductRepository(db)
	entryRepo := wfRepo.NewDataEntryRepository(db)
	productRepo := wfRepo.NewProductRepository(db)

	// 初始化服务（处理器是服务集合,先初始化服务,然后服务装填成处理器）
	userService := authService.NewUserService(userRepo, groupRepo, passwordManager)
	groupService := authService.NewGroupService(groupRepo)
	sessionService := authService.NewSessionService(userService, jwtManager, sessionRepo)
	permService := authService.NewPermissionService(permRepo, groupRepo)

	ledgerService := invService.NewLedgerService(itemRepo, transferRepo, measures)
	itemService := invService.NewItemService(itemRepo, transferRepo, ledgerService, permService)
	catalogSvc := catalogService.NewCatalogService(workflowRepo, templateRepo, permService)
	productService := wfService.NewProductService(productRepo, entryRepo, itemRepo, permService)
	engineService := wfService.NewEngineService(db, itemRepo, transferRepo, templateRepo, workflowRepo,
		awRepo, wpRepo, entryRepo, productRepo, ledgerService, evaluator)

	// 初始化中间件管理器
	middlewareManager := middleware.NewMiddlewareManager(sessionService, userService, securityConfig)

	// 初始化处理器
	loginHandler := authHandler.NewLoginHandler(sessionService)
	logoutHandler := authHandler.NewLogoutHandler(sessionService)
	refreshHandler := authHandler.NewRefreshHandler(sessionService)
	registerHandler := authHandler.NewRegisterHandler(userService)
	userHdl := sysHandler.NewUserHandler(userService)
	groupHdl := sysHandler.NewGroupHandler(groupService)
	permissionHdl := sysHandler.NewPermissionHandler(permService)
	itemHdl := invHandler.NewItemHandler(itemService)
	workflowHdl := catalogHandler.NewWorkflowHandler(catalogSvc)
	taskTemplateHdl := catalogHandler.NewTaskTemplateHandler(catalogSvc)
	engineHdl := wfHandler.NewEngineHandler(engineService, permService)
	productHdl := wfHandler.NewProductHandler(productService)

	// 创建Gin引擎
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()

	return &Router{
		config:            cfg,
		engine:            engine,
		middlewareManager: middlewareManager,

		loginHandler:    loginHandler,
		logoutHandler:   logoutHandler,
		refreshHandler:  refreshHandler,
		registerHandler: registerHandler,

		userHandler:       userHdl,
		groupHandler:      groupHdl,
		permissionHandler: permissionHdl,

		itemHandler:         itemHdl,
		workflowHandler:     workflowHdl,
		taskTemplateHandler: taskTemplateHdl,
		engineHandler:       engineHdl,
		productHandler:      productHdl,

		engineService: engineService,
	}
}

// SetupRoutes 设置全局中间件和路由
func (r *Router) SetupRoutes() {
	r.registerGlobalMiddleware()
	r.registerRoutes()
}

// GetEngine 获取Gin引擎实例
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// GetEngineService 获取执行引擎服务，供注册提交后钩子使用
func (r *Router) GetEngineService() *wfService.EngineService {
	return r.engineService
}

// registerGlobalMiddleware 注册全局中间件
func (r *Router) registerGlobalMiddleware() {
	// 系统恢复中间件，防止 panic 直接导致进程崩溃
	r.engine.Use(gin.Recovery())

	if r.middlewareManager != nil {
		r.engine.Use(r.middlewareManager.GinRequestIDMiddleware())
		if r.config.Security.CORS.Enabled {
			r.engine.Use(r.middlewareManager.GinCORSMiddleware())
		}
		r.engine.Use(r.middlewareManager.GinSecurityHeadersMiddleware())
		r.engine.Use(r.middlewareManager.GinLoggingMiddleware())
	}
}

// registerRoutes 注册路由
func (r *Router) registerRoutes() {
	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"func_name": "router.registerRoutes",
	}).Info("开始注册路由")

	api := r.engine.Group("/api")
	v1 := api.Group("/v1")

	// 健康检查路由（不需要认证）
	r.setupHealthRoutes(api)
	// 公共路由（不需要认证）
	r.setupPublicRoutes(v1)
	// 用户与权限路由（需要认证）
	r.setupUserRoutes(v1)
	// 库存路由（需要认证）
	r.setupInventoryRoutes(v1)
	// 目录路由（需要认证）
	r.setupCatalogRoutes(v1)
	// 工作流执行路由（需要认证）
	r.setupWorkflowRoutes(v1)

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"func_name": "router.registerRoutes",
	}).Info("路由注册完成")
}
