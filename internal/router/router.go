package router

import (
	"time"

	"maintrack/internal/config"
	"maintrack/internal/handler"
	"maintrack/internal/infra"
	"maintrack/internal/middleware"
	"maintrack/internal/model"
	"maintrack/internal/repository"
	"maintrack/internal/service"
	"maintrack/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, photos *infra.DiskPhotoStore) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	stockRepo := repository.NewStockItemRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	timeClockRepo := repository.NewTimeClockRepository(db)

	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	settingSvc := service.NewSettingService(settingRepo, cfg.Location())
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, dispatcher, cfg.PublicURL)
	clientSvc := service.NewClientService(clientRepo)
	equipmentSvc := service.NewEquipmentService(equipmentRepo, userRepo, clientRepo, maintenanceRepo, stockRepo, settingSvc, notificationSvc)
	stockSvc := service.NewStockService(stockRepo, movementRepo, maintenanceRepo)
	maintenanceSvc := service.NewMaintenanceService(maintenanceRepo, equipmentRepo, stockRepo, movementRepo, notificationSvc, photos)
	taskSvc := service.NewTaskService(taskRepo, userRepo, notificationSvc)
	expenseSvc := service.NewExpenseService(expenseRepo, cfg.Location())
	timeClockSvc := service.NewTimeClockService(timeClockRepo, cfg.Location())
	reportSvc := service.NewReportService(maintenanceRepo, expenseRepo, timeClockRepo, cfg.Location())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	settingsH := handler.NewSettingsHandler(settingSvc)
	notificationsH := handler.NewNotificationHandler(notificationSvc)
	clientsH := handler.NewClientHandler(clientSvc)
	equipmentH := handler.NewEquipmentHandler(equipmentSvc)
	stockH := handler.NewStockHandler(stockSvc)
	maintenanceH := handler.NewMaintenanceHandler(maintenanceSvc, photos)
	reportsH := handler.NewReportHandler(reportSvc)
	tasksH := handler.NewTaskHandler(taskSvc)
	expensesH := handler.NewExpenseHandler(expenseSvc)
	timeClockH := handler.NewTimeClockHandler(timeClockSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. Services enforce ownership rules; role gates here only
	// cover the admin-only areas.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	admin := middleware.RequireRole(model.RoleAdmin)
	{
		v1.GET("/dashboard", equipmentH.Dashboard)

		v1.GET("/equipment", equipmentH.List)
		v1.GET("/equipment/:id", equipmentH.Get)
		v1.POST("/equipment/:id/maintenance", maintenanceH.Create)
		equipment := v1.Group("/equipment", admin)
		{
			equipment.POST("", equipmentH.Create)
			equipment.PUT("/:id", equipmentH.Update)
			equipment.PATCH("/:id/archive", equipmentH.ToggleArchive)
		}

		maint := v1.Group("/maintenance")
		{
			maint.GET("/:id", maintenanceH.Get)
			maint.PUT("/:id", maintenanceH.Edit)
			maint.DELETE("/:id", maintenanceH.Delete)
			maint.GET("/:id/pdf", maintenanceH.PDF)
			maint.DELETE("/images/:id", maintenanceH.DeletePhoto)
		}
		v1.GET("/uploads/:filename", maintenanceH.ServeUpload)

		v1.GET("/notifications", notificationsH.List)
		v1.POST("/notifications/:id/read", notificationsH.MarkRead)

		v1.GET("/settings", settingsH.Get)
		v1.PUT("/settings", admin, settingsH.Update)

		v1.GET("/clients", clientsH.List)
		clients := v1.Group("/clients", admin)
		{
			clients.POST("", clientsH.Create)
			clients.PUT("/:id", clientsH.Update)
			clients.PATCH("/:id/archive", clientsH.ToggleArchive)
		}

		stock := v1.Group("/stock", admin)
		{
			stock.GET("", stockH.List)
			stock.POST("", stockH.Create)
			stock.GET("/low", stockH.LowStock)
			stock.GET("/movements", stockH.Movements)
			stock.GET("/:id", stockH.Get)
			stock.PUT("/:id", stockH.Update)
			stock.DELETE("/:id", stockH.Delete)
			stock.POST("/:id/adjust", stockH.Adjust)
		}

		v1.GET("/tasks/mine", tasksH.Mine)
		v1.GET("/tasks/:id", tasksH.Get)
		v1.PUT("/task-assignments/:id/status", tasksH.UpdateStatus)
		tasks := v1.Group("/tasks", admin)
		{
			tasks.GET("", tasksH.List)
			tasks.POST("", tasksH.Create)
			tasks.PUT("/:id", tasksH.Update)
			tasks.DELETE("/:id", tasksH.Delete)
		}

		v1.GET("/expenses", expensesH.Day)
		v1.POST("/expenses", expensesH.Create)
		v1.GET("/expenses/categories", expensesH.Categories)
		v1.DELETE("/expenses/:id", expensesH.Delete)

		v1.GET("/time-clock", timeClockH.Today)
		v1.POST("/time-clock/punch", timeClockH.Punch)

		reports := v1.Group("/reports", admin)
		{
			reports.GET("/financial", reportsH.Financial)
			reports.GET("/stock-usage", reportsH.StockUsage)
			reports.GET("/expenses", reportsH.Expenses)
			reports.GET("/time-clock", reportsH.TimeClock)
		}

		users := v1.Group("/users", admin)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.DELETE("/:id", usersH.Deactivate)
		}

		v1.GET("/admin/dead-letters", admin, handler.DeadLetters(rdb))
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
