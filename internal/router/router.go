package router

import (
	"time"

	"stockbook/internal/config"
	"stockbook/internal/handler"
	"stockbook/internal/infra"
	"stockbook/internal/middleware"
	"stockbook/internal/model"
	"stockbook/internal/repository"
	"stockbook/internal/service"
	"stockbook/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps is the service graph shared by the HTTP routes and the background
// goroutines started in main.
type Deps struct {
	Orgs       repository.OrganizationRepository
	Reports    service.ReportService
	Snapshots  service.SnapshotService
	Sales      service.SaleService
	Transfers  service.TransferService
	Auth       service.AuthService
	OrgSvc     service.OrganizationService
	Mailer     *infra.Mailer
	Dispatcher *worker.Dispatcher
	// Locker is nil without Redis
	Locker worker.Locker
}

// Wire builds repositories and services.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func Wire(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Deps {
	// ── Repositories ─────────────────────────────────────────────────────────
	itemRepo := repository.NewItemRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	recordRepo := repository.NewStockRecordRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	transferRepo := repository.NewTransferRepository(db)

	// ── Infrastructure ───────────────────────────────────────────────────────
	d := &Deps{
		Orgs:       orgRepo,
		Mailer:     infra.NewMailer(cfg),
		Dispatcher: worker.NewDispatcher(rdb),
	}
	var orgLocker service.Locker
	if rdb != nil {
		lc := infra.NewLocker(rdb)
		orgLocker, d.Locker = lc, lc
	}

	// ── Services ─────────────────────────────────────────────────────────────
	reportCache := service.NewReportCache(rdb, cfg.ReportCacheTTL())
	d.Reports = service.NewReportService(itemRepo, saleRepo, recordRepo, reportCache)
	d.Sales = service.NewSaleService(saleRepo, itemRepo, profileRepo, movementRepo, reportCache)
	d.Snapshots = service.NewSnapshotService(recordRepo, itemRepo, movementRepo, d.Reports, reportCache)
	d.Transfers = service.NewTransferService(transferRepo, itemRepo, branchRepo, profileRepo)
	d.Auth = service.NewAuthService(profileRepo, branchRepo, cfg)
	d.OrgSvc = service.NewOrganizationService(orgRepo, rdb, orgLocker, cfg.OrgCacheTTL())
	return d
}

// Processors maps job types to their worker.
func (d *Deps) Processors() map[string]worker.Processor {
	return map[string]worker.Processor{
		worker.JobReportEmail: worker.NewReportEmailWorker(d.Reports, d.Mailer),
	}
}

// New returns a configured Gin engine serving d.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, d *Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(d.Auth)
	usersH := handler.NewUsersHandler(d.Auth)
	orgH := handler.NewOrganizationHandler(d.OrgSvc)
	salesH := handler.NewSalesHandler(d.Sales)
	stockH := handler.NewStockHandler(d.Reports, d.Dispatcher, d.Mailer)
	openingH := handler.NewSnapshotHandler(d.Snapshots, model.SnapshotOpening)
	closingH := handler.NewSnapshotHandler(d.Snapshots, model.SnapshotClosing)
	restockH := handler.NewSnapshotHandler(d.Snapshots, model.SnapshotRestocking)
	transferH := handler.NewTransferHandler(d.Transfers)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, d.Mailer))

	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	r.GET("/organizations/by-subdomain", orgH.BySubdomain)

	// Protected routes
	api := r.Group("", middleware.JWTAuth(cfg.JWTSecret))
	{
		tenant := middleware.RequireRole(middleware.TenantRoles...)
		admin := middleware.RequireRole(middleware.AdminRoles...)

		api.PUT("/organizations/update", middleware.RequireRole(middleware.OrgEditors...), orgH.Update)

		sales := api.Group("/sales")
		{
			sales.POST("/create", tenant, salesH.Create)
			sales.PUT("/update", tenant, salesH.Update)
			sales.DELETE("/delete", tenant, salesH.Delete)
			sales.GET("/list", salesH.List)
		}

		stock := api.Group("/stock")
		{
			stock.GET("/report", stockH.Report)
			stock.GET("/report/export", stockH.Export)
			stock.POST("/report/email", admin, stockH.Email)

			stock.GET("/opening", openingH.List)
			stock.POST("/opening", tenant, openingH.Record)
			stock.POST("/opening/finalize", admin, openingH.Finalize)
			stock.GET("/closing", closingH.List)
			stock.POST("/closing", tenant, closingH.Record)
			stock.POST("/closing/finalize", admin, closingH.Finalize)

			stock.GET("/restocking", restockH.List)
			stock.POST("/restocking", tenant, restockH.Record)
			stock.DELETE("/restocking/:id", tenant, restockH.Delete)

			stock.GET("/movements", admin, restockH.Movements)
		}

		transfers := api.Group("/transfers")
		{
			transfers.GET("/list", transferH.List)
			transfers.POST("/create", tenant, transferH.Create)
		}

		api.POST("/users/create", admin, usersH.Create)
	}

	// Swagger UI outside production only
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
