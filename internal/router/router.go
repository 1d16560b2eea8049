package router

import (
	"github.com/dmbar78/ExpenseTracker-sub000/internal/config"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/handler"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/ledger"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/middleware"
	"github.com/dmbar78/ExpenseTracker-sub000/internal/rates"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, eng *ledger.Engine, provider *rates.Provider) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	api.Use(middleware.AuditMiddleware(db))

	accountHandler := handler.NewAccountHandler(db)
	api.POST("/accounts", accountHandler.CreateAccount)
	api.GET("/accounts", accountHandler.ListAccounts)
	api.PUT("/accounts/:id", accountHandler.UpdateAccount)
	api.DELETE("/accounts/:id", accountHandler.DeleteAccount)

	entryHandler := handler.NewEntryHandler(db, eng)
	api.POST("/entries", entryHandler.CreateEntry)
	api.GET("/entries", entryHandler.ListEntries)
	api.PUT("/entries/:id", entryHandler.UpdateEntry)
	api.DELETE("/entries/:id", entryHandler.DeleteEntry)

	transferHandler := handler.NewTransferHandler(db, eng)
	api.POST("/transfers", transferHandler.CreateTransfer)
	api.GET("/transfers", transferHandler.ListTransfers)
	api.PUT("/transfers/:id", transferHandler.UpdateTransfer)
	api.DELETE("/transfers/:id", transferHandler.DeleteTransfer)

	categoryHandler := handler.NewCategoryHandler(db)
	api.POST("/categories", categoryHandler.CreateCategory)
	api.GET("/categories", categoryHandler.ListCategories)
	api.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	rateHandler := handler.NewRateHandler(db, provider, cfg.App.DefaultCurrency)
	api.GET("/rates", rateHandler.GetRate)
	api.GET("/rates/asof", rateHandler.GetRateAsOf)
	api.POST("/rates/reconcile", rateHandler.Reconcile)
	api.POST("/rates/failed/clear", rateHandler.ClearFailedDates)

	backupHandler := handler.NewBackupHandler(db, cfg.Backup.Dir)
	api.POST("/backups", backupHandler.CreateBackup)
	api.GET("/backups", backupHandler.ListBackups)
	api.GET("/backups/:id/download", backupHandler.DownloadBackup)
	api.POST("/backups/:id/restore", backupHandler.RestoreBackup)
	api.DELETE("/backups/:id", backupHandler.DeleteBackup)

	importExportHandler := handler.NewImportExportHandler(db)
	api.GET("/export/csv", importExportHandler.ExportCSV)
	api.GET("/export/xlsx", importExportHandler.ExportXLSX)

	logHandler := handler.NewLogHandler(db)
	api.GET("/logs", logHandler.ListLogs)

	return r
}
