package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"photo-sku-backend/internal/config"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/middleware"
	"photo-sku-backend/internal/progress"
	"photo-sku-backend/internal/services"
	"photo-sku-backend/internal/storage"
)

// RouterDeps carries everything the HTTP surface is built from.
type RouterDeps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    storage.Store
	Ledgers  ledger.Store
	Runner   BatchRunner
	Hub      *progress.Hub
	Delivery *services.DeliveryService
	Cleanup  *services.CleanupService
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	cfg := deps.Config
	skuPattern, err := regexp.Compile(cfg.Upload.SKUPattern)
	if err != nil {
		return nil, err
	}
	if err := RegisterSKUValidator(skuPattern); err != nil {
		return nil, err
	}

	uploadHandler := NewUploadHandler(deps.Store, cfg.Upload.MaxFileSize, skuPattern, deps.Logger)
	processHandler := NewProcessHandler(deps.Runner, deps.Ledgers, skuPattern)
	progressHandler := NewProgressHandler(deps.Hub, skuPattern)
	statusHandler := NewStatusHandler(deps.Hub, deps.Ledgers, skuPattern)
	filesHandler := NewFilesHandler(deps.Store, skuPattern)
	deliveryHandler := NewDeliveryHandler(deps.Delivery, deps.Cleanup)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", NewHealthHandler(cfg.Storage.Backend, cfg.Ledger.Backend))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// Preview URLs are embedded in <img> tags, so stored files are public.
	router.GET("/api/v1/images/:sku/:file", filesHandler.ServeImage)

	api := router.Group("/api/v1")
	if cfg.Auth.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(cfg))
	}

	api.POST("/upload", uploadHandler.Upload)
	api.GET("/files/:sku", filesHandler.ListFiles)

	api.POST("/process", processHandler.Process)
	api.POST("/process/:sku/retry", processHandler.Retry)
	api.GET("/ledger/:sku", processHandler.GetLedger)

	api.GET("/progress/:sku", progressHandler.Stream)
	api.GET("/status/:sku", statusHandler.GetStatus)

	api.POST("/download", deliveryHandler.Download)
	api.POST("/telegram", deliveryHandler.Telegram)
	api.POST("/cleanup", deliveryHandler.Cleanup)

	return router, nil
}
