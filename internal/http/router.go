package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ondrasimku/coursework-files/internal/auth"
	"github.com/ondrasimku/coursework-files/internal/config"
	"github.com/ondrasimku/coursework-files/internal/http/handler"
	"github.com/ondrasimku/coursework-files/internal/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Service  *upload.Service
	Keys     auth.KeySource // nil disables the bearer-token gate
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func NewRouter(cfg *config.Config, deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.MaxFileSize

	healthHandler := handler.NewHealthHandler(cfg.StorageDir)
	uploadHandler := handler.NewUploadHandler(deps.Service, cfg.Subfolders, deps.Logger)

	router.GET("/healthz", healthHandler.Health)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	router.GET("/files/*locator", uploadHandler.GetFile)
	router.HEAD("/files/*locator", uploadHandler.HeadFile)

	protected := router.Group("/files")
	uploadGuards := []gin.HandlerFunc{}
	deleteGuards := []gin.HandlerFunc{}
	if deps.Keys != nil {
		protected.Use(auth.AuthMiddleware(deps.Keys, auth.Config{
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		}))
		uploadGuards = append(uploadGuards, auth.RequirePermissions("files:upload"))
		deleteGuards = append(deleteGuards, auth.RequirePermissions("files:delete"))
	}
	{
		protected.POST("/:subfolder", append(uploadGuards, uploadHandler.Upload)...)
		protected.DELETE("/*locator", append(deleteGuards, uploadHandler.DeleteFile)...)
	}

	return router
}
