package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"CT-SIGN/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Templates    *services.TemplateService
	Contracts    *services.ContractService
	AllowOrigins []string
	JWTSecret    string

	// AllowDevIdentity accepts X-User-ID instead of a token.
	AllowDevIdentity bool
	Logger           *slog.Logger

	// PublicBaseURL prefixes the signing links returned to administrators.
	PublicBaseURL string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))
	r.Use(ClientInfoMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	templates := NewTemplateHandler(cfg.Templates, logger)
	contracts := NewContractHandler(cfg.Contracts, cfg.PublicBaseURL, logger)
	public := NewPublicHandler(cfg.Contracts, logger)

	v1 := r.Group("/api/v1")
	{
		admin := v1.Group("")
		admin.Use(AdminAuth(cfg.JWTSecret, cfg.AllowDevIdentity))

		admin.GET("/templates", templates.List)
		admin.POST("/templates", templates.Create)
		admin.POST("/templates/import", templates.Import)
		admin.GET("/templates/:id", templates.Get)
		admin.PUT("/templates/:id", templates.Update)
		admin.GET("/templates/:id/placeholders", templates.Placeholders)
		admin.POST("/templates/:id/activate", templates.Activate)
		admin.POST("/templates/:id/deactivate", templates.Deactivate)

		admin.GET("/contracts", contracts.ListByDeal)
		admin.POST("/contracts", contracts.Generate)
		admin.GET("/contracts/:id", contracts.Get)
		admin.GET("/contracts/:id/audit", contracts.ListAudit)
		admin.GET("/contracts/:id/pdf", contracts.ExportPDF)
		admin.POST("/contracts/:id/pdf/archive", contracts.ArchivePDF)

		pub := v1.Group("/public")
		pub.GET("/contracts/:token", public.Get)
		pub.POST("/contracts/:token/verify", public.Verify)
		pub.POST("/contracts/:token/sign", public.Sign)
		pub.GET("/contracts/:token/pdf", public.ExportPDF)
	}

	return r
}
