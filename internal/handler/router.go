package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"voucherpos/internal/handler/api"
	"voucherpos/internal/handler/middleware"
	"voucherpos/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

type Handlers struct {
	Auth          *api.AuthHandler
	Sales         *api.SalesHandler
	History       *api.HistoryHandler
	Notifications *api.NotificationsHandler
	Sync          *api.SyncHandler
	Reports       *api.ReportsHandler
	Events        *api.EventsHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, handlers Handlers, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, handlers, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: h.Auth.Login},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodGet, Path: "/me", Handler: h.Auth.Me},
			})
		}

		protected := apiGroup.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			addRoutes(protected, []route{
				{Method: http.MethodPost, Path: "/sales", Handler: h.Sales.Create},
				{Method: http.MethodGet, Path: "/sales", Handler: h.Sales.List},
				{Method: http.MethodPatch, Path: "/sales/:id", Handler: h.Sales.Update},
				{Method: http.MethodDelete, Path: "/sales/:id", Handler: h.Sales.Delete},
				{Method: http.MethodPost, Path: "/sales/:id/deposit", Handler: h.History.Deposit},

				{Method: http.MethodGet, Path: "/history", Handler: h.History.List},
				{Method: http.MethodPost, Path: "/history/deposit", Handler: h.History.DepositAll},
				{Method: http.MethodDelete, Path: "/history/:id", Handler: h.History.Delete},

				{Method: http.MethodGet, Path: "/notifications", Handler: h.Notifications.List},

				{Method: http.MethodGet, Path: "/sync/status", Handler: h.Sync.Status},
				{Method: http.MethodPost, Path: "/sync/drain", Handler: h.Sync.Drain},
				{Method: http.MethodPost, Path: "/sync/queue/clear", Handler: h.Sync.Clear},

				{Method: http.MethodGet, Path: "/reports/summary", Handler: h.Reports.Summary},

				{Method: http.MethodGet, Path: "/events", Handler: h.Events.Stream},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, r.Handler)
		case http.MethodPost:
			g.POST(r.Path, r.Handler)
		case http.MethodPut:
			g.PUT(r.Path, r.Handler)
		case http.MethodPatch:
			g.PATCH(r.Path, r.Handler)
		case http.MethodDelete:
			g.DELETE(r.Path, r.Handler)
		default:
			g.Any(r.Path, r.Handler)
		}
	}
}
