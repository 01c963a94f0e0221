package routes

import (
	"net/http"

	"salonbook-backend/config"
	"salonbook-backend/controllers"
	"salonbook-backend/models"
	"salonbook-backend/services"
	"salonbook-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	DB              *gorm.DB
	Log             *zap.Logger
	Tokens          utils.TokenIssuer
	CORSOrigins     []string
	DefaultOwnerPin string
	SecureCookies   bool

	Clients  *services.ClientService
	Visits   *services.VisitMutator
	Insights *services.InsightService
	Premium  *services.PremiumService
}

func SetupRouter(o Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(o.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	r.Use(config.PerformanceLogger(o.Log))

	owner := string(models.RoleOwner)
	authController := &controllers.AuthController{
		DB:              o.DB,
		Log:             o.Log.Named("auth"),
		Tokens:          o.Tokens,
		DefaultOwnerPin: o.DefaultOwnerPin,
		SecureCookies:   o.SecureCookies,
	}
	clientController := &controllers.ClientController{Clients: o.Clients}
	visitController := &controllers.VisitController{Visits: o.Visits}
	dashboardController := &controllers.DashboardController{Insights: o.Insights}
	reportController := &controllers.ReportController{Insights: o.Insights}
	premiumController := &controllers.PremiumController{Premium: o.Premium}

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := o.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			utils.RespondWithError(c, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.DELETE("/session", authController.Logout)

		auth.Use(utils.AuthMiddleware(o.Tokens))
		auth.GET("/me", authController.Me)
		auth.POST("/role", authController.SelectRole)
	}

	// Public, no session required
	r.POST("/premium-requests", premiumController.CreatePremiumRequest)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(o.Tokens), utils.RequireRole())
	{
		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", clientController.CreateClient)
			clients.GET("", clientController.GetClients)
			clients.GET("/duplicates", clientController.CheckDuplicate)
			clients.GET("/:id", clientController.GetClient)
			clients.PUT("/:id", utils.RequireRole(owner), clientController.UpdateClient)
			clients.DELETE("/:id", utils.RequireRole(owner), clientController.DeleteClient)

			// Visit routes; assistants may only record visits
			clients.POST("/:id/visits", visitController.AddVisit)
			clients.PUT("/:id/visits/:visitId/payment", utils.RequireRole(owner), visitController.UpdatePaymentStatus)
			clients.DELETE("/:id/visits/:visitId", utils.RequireRole(owner), visitController.DeleteVisit)
		}

		api.GET("/calendar", dashboardController.GetCalendar)

		// Owner-only screens
		api.GET("/dashboard", utils.RequireRole(owner), dashboardController.GetDaySchedule)
		api.GET("/payments", utils.RequireRole(owner), dashboardController.GetPayments)
		api.GET("/analytics", utils.RequireRole(owner), reportController.GetReportAnalytics)
	}

	return r
}
