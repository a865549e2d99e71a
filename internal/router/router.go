package router

import (
	"github.com/blues/cps/internal/auth"
	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/handler"
	"github.com/blues/cps/internal/logic"
	"github.com/blues/cps/internal/middleware"
	"github.com/blues/cps/internal/notify"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup 组装路由
func Setup(db *gorm.DB, provider logic.PaymentProvider, tokens *auth.TokenManager,
	sessions *auth.SessionStore, notifier *notify.Dispatcher, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "crowdfunding-pledge-service",
		})
	})

	userLogic := logic.NewUserLogic(db, tokens, sessions)
	campaignLogic := logic.NewCampaignLogic(db)
	tierLogic := logic.NewRewardTierLogic(db)
	categoryLogic := logic.NewCategoryLogic(db)
	pledgeLogic := logic.NewPledgeLogic(db, provider, cfg.Payment, notifier)
	transactionLogic := logic.NewTransactionLogic(db)

	authHandler := handler.NewAuthHandler(userLogic)
	campaignHandler := handler.NewCampaignHandler(campaignLogic, tierLogic)
	categoryHandler := handler.NewCategoryHandler(categoryLogic)
	pledgeHandler := handler.NewPledgeHandler(pledgeLogic)
	transactionHandler := handler.NewTransactionHandler(transactionLogic)

	authRequired := middleware.Auth(tokens)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 注册登录
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}

		// 项目相关路由
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.ListCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.GET("/:id/tiers", campaignHandler.ListTiers)

			campaigns.POST("", authRequired, campaignHandler.CreateCampaign)
			campaigns.PUT("/:id", authRequired, campaignHandler.UpdateCampaign)
			campaigns.POST("/:id/submit", authRequired, campaignHandler.SubmitCampaign)
			campaigns.DELETE("/:id", authRequired, campaignHandler.CancelCampaign)
			campaigns.POST("/:id/tiers", authRequired, campaignHandler.CreateTier)
			campaigns.PUT("/:id/tiers/:tier_id", authRequired, campaignHandler.UpdateTier)
			campaigns.DELETE("/:id/tiers/:tier_id", authRequired, campaignHandler.DeleteTier)
		}

		// 分类相关路由
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.ListCategories)
			categories.POST("", authRequired, categoryHandler.CreateCategory)
			categories.DELETE("/:id", authRequired, categoryHandler.DeleteCategory)
		}

		// 支持/支付相关路由
		pledges := v1.Group("/pledges", authRequired)
		{
			pledges.POST("/paypal/create-order", pledgeHandler.CreateOrder)
			pledges.POST("/paypal/capture-order", pledgeHandler.CaptureOrder)
			pledges.POST("/paypal/cancel-order", pledgeHandler.CancelOrder)
			pledges.PUT("/:id", pledgeHandler.UpdatePledge)
			pledges.GET("/history", pledgeHandler.GetHistory)
			pledges.GET("/campaign/:id", pledgeHandler.GetCampaignPledges)
			pledges.GET("/creator/all", pledgeHandler.GetCreatorPledges)
		}

		// 流水相关路由
		transactions := v1.Group("/transactions", authRequired)
		{
			transactions.GET("/creator", transactionHandler.GetCreatorTransactions)
			transactions.GET("/creator/settlement", transactionHandler.GetCreatorSettlement)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
