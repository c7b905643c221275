package router

import (
	"github.com/blues/mss/internal/handler"
	"github.com/blues/mss/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps 路由依赖
type Deps struct {
	Campaigns  *logic.CampaignLogic
	Milestones *logic.MilestoneLogic
	Proofs     *logic.ProofLogic
	Release    *logic.ReleaseLogic
	Contribute *logic.ContributeLogic
	Reputation *logic.ReputationLogic
}

func Setup(deps Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "milestone-service",
		})
	})

	// 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API版本组
	v1 := r.Group("/api/v1")
	{
		campaignHandler := handler.NewCampaignHandler(deps.Campaigns)
		proofHandler := handler.NewProofHandler(deps.Proofs, deps.Milestones)
		releaseHandler := handler.NewReleaseHandler(deps.Release, deps.Milestones)
		contributeHandler := handler.NewContributeHandler(deps.Contribute)

		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)

			campaigns.GET("/:id/milestones", proofHandler.GetMilestones)
			campaigns.GET("/:id/proofs", proofHandler.GetProofs)
			campaigns.POST("/:id/milestones/:idx/proof", proofHandler.SubmitProof)
			campaigns.POST("/:id/milestones/:idx/review", proofHandler.ReviewProof)

			campaigns.GET("/:id/releasable", releaseHandler.GetReleasable)
			campaigns.POST("/:id/milestones/:idx/release", releaseHandler.AuthorizeRelease)

			campaigns.POST("/:id/contributions", contributeHandler.Contribute)
			campaigns.GET("/:id/contributions", contributeHandler.GetContributions)
		}

		creatorHandler := handler.NewCreatorHandler(deps.Reputation)
		creators := v1.Group("/creators")
		{
			creators.GET("/:address", creatorHandler.GetProfile)
			creators.PUT("/:address", creatorHandler.UpdateProfile)
		}

		adminHandler := handler.NewAdminHandler(deps.Proofs)
		admin := v1.Group("/admin")
		{
			admin.GET("/proofs", adminHandler.ListProofs)
			admin.PUT("/campaigns/:id/milestones/:idx/proof/status", adminHandler.ForceSetStatus)
			admin.DELETE("/campaigns/:id/milestones/:idx/proof", adminHandler.RemoveProof)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Wallet-Address, X-Operator-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
