package main

import (
	"log"

	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/monitor"
	"github.com/blues/mss/internal/notify"
	"github.com/blues/mss/internal/repository"
	"github.com/blues/mss/internal/router"
	"github.com/blues/mss/internal/settlement"
	"github.com/blues/mss/internal/store"
	"github.com/blues/mss/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Log.Level, cfg.Log.Output, cfg.Log.File)

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化结算执行器
	executor, err := settlement.NewEthExecutor(cfg.Chain, cfg.Settlement)
	if err != nil {
		log.Fatalf("Failed to initialize settlement executor: %v", err)
	}

	// 初始化通知客户端
	notifier := notify.NewNotifier(cfg.Notify)

	// 组装业务逻辑
	proofStore := store.NewProofStore(db)
	reputation := logic.NewReputationLogic(db)
	defer reputation.Release()

	milestones := logic.NewMilestoneLogic(db)
	release := logic.NewReleaseLogic(db)
	campaigns := logic.NewCampaignLogic(db, reputation)
	contribute := logic.NewContributeLogic(db, reputation)
	proofs := logic.NewProofLogic(db, proofStore, milestones, release, reputation, notifier)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Deps{
		Campaigns:  campaigns,
		Milestones: milestones,
		Proofs:     proofs,
		Release:    release,
		Contribute: contribute,
		Reputation: reputation,
	})

	// 启动定时任务
	manager := task.NewManager(db, cfg, executor, campaigns, release, notifier)
	manager.Start()
	defer manager.Stop()

	// 启动链上贡献监控
	contributionMonitor, err := monitor.NewContributionMonitor(cfg.Chain, contribute)
	if err != nil {
		log.Fatalf("Failed to initialize contribution monitor: %v", err)
	}
	contributionMonitor.Start()
	defer contributionMonitor.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
