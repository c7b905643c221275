package task

import (
	"time"

	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// CampaignFinishJob 活动收尾任务
// 将到期活动转为success/failed并触发创建者统计更新
type CampaignFinishJob struct {
	config    *config.Config
	campaigns *logic.CampaignLogic
}

// NewCampaignFinishJob 创建活动收尾任务
func NewCampaignFinishJob(cfg *config.Config, campaigns *logic.CampaignLogic) *CampaignFinishJob {
	return &CampaignFinishJob{
		config:    cfg,
		campaigns: campaigns,
	}
}

// GetName 获取任务名称
func (j *CampaignFinishJob) GetName() string {
	return "campaign_finish"
}

// GetSchedule 获取调度配置
func (j *CampaignFinishJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignFinishJob) Execute() {
	finished, err := j.campaigns.FinishDueCampaigns(time.Now())
	if err != nil {
		logger.Error("Campaign finish sweep failed: %v", err)
		return
	}
	if finished > 0 {
		logger.Info("Campaign finish sweep completed, finished %d campaigns", finished)
	}
}
