package task

import (
	"time"

	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/model"
	"github.com/blues/mss/internal/notify"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// MilestoneReminderJob 里程碑提醒任务
// 对即将到期的里程碑和长期挂起的证明发出提醒；只提醒，不使任何证明过期
type MilestoneReminderJob struct {
	db       *gorm.DB
	config   *config.Config
	notifier *notify.Notifier
}

// NewMilestoneReminderJob 创建里程碑提醒任务
func NewMilestoneReminderJob(db *gorm.DB, cfg *config.Config, notifier *notify.Notifier) *MilestoneReminderJob {
	return &MilestoneReminderJob{
		db:       db,
		config:   cfg,
		notifier: notifier,
	}
}

// GetName 获取任务名称
func (j *MilestoneReminderJob) GetName() string {
	return "milestone_reminder"
}

// GetSchedule 获取调度配置
func (j *MilestoneReminderJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Hour)
}

// Execute 执行任务
func (j *MilestoneReminderJob) Execute() {
	j.remindDueMilestones()
	j.remindStaleProofs()
}

// remindDueMilestones 提醒3天内到期且未完成的里程碑
func (j *MilestoneReminderJob) remindDueMilestones() {
	horizon := time.Now().AddDate(0, 0, 3)

	var milestones []model.MilestoneModel
	err := j.db.Where("due_date IS NOT NULL AND due_date <= ? AND status IN ?",
		horizon, []model.MilestoneStatus{model.MilestoneStatusOpen, model.MilestoneStatusRejected}).
		Find(&milestones).Error
	if err != nil {
		logger.Error("Failed to fetch due milestones: %v", err)
		return
	}

	for _, m := range milestones {
		j.notifier.MilestoneDue(m.CampaignId, m.Idx, *m.DueDate)
	}

	if len(milestones) > 0 {
		logger.Info("Dispatched %d milestone due reminders", len(milestones))
	}
}

// remindStaleProofs 提醒挂起超过配置天数的证明
func (j *MilestoneReminderJob) remindStaleProofs() {
	cutoff := time.Now().AddDate(0, 0, -j.config.Notify.PendingProofDays)

	var proofs []model.ProofModel
	err := j.db.Where("status = ? AND updated_at <= ?", model.ProofStatusPending, cutoff).
		Find(&proofs).Error
	if err != nil {
		logger.Error("Failed to fetch stale proofs: %v", err)
		return
	}

	for _, p := range proofs {
		j.notifier.ProofPending(p.CampaignId, p.MilestoneIdx)
	}

	if len(proofs) > 0 {
		logger.Info("Dispatched %d stale proof reminders", len(proofs))
	}
}
