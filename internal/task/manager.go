package task

import (
	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/notify"
	"github.com/blues/mss/internal/settlement"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

// NewManager 创建任务管理器
func NewManager(db *gorm.DB, cfg *config.Config, executor settlement.Executor,
	campaigns *logic.CampaignLogic, release *logic.ReleaseLogic, notifier *notify.Notifier) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		jobs: []Job{
			NewReleaseReconciliationJob(cfg, release, executor),
			NewMilestoneReminderJob(db, cfg, notifier),
			NewCampaignFinishJob(cfg, campaigns),
		},
	}
}

// Start 注册并启动全部任务
func (m *Manager) Start() {
	for _, job := range m.jobs {
		_, err := m.scheduler.NewJob(
			job.GetSchedule(),
			gocron.NewTask(job.Execute),
			gocron.WithName(job.GetName()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			logger.Error("Failed to register job %s: %v", job.GetName(), err)
		}
	}

	m.scheduler.Start()
	logger.Info("Task manager started with %d jobs", len(m.jobs))
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
