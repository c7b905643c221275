package task

import (
	"context"
	"time"

	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/metrics"
	"github.com/blues/mss/internal/settlement"
	"github.com/go-co-op/gocron/v2"
)

// ReleaseReconciliationJob 释放对账任务
// 扫描"已确认未结算"的释放记录并推进结算；进程重启后挂起的结算由此恢复
type ReleaseReconciliationJob struct {
	config   *config.Config
	release  *logic.ReleaseLogic
	executor settlement.Executor
}

// NewReleaseReconciliationJob 创建释放对账任务
func NewReleaseReconciliationJob(cfg *config.Config, release *logic.ReleaseLogic, executor settlement.Executor) *ReleaseReconciliationJob {
	return &ReleaseReconciliationJob{
		config:   cfg,
		release:  release,
		executor: executor,
	}
}

// GetName 获取任务名称
func (j *ReleaseReconciliationJob) GetName() string {
	return "release_reconciliation"
}

// GetSchedule 获取调度配置
func (j *ReleaseReconciliationJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ReleaseReconciliationJob) Execute() {
	records, err := j.release.PendingReleases(j.config.Settlement.SweepBatchSize)
	if err != nil {
		logger.Error("Failed to fetch pending releases: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	logger.Info("Starting release reconciliation, %d pending records", len(records))
	settledCount := 0

	for _, record := range records {
		instruction := settlement.ReleaseInstruction{
			Recipient:    record.Recipient,
			Amount:       record.Amount,
			CampaignId:   record.CampaignId,
			MilestoneId:  record.MilestoneId,
			MilestoneIdx: record.MilestoneIdx,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		receipt, err := j.executor.Execute(ctx, instruction)
		cancel()

		if err != nil {
			metrics.SettlementFailures.Inc()
			logger.Error("Settlement failed for release %d: %v", record.Id, err)
			if markErr := j.release.MarkAttemptFailed(record.Id, err, int(j.config.Settlement.MaxRetries)); markErr != nil {
				logger.Error("Failed to record settlement attempt for release %d: %v", record.Id, markErr)
			}
			continue
		}

		if err := j.release.MarkSettled(record.Id, receipt); err != nil {
			logger.Error("Failed to mark release %d settled: %v", record.Id, err)
			continue
		}

		metrics.ReleasesSettled.Inc()
		logger.Info("Release settled: record=%d campaign=%d milestone=%d tx=%s",
			record.Id, record.CampaignId, record.MilestoneId, receipt.TxHash)
		settledCount++
	}

	logger.Info("Release reconciliation completed, settled %d of %d", settledCount, len(records))
}
