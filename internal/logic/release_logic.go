package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/metrics"
	"github.com/blues/mss/internal/model"
	"github.com/blues/mss/internal/settlement"
	"gorm.io/gorm"
)

// ReleaseLogic 资金释放闸门
// 释放台账为release_record表，(campaign_id, milestone_id)唯一索引充当CAS：
// 并发确认下只有一条插入成功，其余得到AlreadyReleased
type ReleaseLogic struct {
	db *gorm.DB
}

// NewReleaseLogic 创建资金释放闸门
func NewReleaseLogic(db *gorm.DB) *ReleaseLogic {
	return &ReleaseLogic{db: db}
}

// ComputeReleasable 计算当前可释放金额
// 已完成里程碑目标之和，以totalFunded封顶，再减去已实际结算的累计金额
// （已授权未结算的档位仍计入可释放额，双重释放由释放台账的CAS防护）
func (r *ReleaseLogic) ComputeReleasable(campaignId int64) (int64, error) {
	var campaign model.CampaignModel
	if err := r.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("活动%w: campaign=%d", apperr.ErrNotFound, campaignId)
		}
		return 0, fmt.Errorf("查询活动失败: %w", err)
	}

	var completedTotal int64
	if err := r.db.Model(&model.MilestoneModel{}).
		Where("campaign_id = ? AND status = ?", campaignId, model.MilestoneStatusCompleted).
		Select("COALESCE(SUM(target_amount), 0)").Scan(&completedTotal).Error; err != nil {
		return 0, fmt.Errorf("统计已完成里程碑失败: %w", err)
	}

	if completedTotal > campaign.TotalFunded {
		completedTotal = campaign.TotalFunded
	}

	var released int64
	if err := r.db.Model(&model.ReleaseRecordModel{}).
		Where("campaign_id = ? AND status = ?", campaignId, model.ReleaseStatusSettled).
		Select("COALESCE(SUM(amount), 0)").Scan(&released).Error; err != nil {
		return 0, fmt.Errorf("统计已结算金额失败: %w", err)
	}

	releasable := completedTotal - released
	if releasable < 0 {
		releasable = 0
	}
	return releasable, nil
}

// AuthorizeRelease 授权释放某个里程碑对应的资金档位
// 仅已完成的里程碑可显式授权（确认流程内的授权由AuthorizeTx在事务中完成）
func (r *ReleaseLogic) AuthorizeRelease(campaignId int64, milestone *model.MilestoneModel) (*settlement.ReleaseInstruction, error) {
	if milestone.Status != model.MilestoneStatusCompleted {
		return nil, fmt.Errorf("%w: 里程碑尚未完成", apperr.ErrInvalidTransition)
	}

	var campaign model.CampaignModel
	if err := r.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("活动%w: campaign=%d", apperr.ErrNotFound, campaignId)
		}
		return nil, fmt.Errorf("查询活动失败: %w", err)
	}

	var instruction *settlement.ReleaseInstruction
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		instruction, err = r.AuthorizeTx(tx, &campaign, milestone)
		return err
	})
	if err != nil {
		return nil, err
	}
	return instruction, nil
}

// AuthorizeTx 在调用方事务内授权释放
// 资金门槛：totalFunded必须达到该里程碑的累计目标（按释放顺序累加）
func (r *ReleaseLogic) AuthorizeTx(tx *gorm.DB, campaign *model.CampaignModel, milestone *model.MilestoneModel) (*settlement.ReleaseInstruction, error) {
	var cumulativeTarget int64
	if err := tx.Model(&model.MilestoneModel{}).
		Where("campaign_id = ? AND idx <= ?", campaign.Id, milestone.Idx).
		Select("COALESCE(SUM(target_amount), 0)").Scan(&cumulativeTarget).Error; err != nil {
		return nil, fmt.Errorf("统计累计目标失败: %w", err)
	}

	if campaign.TotalFunded < cumulativeTarget {
		return nil, fmt.Errorf("%w: funded=%d required=%d",
			apperr.ErrInsufficientFunds, campaign.TotalFunded, cumulativeTarget)
	}

	record := model.ReleaseRecordModel{
		CampaignId:   campaign.Id,
		MilestoneId:  milestone.Id,
		MilestoneIdx: milestone.Idx,
		Recipient:    campaign.CreatorAddress,
		Amount:       milestone.TargetAmount,
		Status:       model.ReleaseStatusPending,
	}
	if err := tx.Create(&record).Error; err != nil {
		// 唯一索引冲突即该档位已被并发授权
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: campaign=%d milestone=%d",
				apperr.ErrAlreadyReleased, campaign.Id, milestone.Id)
		}
		return nil, fmt.Errorf("写入释放记录失败: %w", err)
	}

	metrics.ReleasesAuthorized.Inc()
	logger.Info("Release authorized: campaign=%d milestone=%d amount=%d recipient=%s",
		campaign.Id, milestone.Id, milestone.TargetAmount, campaign.CreatorAddress)

	return &settlement.ReleaseInstruction{
		Recipient:    campaign.CreatorAddress,
		Amount:       milestone.TargetAmount,
		CampaignId:   campaign.Id,
		MilestoneId:  milestone.Id,
		MilestoneIdx: milestone.Idx,
	}, nil
}

// PendingReleases 获取待结算的释放记录（对账任务输入）
func (r *ReleaseLogic) PendingReleases(limit int) ([]model.ReleaseRecordModel, error) {
	var records []model.ReleaseRecordModel
	if err := r.db.Where("status = ?", model.ReleaseStatusPending).
		Order("created_at ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取待结算记录失败: %w", err)
	}
	return records, nil
}

// MarkSettled 回写结算回执，同时把交易哈希冲回证明记录
func (r *ReleaseLogic) MarkSettled(recordId int64, receipt *settlement.Receipt) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record model.ReleaseRecordModel
		if err := tx.First(&record, recordId).Error; err != nil {
			return fmt.Errorf("查询释放记录失败: %w", err)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":     model.ReleaseStatusSettled,
			"tx_hash":    receipt.TxHash,
			"block_num":  receipt.BlockNum,
			"settled_at": &now,
		}
		if err := tx.Model(&record).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新释放记录失败: %w", err)
		}

		if err := tx.Model(&model.ProofModel{}).
			Where("campaign_id = ? AND milestone_id = ?", record.CampaignId, record.MilestoneId).
			Update("tx_hash", receipt.TxHash).Error; err != nil {
			return fmt.Errorf("回填证明交易哈希失败: %w", err)
		}
		return nil
	})
}

// MarkAttemptFailed 记录一次失败的结算尝试，超过上限转为failed待人工处理
func (r *ReleaseLogic) MarkAttemptFailed(recordId int64, attemptErr error, maxRetries int) error {
	var record model.ReleaseRecordModel
	if err := r.db.First(&record, recordId).Error; err != nil {
		return fmt.Errorf("查询释放记录失败: %w", err)
	}

	updates := map[string]interface{}{
		"attempts":   record.Attempts + 1,
		"last_error": attemptErr.Error(),
	}
	if record.Attempts+1 >= maxRetries {
		updates["status"] = model.ReleaseStatusFailed
		logger.Error("Release settlement exhausted retries: record=%d campaign=%d milestone=%d err=%v",
			record.Id, record.CampaignId, record.MilestoneId, attemptErr)
	}

	if err := r.db.Model(&record).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新释放记录失败: %w", err)
	}
	return nil
}
