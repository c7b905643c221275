package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/model"
	"gorm.io/gorm"
)

// ContributeLogic 贡献记录业务逻辑
type ContributeLogic struct {
	db         *gorm.DB
	reputation *ReputationLogic
}

// NewContributeLogic 创建贡献记录业务逻辑
func NewContributeLogic(db *gorm.DB, reputation *ReputationLogic) *ContributeLogic {
	return &ContributeLogic{db: db, reputation: reputation}
}

// Record 记录一笔贡献并累加活动筹款额
// 入账上限为目标金额的120%，超出部分拒绝
func (l *ContributeLogic) Record(record *model.ContributeRecordModel) error {
	if record.Amount <= 0 {
		return fmt.Errorf("%w: 贡献金额必须大于0", apperr.ErrValidation)
	}
	if record.Address == "" {
		return fmt.Errorf("%w: 贡献者地址不能为空", apperr.ErrValidation)
	}
	record.Address = strings.ToLower(record.Address)

	var campaign model.CampaignModel
	duplicate := false
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&campaign, record.CampaignId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("活动%w: campaign=%d", apperr.ErrNotFound, record.CampaignId)
			}
			return fmt.Errorf("查询活动失败: %w", err)
		}
		if !campaign.IsActive {
			return fmt.Errorf("%w: 活动已结束", apperr.ErrValidation)
		}
		if campaign.TotalFunded+record.Amount > campaign.FundingCap() {
			return fmt.Errorf("%w: 超出超募上限", apperr.ErrValidation)
		}

		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 同一交易哈希重复上报，幂等跳过
				logger.Warn("Duplicate contribution tx ignored: %s", record.TxHash)
				duplicate = true
				return nil
			}
			return fmt.Errorf("创建贡献记录失败: %w", err)
		}

		if err := tx.Model(&campaign).
			Update("total_funded", gorm.Expr("total_funded + ?", record.Amount)).Error; err != nil {
			return fmt.Errorf("更新筹款金额失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !duplicate {
		l.reputation.OnContribution(campaign.CreatorAddress, record.Amount)
	}
	return nil
}

// List 获取活动的贡献记录（分页）
func (l *ContributeLogic) List(campaignId int64, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	query := l.db.Model(&model.ContributeRecordModel{}).Where("campaign_id = ?", campaignId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计贡献记录失败: %w", err)
	}

	var records []model.ContributeRecordModel
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录失败: %w", err)
	}

	return records, total, nil
}
