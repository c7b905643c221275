package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/model"
	"gorm.io/gorm"
)

// MilestoneInput 创建活动时的里程碑定义
type MilestoneInput struct {
	Name         string     `json:"name" binding:"required"`
	TargetAmount int64      `json:"target_amount" binding:"required,min=1"`
	DueDate      *time.Time `json:"due_date"`
}

// CampaignLogic 活动业务逻辑
type CampaignLogic struct {
	db         *gorm.DB
	reputation *ReputationLogic
}

// NewCampaignLogic 创建活动业务逻辑
func NewCampaignLogic(db *gorm.DB, reputation *ReputationLogic) *CampaignLogic {
	return &CampaignLogic{db: db, reputation: reputation}
}

// CreateCampaign 创建活动及其里程碑序列
// 里程碑归属于活动，顺序即资金释放顺序
func (c *CampaignLogic) CreateCampaign(campaign *model.CampaignModel, milestones []MilestoneInput) error {
	if err := c.validateCampaign(campaign, milestones); err != nil {
		return err
	}

	campaign.CreatorAddress = strings.ToLower(campaign.CreatorAddress)
	campaign.Status = string(model.CampaignStatusActive)
	campaign.IsActive = true
	campaign.TotalFunded = 0
	if campaign.Deadline.IsZero() {
		campaign.Deadline = time.Now().AddDate(0, 0, campaign.DurationDays)
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(campaign).Error; err != nil {
			return fmt.Errorf("创建活动失败: %w", err)
		}

		for i, in := range milestones {
			milestone := model.MilestoneModel{
				CampaignId:   campaign.Id,
				Idx:          i,
				Name:         in.Name,
				TargetAmount: in.TargetAmount,
				Status:       model.MilestoneStatusOpen,
				DueDate:      in.DueDate,
			}
			if err := tx.Create(&milestone).Error; err != nil {
				return fmt.Errorf("创建里程碑失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.reputation.OnCampaignCreated(campaign.CreatorAddress)
	logger.Info("Campaign created: id=%d creator=%s milestones=%d",
		campaign.Id, campaign.CreatorAddress, len(milestones))
	return nil
}

// GetCampaigns 获取活动列表
func (c *CampaignLogic) GetCampaigns(status, category, creator string, page, pageSize int) ([]model.CampaignModel, int64, error) {
	query := c.db.Model(&model.CampaignModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if creator != "" {
		query = query.Where("creator_address = ?", strings.ToLower(creator))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计活动数量失败: %w", err)
	}

	var campaigns []model.CampaignModel
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").
		Offset(offset).Limit(pageSize).Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动列表失败: %w", err)
	}

	return campaigns, total, nil
}

// GetCampaign 获取活动详情
func (c *CampaignLogic) GetCampaign(id int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := c.db.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("活动%w: campaign=%d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return &campaign, nil
}

// GetCampaignStats 获取活动统计信息
func (c *CampaignLogic) GetCampaignStats(id int64) (map[string]interface{}, error) {
	campaign, err := c.GetCampaign(id)
	if err != nil {
		return nil, err
	}

	var contributorCount int64
	if err := c.db.Model(&model.ContributeRecordModel{}).
		Where("campaign_id = ?", id).
		Distinct("address").Count(&contributorCount).Error; err != nil {
		return nil, fmt.Errorf("统计贡献者失败: %w", err)
	}

	var contributionCount int64
	if err := c.db.Model(&model.ContributeRecordModel{}).
		Where("campaign_id = ?", id).Count(&contributionCount).Error; err != nil {
		return nil, fmt.Errorf("统计贡献次数失败: %w", err)
	}

	var completedMilestones int64
	if err := c.db.Model(&model.MilestoneModel{}).
		Where("campaign_id = ? AND status = ?", id, model.MilestoneStatusCompleted).
		Count(&completedMilestones).Error; err != nil {
		return nil, fmt.Errorf("统计已完成里程碑失败: %w", err)
	}

	// 计算完成百分比
	completionPercentage := float64(0)
	if campaign.GoalAmount > 0 {
		completionPercentage = float64(campaign.TotalFunded) / float64(campaign.GoalAmount) * 100
	}

	// 计算剩余时间
	remainingTime := time.Duration(0)
	if campaign.Status == string(model.CampaignStatusActive) && time.Now().Before(campaign.Deadline) {
		remainingTime = time.Until(campaign.Deadline)
	}

	return map[string]interface{}{
		"campaign_id":           campaign.Id,
		"total_funded":          campaign.TotalFunded,
		"goal_amount":           campaign.GoalAmount,
		"completion_percentage": completionPercentage,
		"contributor_count":     contributorCount,
		"contribution_count":    contributionCount,
		"completed_milestones":  completedMilestones,
		"remaining_time":        remainingTime.String(),
		"status":                campaign.Status,
	}, nil
}

// FinishDueCampaigns 处理到期活动：达标转success并更新创建者统计，否则转failed
func (c *CampaignLogic) FinishDueCampaigns(now time.Time) (int, error) {
	var due []model.CampaignModel
	if err := c.db.Where("status = ? AND deadline <= ?",
		model.CampaignStatusActive, now).Find(&due).Error; err != nil {
		return 0, fmt.Errorf("查询到期活动失败: %w", err)
	}

	finished := 0
	for _, campaign := range due {
		status := model.CampaignStatusFailed
		if campaign.TotalFunded >= campaign.GoalAmount {
			status = model.CampaignStatusSuccess
		}

		updates := map[string]interface{}{
			"status":    status,
			"is_active": false,
		}
		if err := c.db.Model(&campaign).Updates(updates).Error; err != nil {
			logger.Error("Failed to finish campaign %d: %v", campaign.Id, err)
			continue
		}

		if status == model.CampaignStatusSuccess {
			c.reputation.OnCampaignSucceeded(campaign.CreatorAddress)
		}
		logger.Info("Campaign finished: id=%d status=%s funded=%d goal=%d",
			campaign.Id, status, campaign.TotalFunded, campaign.GoalAmount)
		finished++
	}

	return finished, nil
}

// validateCampaign 验证活动数据
func (c *CampaignLogic) validateCampaign(campaign *model.CampaignModel, milestones []MilestoneInput) error {
	if campaign.Title == "" {
		return fmt.Errorf("%w: 活动标题不能为空", apperr.ErrValidation)
	}
	if campaign.CreatorAddress == "" {
		return fmt.Errorf("%w: 创建者地址不能为空", apperr.ErrValidation)
	}
	if campaign.GoalAmount <= 0 {
		return fmt.Errorf("%w: 目标金额必须大于0", apperr.ErrValidation)
	}
	if campaign.DurationDays <= 0 {
		return fmt.Errorf("%w: 活动时长必须大于0", apperr.ErrValidation)
	}
	if len(milestones) == 0 {
		return fmt.Errorf("%w: 至少需要一个里程碑", apperr.ErrValidation)
	}

	var targetSum int64
	for _, m := range milestones {
		if m.Name == "" {
			return fmt.Errorf("%w: 里程碑名称不能为空", apperr.ErrValidation)
		}
		if m.TargetAmount <= 0 {
			return fmt.Errorf("%w: 里程碑目标金额必须大于0", apperr.ErrValidation)
		}
		targetSum += m.TargetAmount
	}
	if targetSum > campaign.GoalAmount {
		return fmt.Errorf("%w: 里程碑目标之和不能超过目标金额", apperr.ErrValidation)
	}
	return nil
}
