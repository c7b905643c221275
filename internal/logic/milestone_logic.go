package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/model"
	"gorm.io/gorm"
)

// MilestoneLogic 里程碑台账
type MilestoneLogic struct {
	db *gorm.DB
}

// NewMilestoneLogic 创建里程碑台账
func NewMilestoneLogic(db *gorm.DB) *MilestoneLogic {
	return &MilestoneLogic{db: db}
}

// ResolveByIdx 按展示顺序定位里程碑
// idx是外部接口的寻址方式，内部关联一律使用稳定主键Id
func (m *MilestoneLogic) ResolveByIdx(db *gorm.DB, campaignId int64, idx int) (*model.MilestoneModel, error) {
	if db == nil {
		db = m.db
	}
	var milestone model.MilestoneModel
	err := db.Where("campaign_id = ? AND idx = ?", campaignId, idx).First(&milestone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: campaign=%d idx=%d", apperr.ErrUnknownMilestone, campaignId, idx)
		}
		return nil, fmt.Errorf("查询里程碑失败: %w", err)
	}
	return &milestone, nil
}

// GetCampaignMilestones 获取活动的全部里程碑
func (m *MilestoneLogic) GetCampaignMilestones(campaignId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Where("campaign_id = ?", campaignId).
		Order("idx ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("查询里程碑失败: %w", err)
	}
	return milestones, nil
}

// MarkUnderReview 标记里程碑进入审核
func (m *MilestoneLogic) MarkUnderReview(tx *gorm.DB, milestoneId int64) error {
	milestone, err := m.load(tx, milestoneId)
	if err != nil {
		return err
	}
	if milestone.Status == model.MilestoneStatusCompleted {
		return fmt.Errorf("%w: milestone=%d", apperr.ErrAlreadyCompleted, milestoneId)
	}

	return m.update(tx, milestoneId, map[string]interface{}{
		"status": model.MilestoneStatusUnderReview,
	})
}

// MarkCompleted 标记里程碑完成并关联确认的证明
// 重复完成是错误而非静默成功，否则会二次触发资金释放
func (m *MilestoneLogic) MarkCompleted(tx *gorm.DB, milestoneId int64, proofId int64) error {
	milestone, err := m.load(tx, milestoneId)
	if err != nil {
		return err
	}
	if milestone.Status == model.MilestoneStatusCompleted {
		return fmt.Errorf("%w: milestone=%d", apperr.ErrAlreadyCompleted, milestoneId)
	}

	now := time.Now()
	return m.update(tx, milestoneId, map[string]interface{}{
		"status":       model.MilestoneStatusCompleted,
		"proof_id":     proofId,
		"completed_at": &now,
	})
}

// MarkRejected 标记里程碑证明被驳回
func (m *MilestoneLogic) MarkRejected(tx *gorm.DB, milestoneId int64) error {
	milestone, err := m.load(tx, milestoneId)
	if err != nil {
		return err
	}
	if milestone.Status == model.MilestoneStatusCompleted {
		return fmt.Errorf("%w: milestone=%d", apperr.ErrAlreadyCompleted, milestoneId)
	}

	return m.update(tx, milestoneId, map[string]interface{}{
		"status": model.MilestoneStatusRejected,
	})
}

// Reopen 将里程碑恢复为待提交状态（管理端删除证明后使用）
func (m *MilestoneLogic) Reopen(tx *gorm.DB, milestoneId int64) error {
	milestone, err := m.load(tx, milestoneId)
	if err != nil {
		return err
	}
	if milestone.Status == model.MilestoneStatusCompleted {
		return fmt.Errorf("%w: milestone=%d", apperr.ErrAlreadyCompleted, milestoneId)
	}

	return m.update(tx, milestoneId, map[string]interface{}{
		"status":   model.MilestoneStatusOpen,
		"proof_id": nil,
	})
}

func (m *MilestoneLogic) load(tx *gorm.DB, milestoneId int64) (*model.MilestoneModel, error) {
	if tx == nil {
		tx = m.db
	}
	var milestone model.MilestoneModel
	if err := tx.First(&milestone, milestoneId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: milestone=%d", apperr.ErrUnknownMilestone, milestoneId)
		}
		return nil, fmt.Errorf("查询里程碑失败: %w", err)
	}
	return &milestone, nil
}

func (m *MilestoneLogic) update(tx *gorm.DB, milestoneId int64, updates map[string]interface{}) error {
	if tx == nil {
		tx = m.db
	}
	if err := tx.Model(&model.MilestoneModel{}).
		Where("id = ?", milestoneId).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新里程碑失败: %w", err)
	}
	return nil
}
