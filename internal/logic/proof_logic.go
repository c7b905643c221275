package logic

import (
	"errors"
	"fmt"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/metrics"
	"github.com/blues/mss/internal/model"
	"github.com/blues/mss/internal/store"
	"gorm.io/gorm"
)

// 审核决定
const (
	DecisionConfirm = "confirm"
	DecisionReject  = "reject"
)

// ProofNotifier 证明事件通知方，只发不等
type ProofNotifier interface {
	ProofPending(campaignId int64, milestoneIdx int)
}

// ProofLogic 证明生命周期引擎
// 状态机：pending -> confirmed（终态）/ rejected（终态，但可被新提交覆盖）
type ProofLogic struct {
	db         *gorm.DB
	store      *store.ProofStore
	milestones *MilestoneLogic
	release    *ReleaseLogic
	reputation *ReputationLogic
	notifier   ProofNotifier
}

// NewProofLogic 创建证明生命周期引擎
func NewProofLogic(db *gorm.DB, proofStore *store.ProofStore, milestones *MilestoneLogic,
	release *ReleaseLogic, reputation *ReputationLogic, notifier ProofNotifier) *ProofLogic {
	return &ProofLogic{
		db:         db,
		store:      proofStore,
		milestones: milestones,
		release:    release,
		reputation: reputation,
		notifier:   notifier,
	}
}

// Submit 创建者提交完成证明
// 仅当该里程碑没有证明、或已有证明被驳回时允许；覆盖驳回记录而非新建
func (p *ProofLogic) Submit(campaignId int64, milestoneIdx int, evidenceRef string) (*model.ProofModel, error) {
	if evidenceRef == "" {
		return nil, fmt.Errorf("%w: 证明材料不能为空", apperr.ErrValidation)
	}

	milestone, err := p.milestones.ResolveByIdx(nil, campaignId, milestoneIdx)
	if err != nil {
		return nil, err
	}

	var proof *model.ProofModel
	err = p.store.Locked(campaignId, func(tx *gorm.DB) error {
		var existing model.ProofModel
		err := tx.Where("campaign_id = ? AND milestone_id = ?", campaignId, milestone.Id).
			First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询证明记录失败: %w", err)
		}
		if err == nil && existing.Status != model.ProofStatusRejected {
			return fmt.Errorf("%w: campaign=%d idx=%d status=%s",
				apperr.ErrDuplicateSubmission, campaignId, milestoneIdx, existing.Status)
		}

		proof = &model.ProofModel{
			CampaignId:   campaignId,
			MilestoneId:  milestone.Id,
			MilestoneIdx: milestoneIdx,
			Status:       model.ProofStatusPending,
			EvidenceRef:  evidenceRef,
		}
		if err := p.store.UpsertTx(tx, proof); err != nil {
			return err
		}

		return p.milestones.MarkUnderReview(tx, milestone.Id)
	})
	if err != nil {
		return nil, err
	}

	metrics.ProofTransitions.WithLabelValues("submitted").Inc()
	if p.notifier != nil {
		p.notifier.ProofPending(campaignId, milestoneIdx)
	}

	logger.Info("Proof submitted: campaign=%d milestone=%d idx=%d", campaignId, milestone.Id, milestoneIdx)
	return proof, nil
}

// Review 审核证明，decision为confirm或reject，仅允许从pending转出
// 确认时在同一事务内完成里程碑并授权资金释放；资金未达门槛时确认仍生效，
// 释放推迟到后续显式调用AuthorizeRelease，第二个返回值标记该情况
func (p *ProofLogic) Review(campaignId int64, milestoneIdx int, decision string, reviewer string) (*model.ProofModel, bool, error) {
	if decision != DecisionConfirm && decision != DecisionReject {
		return nil, false, fmt.Errorf("%w: 未知的审核决定 %q", apperr.ErrValidation, decision)
	}

	milestone, err := p.milestones.ResolveByIdx(nil, campaignId, milestoneIdx)
	if err != nil {
		return nil, false, err
	}

	var campaign model.CampaignModel
	if err := p.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("活动%w: campaign=%d", apperr.ErrNotFound, campaignId)
		}
		return nil, false, fmt.Errorf("查询活动失败: %w", err)
	}

	var proof model.ProofModel
	deferred := false
	err = p.store.Locked(campaignId, func(tx *gorm.DB) error {
		err := tx.Where("campaign_id = ? AND milestone_id = ?", campaignId, milestone.Id).
			First(&proof).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("证明%w: campaign=%d idx=%d", apperr.ErrNotFound, campaignId, milestoneIdx)
			}
			return fmt.Errorf("查询证明记录失败: %w", err)
		}
		if proof.Status != model.ProofStatusPending {
			return fmt.Errorf("%w: campaign=%d idx=%d status=%s",
				apperr.ErrInvalidTransition, campaignId, milestoneIdx, proof.Status)
		}

		if decision == DecisionReject {
			proof.Status = model.ProofStatusRejected
			if err := p.store.UpsertTx(tx, &proof); err != nil {
				return err
			}
			return p.milestones.MarkRejected(tx, milestone.Id)
		}

		proof.Status = model.ProofStatusConfirmed
		if err := p.store.UpsertTx(tx, &proof); err != nil {
			return err
		}
		if err := p.milestones.MarkCompleted(tx, milestone.Id, proof.Id); err != nil {
			return err
		}

		if _, err := p.release.AuthorizeTx(tx, &campaign, milestone); err != nil {
			if errors.Is(err, apperr.ErrInsufficientFunds) {
				logger.Warn("Release deferred, funding below cumulative target: campaign=%d idx=%d",
					campaignId, milestoneIdx)
				deferred = true
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	metrics.ProofTransitions.WithLabelValues(string(proof.Status)).Inc()
	logger.Info("Proof reviewed: campaign=%d idx=%d decision=%s reviewer=%s",
		campaignId, milestoneIdx, decision, reviewer)

	if decision == DecisionConfirm {
		// 声誉重算不阻塞审核响应
		p.reputation.OnMilestoneCompleted(campaign.CreatorAddress)
	}

	return &proof, deferred, nil
}

// List 获取活动的全部证明
func (p *ProofLogic) List(campaignId int64) ([]model.ProofModel, error) {
	return p.store.Get(campaignId)
}

// ListAll 管理端巡检：列出全部证明，不产生任何状态变更
func (p *ProofLogic) ListAll() ([]model.ProofModel, error) {
	return p.store.ListAll()
}

// ForceSetStatus 管理端强制写入证明状态，绕过状态机前置条件
// 仅用于人工修复不一致数据；审计记录包含操作者与修改前状态
func (p *ProofLogic) ForceSetStatus(campaignId int64, milestoneIdx int, status model.ProofStatus, operator string) (*model.ProofModel, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: 未知的证明状态 %q", apperr.ErrValidation, status)
	}

	milestone, err := p.milestones.ResolveByIdx(nil, campaignId, milestoneIdx)
	if err != nil {
		return nil, err
	}

	var proof model.ProofModel
	err = p.store.Locked(campaignId, func(tx *gorm.DB) error {
		err := tx.Where("campaign_id = ? AND milestone_id = ?", campaignId, milestone.Id).
			First(&proof).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("证明%w: campaign=%d idx=%d", apperr.ErrNotFound, campaignId, milestoneIdx)
			}
			return fmt.Errorf("查询证明记录失败: %w", err)
		}

		logger.Warn("AUDIT force_set_status: operator=%s campaign=%d idx=%d prior=%s new=%s",
			operator, campaignId, milestoneIdx, proof.Status, status)

		proof.Status = status
		if err := p.store.UpsertTx(tx, &proof); err != nil {
			return err
		}

		// 里程碑状态跟随证明状态，但不触发资金释放
		switch status {
		case model.ProofStatusPending:
			return p.milestones.update(tx, milestone.Id, map[string]interface{}{
				"status": model.MilestoneStatusUnderReview,
			})
		case model.ProofStatusConfirmed:
			return p.milestones.update(tx, milestone.Id, map[string]interface{}{
				"status":   model.MilestoneStatusCompleted,
				"proof_id": proof.Id,
			})
		case model.ProofStatusRejected:
			return p.milestones.update(tx, milestone.Id, map[string]interface{}{
				"status": model.MilestoneStatusRejected,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AdminOverrides.WithLabelValues("force_set_status").Inc()
	return &proof, nil
}

// Remove 管理端硬删除证明，仅用于人工恢复，自动流程不得调用
func (p *ProofLogic) Remove(campaignId int64, milestoneIdx int, operator string) error {
	milestone, err := p.milestones.ResolveByIdx(nil, campaignId, milestoneIdx)
	if err != nil {
		return err
	}

	prior, err := p.store.GetByKey(campaignId, milestone.Id)
	if err != nil {
		return err
	}

	logger.Warn("AUDIT remove_proof: operator=%s campaign=%d idx=%d prior=%s",
		operator, campaignId, milestoneIdx, prior.Status)

	if err := p.store.Delete(campaignId, milestone.Id); err != nil {
		return err
	}

	// 未完成的里程碑恢复为待提交；已完成的保持不动，由操作者决定后续处理
	if milestone.Status != model.MilestoneStatusCompleted {
		if err := p.milestones.Reopen(nil, milestone.Id); err != nil {
			return err
		}
	}

	metrics.AdminOverrides.WithLabelValues("remove_proof").Inc()
	return nil
}
