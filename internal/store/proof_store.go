package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/model"
	"gorm.io/gorm"
)

// ProofStore 证明存储
// 同一活动的写操作串行执行，不同活动互不阻塞
type ProofStore struct {
	db    *gorm.DB
	mu    sync.RWMutex
	locks map[int64]*sync.Mutex // campaignId -> 活动级写锁，进程生命周期内不回收
}

// NewProofStore 创建证明存储
func NewProofStore(db *gorm.DB) *ProofStore {
	return &ProofStore{
		db:    db,
		locks: make(map[int64]*sync.Mutex),
	}
}

// campaignLock 获取活动级写锁
func (s *ProofStore) campaignLock(campaignId int64) *sync.Mutex {
	s.mu.RLock()
	lock, ok := s.locks[campaignId]
	s.mu.RUnlock()
	if ok {
		return lock
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok = s.locks[campaignId]; !ok {
		lock = &sync.Mutex{}
		s.locks[campaignId] = lock
	}
	return lock
}

// Locked 持有活动级锁并在单个事务内执行fn
// 整个读-改-写作为一个单元提交，并发的Upsert/Delete不会交错
func (s *ProofStore) Locked(campaignId int64, fn func(tx *gorm.DB) error) error {
	lock := s.campaignLock(campaignId)
	lock.Lock()
	defer lock.Unlock()

	return s.db.Transaction(fn)
}

// Get 获取活动的全部证明记录
func (s *ProofStore) Get(campaignId int64) ([]model.ProofModel, error) {
	var proofs []model.ProofModel
	if err := s.db.Where("campaign_id = ?", campaignId).
		Order("milestone_idx ASC").Find(&proofs).Error; err != nil {
		return nil, fmt.Errorf("获取证明记录失败: %w", err)
	}
	return proofs, nil
}

// GetByKey 按(campaignId, milestoneId)获取证明记录
func (s *ProofStore) GetByKey(campaignId, milestoneId int64) (*model.ProofModel, error) {
	var proof model.ProofModel
	err := s.db.Where("campaign_id = ? AND milestone_id = ?", campaignId, milestoneId).
		First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("证明%w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("获取证明记录失败: %w", err)
	}
	return &proof, nil
}

// Upsert 写入证明记录
// 同键已有记录则覆盖其内容（保留CreatedAt），否则创建；UpdatedAt由gorm自动刷新
func (s *ProofStore) Upsert(proof *model.ProofModel) (*model.ProofModel, error) {
	err := s.Locked(proof.CampaignId, func(tx *gorm.DB) error {
		return upsertTx(tx, proof)
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

// UpsertTx 在调用方事务内写入证明记录（调用方需已持有活动锁）
func (s *ProofStore) UpsertTx(tx *gorm.DB, proof *model.ProofModel) error {
	return upsertTx(tx, proof)
}

func upsertTx(tx *gorm.DB, proof *model.ProofModel) error {
	var existing model.ProofModel
	err := tx.Where("campaign_id = ? AND milestone_id = ?", proof.CampaignId, proof.MilestoneId).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询证明记录失败: %w", err)
		}
		// 新记录，CreatedAt/UpdatedAt由gorm写入
		if err := tx.Create(proof).Error; err != nil {
			return fmt.Errorf("创建证明记录失败: %w", err)
		}
		return nil
	}

	// 覆盖已有记录，主键和CreatedAt保持不变
	proof.Id = existing.Id
	proof.CreatedAt = existing.CreatedAt
	if err := tx.Save(proof).Error; err != nil {
		return fmt.Errorf("更新证明记录失败: %w", err)
	}
	return nil
}

// Delete 删除证明记录，键不存在返回NotFound
func (s *ProofStore) Delete(campaignId, milestoneId int64) error {
	return s.Locked(campaignId, func(tx *gorm.DB) error {
		result := tx.Where("campaign_id = ? AND milestone_id = ?", campaignId, milestoneId).
			Delete(&model.ProofModel{})
		if result.Error != nil {
			return fmt.Errorf("删除证明记录失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("证明%w", apperr.ErrNotFound)
		}
		return nil
	})
}

// ListAll 列出全部证明记录（管理端只读巡检）
func (s *ProofStore) ListAll() ([]model.ProofModel, error) {
	var proofs []model.ProofModel
	if err := s.db.Order("campaign_id ASC, milestone_idx ASC").Find(&proofs).Error; err != nil {
		return nil, fmt.Errorf("获取证明记录失败: %w", err)
	}
	return proofs, nil
}
