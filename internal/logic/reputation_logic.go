package logic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// bigRaiserThresholdWei 大额筹款徽章门槛（5 ETH）
const bigRaiserThresholdWei = int64(5e18)

// ReputationLogic 创建者声誉聚合
// 统计只增不减；重算通过协程池异步执行，不阻塞触发方
type ReputationLogic struct {
	db   *gorm.DB
	pool *ants.Pool
}

// NewReputationLogic 创建声誉聚合器
func NewReputationLogic(db *gorm.DB) *ReputationLogic {
	pool, err := ants.NewPool(4)
	if err != nil {
		logger.Fatal("Failed to create reputation worker pool: %v", err)
	}
	return &ReputationLogic{db: db, pool: pool}
}

// Release 释放协程池
func (r *ReputationLogic) Release() {
	r.pool.Release()
}

// submit 提交异步重算任务，协程池不可用时降级为同步执行
func (r *ReputationLogic) submit(name string, task func() error) {
	err := r.pool.Submit(func() {
		if err := task(); err != nil {
			logger.Error("Reputation update failed (%s): %v", name, err)
		}
	})
	if err != nil {
		logger.Warn("Reputation pool unavailable, running %s inline: %v", name, err)
		if err := task(); err != nil {
			logger.Error("Reputation update failed (%s): %v", name, err)
		}
	}
}

// OnCampaignCreated 活动创建后更新创建者统计
func (r *ReputationLogic) OnCampaignCreated(creator string) {
	r.submit("campaign_created", func() error {
		return r.campaignCreated(creator)
	})
}

// OnCampaignSucceeded 活动成功后更新创建者统计
func (r *ReputationLogic) OnCampaignSucceeded(creator string) {
	r.submit("campaign_succeeded", func() error {
		return r.campaignSucceeded(creator)
	})
}

// OnMilestoneCompleted 里程碑完成后更新创建者统计
func (r *ReputationLogic) OnMilestoneCompleted(creator string) {
	r.submit("milestone_completed", func() error {
		return r.milestoneCompleted(creator)
	})
}

// OnContribution 收到贡献后更新创建者统计
func (r *ReputationLogic) OnContribution(creator string, amount int64) {
	r.submit("contribution", func() error {
		return r.contribution(creator, amount)
	})
}

// GetProfile 获取创建者档案，不存在则以零值懒创建
func (r *ReputationLogic) GetProfile(address string) (*model.CreatorProfileModel, error) {
	return r.getOrCreate(r.db, address)
}

// UpdateProfile 更新档案的展示字段
func (r *ReputationLogic) UpdateProfile(address string, displayName, bio, imageUrl string, socialLinks map[string]string) (*model.CreatorProfileModel, error) {
	profile, err := r.getOrCreate(r.db, address)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	if bio != "" {
		updates["bio"] = bio
	}
	if imageUrl != "" {
		updates["profile_image_url"] = imageUrl
	}
	if socialLinks != nil {
		raw, err := json.Marshal(socialLinks)
		if err != nil {
			return nil, fmt.Errorf("序列化社交链接失败: %w", err)
		}
		updates["social_links"] = string(raw)
	}

	if len(updates) > 0 {
		if err := r.db.Model(profile).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("更新创建者档案失败: %w", err)
		}
	}
	return r.getOrCreate(r.db, address)
}

func (r *ReputationLogic) campaignCreated(creator string) error {
	return r.mutate(creator, func(p *model.CreatorProfileModel) {
		p.CampaignsCreated++
	})
}

func (r *ReputationLogic) campaignSucceeded(creator string) error {
	return r.mutate(creator, func(p *model.CreatorProfileModel) {
		p.SuccessfulCampaigns++
	})
}

func (r *ReputationLogic) milestoneCompleted(creator string) error {
	return r.mutate(creator, func(p *model.CreatorProfileModel) {
		p.CompletedMilestones++
	})
}

func (r *ReputationLogic) contribution(creator string, amount int64) error {
	// 去重贡献者数从贡献记录重算，同一地址多次贡献只计一次
	var distinctContributors int64
	err := r.db.Raw(`
		SELECT COUNT(DISTINCT cr.address)
		FROM contribute_record cr
		JOIN campaign c ON cr.campaign_id = c.id
		WHERE c.creator_address = ?
	`, strings.ToLower(creator)).Scan(&distinctContributors).Error
	if err != nil {
		return fmt.Errorf("统计贡献者失败: %w", err)
	}

	return r.mutate(creator, func(p *model.CreatorProfileModel) {
		p.TotalFundsRaised += amount
		p.TotalContributors = distinctContributors
	})
}

// mutate 读取-修改-写回档案，并从最新统计整体重算徽章
func (r *ReputationLogic) mutate(creator string, apply func(*model.CreatorProfileModel)) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		profile, err := r.getOrCreate(tx, creator)
		if err != nil {
			return err
		}

		apply(profile)

		badges, err := json.Marshal(ComputeBadges(profile))
		if err != nil {
			return fmt.Errorf("序列化徽章失败: %w", err)
		}
		profile.Badges = string(badges)

		if err := tx.Save(profile).Error; err != nil {
			return fmt.Errorf("更新创建者档案失败: %w", err)
		}
		return nil
	})
}

func (r *ReputationLogic) getOrCreate(tx *gorm.DB, address string) (*model.CreatorProfileModel, error) {
	profile := model.CreatorProfileModel{
		Address: strings.ToLower(address),
	}
	if err := tx.Where("address = ?", profile.Address).
		FirstOrCreate(&profile).Error; err != nil {
		return nil, fmt.Errorf("获取创建者档案失败: %w", err)
	}
	return &profile, nil
}

// ComputeBadges 由统计值整体推导徽章集合
// 纯函数重算而非增量打补丁，避免统计与徽章漂移
func ComputeBadges(p *model.CreatorProfileModel) []string {
	badges := []string{}
	if p.CampaignsCreated >= 1 {
		badges = append(badges, model.BadgeFirstCampaign)
	}
	if p.CampaignsCreated >= 5 {
		badges = append(badges, model.BadgeSerialCreator)
	}
	if p.SuccessfulCampaigns >= 1 {
		badges = append(badges, model.BadgeFirstSuccess)
	}
	if p.CompletedMilestones >= 10 {
		badges = append(badges, model.BadgeMilestoneMaster)
	}
	if p.TotalContributors >= 100 {
		badges = append(badges, model.BadgeCommunityFavorite)
	}
	if p.TotalFundsRaised >= bigRaiserThresholdWei {
		badges = append(badges, model.BadgeBigRaiser)
	}
	return badges
}
