package model

import (
	"time"
)

// CreatorProfileModel 创建者档案
// 以小写地址为主键，首次查询时懒创建，只做增量更新，不做物理删除
type CreatorProfileModel struct {
	Address   string    `json:"address" gorm:"primaryKey"` // 小写地址
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DisplayName     string `json:"display_name"`
	Bio             string `json:"bio" gorm:"type:text"`
	ProfileImageUrl string `json:"profile_image_url"`

	VerificationLevel VerificationLevel `json:"verification_level" gorm:"default:'UNVERIFIED'"`
	SocialLinks       string            `json:"social_links" gorm:"type:text"` // JSON: 平台名 -> URL
	Badges            string            `json:"badges" gorm:"type:text"`       // JSON: 徽章标识数组

	// 统计信息，全部为单调递增
	CampaignsCreated    int64 `json:"campaigns_created" gorm:"default:0"`
	SuccessfulCampaigns int64 `json:"successful_campaigns" gorm:"default:0"`
	TotalFundsRaised    int64 `json:"total_funds_raised" gorm:"default:0"`
	CompletedMilestones int64 `json:"completed_milestones" gorm:"default:0"`
	TotalContributors   int64 `json:"total_contributors" gorm:"default:0"` // 跨活动去重后的贡献者数
}

// VerificationLevel 认证等级（有序枚举，可扩展）
type VerificationLevel string

const (
	VerificationUnverified VerificationLevel = "UNVERIFIED"
	VerificationVerified   VerificationLevel = "VERIFIED"
	VerificationTrusted    VerificationLevel = "TRUSTED"
)

// 徽章标识
const (
	BadgeFirstCampaign     = "first_campaign"      // 创建首个活动
	BadgeFirstSuccess      = "first_success"       // 首个成功活动
	BadgeSerialCreator     = "serial_creator"      // 创建5个以上活动
	BadgeMilestoneMaster   = "milestone_master"    // 完成10个以上里程碑
	BadgeCommunityFavorite = "community_favorite"  // 贡献者超过100人
	BadgeBigRaiser         = "big_raiser"          // 累计筹款达到大额门槛
)

// TableName 自定义表名
func (CreatorProfileModel) TableName() string {
	return "creator_profile"
}
