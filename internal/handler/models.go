package handler

import (
	"time"

	"github.com/blues/mss/internal/logic"
)

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	GoalAmount   int64                  `json:"goal_amount" binding:"required,min=1"`
	DurationDays int                    `json:"duration_days" binding:"required,min=1"`
	Deadline     *time.Time             `json:"deadline"`
	CreatorName  string                 `json:"creator_name"`
	Milestones   []logic.MilestoneInput `json:"milestones" binding:"required,min=1"`
}

// SubmitProofRequest 提交证明请求
type SubmitProofRequest struct {
	EvidenceRef string `json:"evidence_ref" binding:"required"`
}

// ReviewProofRequest 审核证明请求
type ReviewProofRequest struct {
	Decision string `json:"decision" binding:"required"` // confirm / reject
}

// ForceStatusRequest 管理端强制写状态请求
type ForceStatusRequest struct {
	Status string `json:"status" binding:"required"` // pending / confirmed / rejected
}

// ContributeRequest 记录贡献请求
type ContributeRequest struct {
	Amount   int64  `json:"amount" binding:"required,min=1"`
	TxHash   string `json:"tx_hash"`
	BlockNum int64  `json:"block_num"`
}

// UpdateProfileRequest 更新创建者档案请求
type UpdateProfileRequest struct {
	DisplayName     string            `json:"display_name"`
	Bio             string            `json:"bio"`
	ProfileImageUrl string            `json:"profile_image_url"`
	SocialLinks     map[string]string `json:"social_links"`
}
