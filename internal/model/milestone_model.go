package model

import (
	"time"
)

// MilestoneModel 活动里程碑
// 主键Id是稳定标识，证明与释放记录通过Id关联；Idx只做展示/释放顺序
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId   int64           `json:"campaign_id" gorm:"not null;index;uniqueIndex:uniq_campaign_idx,priority:1"`
	Idx          int             `json:"idx" gorm:"not null;uniqueIndex:uniq_campaign_idx,priority:2"` // 0起始的展示顺序
	Name         string          `json:"name" gorm:"not null"`
	TargetAmount int64           `json:"target_amount" gorm:"not null"` // 该档位释放金额（wei）
	Status       MilestoneStatus `json:"status" gorm:"default:'open'"`
	ProofId      *int64          `json:"proof_id"`
	DueDate      *time.Time      `json:"due_date"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// MilestoneStatus 里程碑状态（唯一状态字段，不再使用completed/isUnderReview布尔组合）
type MilestoneStatus string

const (
	MilestoneStatusOpen        MilestoneStatus = "open"         // 待提交证明
	MilestoneStatusUnderReview MilestoneStatus = "under_review" // 证明审核中
	MilestoneStatusCompleted   MilestoneStatus = "completed"    // 已完成
	MilestoneStatusRejected    MilestoneStatus = "rejected"     // 证明被驳回（可重新提交）
)

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "campaign_milestone"
}
