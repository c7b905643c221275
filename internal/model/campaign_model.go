package model

import (
	"time"
)

// CampaignModel 众筹活动模型
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`

	// 众筹信息（金额单位为wei）
	// 超募容忍度：total_funded 最多允许达到 goal_amount 的120%，超出部分拒绝入账
	GoalAmount  int64 `json:"goal_amount" gorm:"not null" binding:"required,min=0"`
	TotalFunded int64 `json:"total_funded" gorm:"default:0"`

	// 时间信息
	Deadline     time.Time `json:"deadline" gorm:"not null"`
	DurationDays int       `json:"duration_days" gorm:"not null"`

	// 状态
	IsActive bool   `json:"is_active" gorm:"default:true"`
	Status   string `json:"status" gorm:"default:'active'"` // active, success, failed

	// 创建者信息
	CreatorAddress string `json:"creator_address" gorm:"not null"`
	CreatorName    string `json:"creator_name"`
}

// OverfundingToleranceBps 超募容忍度（万分比），20%
const OverfundingToleranceBps = 2000

// FundingCap 入账上限
func (c *CampaignModel) FundingCap() int64 {
	return c.GoalAmount + c.GoalAmount*OverfundingToleranceBps/10000
}

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive  CampaignStatus = "active"  // 进行中
	CampaignStatusSuccess CampaignStatus = "success" // 成功
	CampaignStatusFailed  CampaignStatus = "failed"  // 失败
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
