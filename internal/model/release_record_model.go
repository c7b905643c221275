package model

import (
	"time"
)

// ReleaseRecordModel 资金释放记录
// (campaign_id, milestone_id)唯一索引即释放台账的CAS：插入成功视为授权成功，
// 冲突即已释放。pending状态表示"已确认未结算"，由对账任务推进
type ReleaseRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId   int64  `json:"campaign_id" gorm:"not null;index;uniqueIndex:uniq_release_key,priority:1"`
	MilestoneId  int64  `json:"milestone_id" gorm:"not null;uniqueIndex:uniq_release_key,priority:2"`
	MilestoneIdx int    `json:"milestone_idx" gorm:"not null"`
	Recipient    string `json:"recipient" gorm:"not null"` // 创建者地址
	Amount       int64  `json:"amount" gorm:"not null"`    // 释放金额（wei）

	Status    ReleaseStatus `json:"status" gorm:"default:'pending'"`
	TxHash    string        `json:"tx_hash" gorm:"index"`
	BlockNum  int64         `json:"block_num"`
	Attempts  int           `json:"attempts" gorm:"default:0"` // 已尝试结算次数
	LastError string        `json:"last_error" gorm:"type:text"`
	SettledAt *time.Time    `json:"settled_at"`
}

// ReleaseStatus 释放记录状态
type ReleaseStatus string

const (
	ReleaseStatusPending ReleaseStatus = "pending" // 已授权待结算
	ReleaseStatusSettled ReleaseStatus = "settled" // 已结算
	ReleaseStatusFailed  ReleaseStatus = "failed"  // 重试耗尽，需人工介入
)

// TableName 自定义表名
func (ReleaseRecordModel) TableName() string {
	return "release_record"
}
