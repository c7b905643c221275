package model

import (
	"time"
)

// ProofModel 里程碑完成证明
// 每个(campaign_id, milestone_id)至多一条记录，重复提交覆盖原记录
type ProofModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId   int64       `json:"campaign_id" gorm:"not null;index;uniqueIndex:uniq_proof_key,priority:1"`
	MilestoneId  int64       `json:"milestone_id" gorm:"not null;uniqueIndex:uniq_proof_key,priority:2"`
	MilestoneIdx int         `json:"milestone_idx" gorm:"not null"` // 展示顺序，冗余存储
	Status       ProofStatus `json:"status" gorm:"default:'pending'"`
	EvidenceRef  string      `json:"evidence_ref" gorm:"type:text"` // 证明材料引用（URL或IPFS哈希）
	TxHash       string      `json:"tx_hash"`                       // 资金释放后回填
}

// ProofStatus 证明状态
type ProofStatus string

const (
	ProofStatusPending   ProofStatus = "pending"   // 待审核
	ProofStatusConfirmed ProofStatus = "confirmed" // 已确认
	ProofStatusRejected  ProofStatus = "rejected"  // 已驳回
)

// Valid 是否为合法状态值
func (s ProofStatus) Valid() bool {
	switch s {
	case ProofStatusPending, ProofStatusConfirmed, ProofStatusRejected:
		return true
	}
	return false
}

// TableName 自定义表名
func (ProofModel) TableName() string {
	return "milestone_proof"
}
