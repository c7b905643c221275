package settlement

import (
	"context"
)

// ReleaseInstruction 资金释放指令，交由外部结算方执行
type ReleaseInstruction struct {
	Recipient    string `json:"recipient"` // 创建者地址
	Amount       int64  `json:"amount"`    // 释放金额（wei）
	CampaignId   int64  `json:"campaign_id"`
	MilestoneId  int64  `json:"milestone_id"`
	MilestoneIdx int    `json:"milestone_idx"`
}

// Receipt 结算回执
type Receipt struct {
	TxHash   string `json:"tx_hash"`
	BlockNum int64  `json:"block_num"`
}

// Executor 结算执行器
// 链上调用可能超时或失败，实现方负责网络级重试，耗尽后返回ErrSettlement
type Executor interface {
	Execute(ctx context.Context, instruction ReleaseInstruction) (*Receipt, error)
}
