package notify

import (
	"time"

	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/metrics"
	"github.com/go-resty/resty/v2"
)

// 事件类型
const (
	EventProofPending = "proof_pending"
	EventMilestoneDue = "milestone_due"
)

// Event 发往提醒服务的事件载荷
type Event struct {
	Type         string     `json:"type"`
	CampaignId   int64      `json:"campaign_id"`
	MilestoneIdx int        `json:"milestone_idx"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// Notifier 提醒/通知服务客户端
// 只发不等：投递失败记日志后丢弃，不影响业务流程
type Notifier struct {
	client     *resty.Client
	webhookUrl string
}

// NewNotifier 创建通知客户端，webhook未配置时所有事件静默丢弃
func NewNotifier(cfg config.NotifyConfig) *Notifier {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSecs) * time.Second).
		SetRetryCount(2)

	return &Notifier{
		client:     client,
		webhookUrl: cfg.WebhookUrl,
	}
}

// ProofPending 证明等待审核事件
func (n *Notifier) ProofPending(campaignId int64, milestoneIdx int) {
	n.dispatch(Event{
		Type:         EventProofPending,
		CampaignId:   campaignId,
		MilestoneIdx: milestoneIdx,
		OccurredAt:   time.Now(),
	})
}

// MilestoneDue 里程碑到期事件
func (n *Notifier) MilestoneDue(campaignId int64, milestoneIdx int, dueDate time.Time) {
	n.dispatch(Event{
		Type:         EventMilestoneDue,
		CampaignId:   campaignId,
		MilestoneIdx: milestoneIdx,
		DueDate:      &dueDate,
		OccurredAt:   time.Now(),
	})
}

func (n *Notifier) dispatch(event Event) {
	if n.webhookUrl == "" {
		return
	}

	go func() {
		resp, err := n.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(event).
			Post(n.webhookUrl)
		if err != nil {
			logger.Warn("Failed to dispatch %s notification: %v", event.Type, err)
			return
		}
		if resp.IsError() {
			logger.Warn("Notification webhook returned %d for %s", resp.StatusCode(), event.Type)
			return
		}
		metrics.NotificationsSent.WithLabelValues(event.Type).Inc()
	}()
}
