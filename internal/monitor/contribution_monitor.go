package monitor

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/model"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/panjf2000/ants/v2"
)

// 众筹合约ABI定义（仅贡献事件）
const contributionABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "campaignId", "type": "uint256"},
			{"indexed": true, "name": "contributor", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "ContributionMade",
		"type": "event"
	}
]`

// ContributionMonitor 链上贡献事件监控器
// 扫描ContributionMade日志并落库，同一交易哈希幂等
type ContributionMonitor struct {
	client       *ethclient.Client
	contribute   *logic.ContributeLogic
	contractAddr common.Address
	eventABI     abi.ABI
	pool         *ants.Pool
	batchSize    uint64

	mu        sync.RWMutex
	nextBlock uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewContributionMonitor 创建贡献事件监控器
func NewContributionMonitor(cfg config.ChainConfig, contribute *logic.ContributeLogic) (*ContributionMonitor, error) {
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, err
	}

	eventABI, err := abi.JSON(strings.NewReader(contributionABI))
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(8)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ContributionMonitor{
		client:       client,
		contribute:   contribute,
		contractAddr: common.HexToAddress(cfg.ContractAddr),
		eventABI:     eventABI,
		pool:         pool,
		batchSize:    cfg.BatchSize,
		nextBlock:    cfg.StartBlock,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start 启动监控循环
func (m *ContributionMonitor) Start() {
	logger.Info("Starting contribution monitor from block %d", m.nextBlock)
	go m.loop()
}

// Stop 停止监控
func (m *ContributionMonitor) Stop() {
	m.cancel()
	m.pool.Release()
	logger.Info("Contribution monitor stopped")
}

func (m *ContributionMonitor) loop() {
	ticker := time.NewTicker(time.Second * 30)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if err := m.scan(); err != nil {
				logger.Error("Contribution scan failed: %v", err)
			}
		}
	}
}

// scan 扫描下一批区块的贡献日志
func (m *ContributionMonitor) scan() error {
	header, err := m.client.HeaderByNumber(m.ctx, nil)
	if err != nil {
		return err
	}
	currentBlock := header.Number.Uint64()

	m.mu.RLock()
	from := m.nextBlock
	m.mu.RUnlock()

	if from > currentBlock {
		return nil
	}
	to := from + m.batchSize - 1
	if to > currentBlock {
		to = currentBlock
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{m.contractAddr},
	}
	logs, err := m.client.FilterLogs(m.ctx, query)
	if err != nil {
		return err
	}

	for _, lg := range logs {
		entry := lg
		if err := m.pool.Submit(func() {
			m.handleLog(entry)
		}); err != nil {
			logger.Warn("Contribution pool unavailable, handling log inline: %v", err)
			m.handleLog(entry)
		}
	}

	m.mu.Lock()
	m.nextBlock = to + 1
	m.mu.Unlock()

	if len(logs) > 0 {
		logger.Info("Scanned blocks %d-%d, %d contribution logs", from, to, len(logs))
	}
	return nil
}

// handleLog 解析单条ContributionMade日志并记账
func (m *ContributionMonitor) handleLog(lg types.Log) {
	event := m.eventABI.Events["ContributionMade"]
	if len(lg.Topics) < 3 || lg.Topics[0] != event.ID {
		return
	}

	campaignId := new(big.Int).SetBytes(lg.Topics[1].Bytes()).Int64()
	contributor := common.BytesToAddress(lg.Topics[2].Bytes())

	values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil || len(values) == 0 {
		logger.Error("Failed to unpack contribution log %s: %v", lg.TxHash.Hex(), err)
		return
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		logger.Error("Unexpected amount type in contribution log %s", lg.TxHash.Hex())
		return
	}
	if !amount.IsInt64() {
		// 金额超出int64表示范围，截断会记错账，丢弃并留痕
		logger.Error("Contribution amount out of range in log %s: %s", lg.TxHash.Hex(), amount.String())
		return
	}

	record := model.ContributeRecordModel{
		CampaignId: campaignId,
		Amount:     amount.Int64(),
		Address:    strings.ToLower(contributor.Hex()),
		TxHash:     lg.TxHash.Hex(),
		BlockNum:   int64(lg.BlockNumber),
	}
	if err := m.contribute.Record(&record); err != nil {
		logger.Error("Failed to record contribution %s: %v", lg.TxHash.Hex(), err)
	}
}
