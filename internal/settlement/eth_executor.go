package settlement

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/config"
	"github.com/blues/mss/internal/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// 众筹合约ABI定义（仅资金释放部分）
const contractABI = `[
	{
		"inputs": [
			{"name": "campaignId", "type": "uint256"},
			{"name": "milestoneIndex", "type": "uint256"},
			{"name": "recipient", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "releaseFunds",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const releaseGasLimit = 300000

// EthExecutor 以太坊结算执行器
type EthExecutor struct {
	client       *ethclient.Client
	privateKey   *ecdsa.PrivateKey
	fromAddr     common.Address
	contractAddr common.Address
	contractABI  abi.ABI
	chainId      *big.Int
	maxRetries   uint64
	retryBase    time.Duration
}

// NewEthExecutor 创建以太坊结算执行器
func NewEthExecutor(chainCfg config.ChainConfig, settleCfg config.SettlementConfig) (*EthExecutor, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(chainCfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(chainCfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &EthExecutor{
		client:       client,
		privateKey:   privateKey,
		fromAddr:     crypto.PubkeyToAddress(privateKey.PublicKey),
		contractAddr: common.HexToAddress(chainCfg.ContractAddr),
		contractABI:  parsedABI,
		chainId:      big.NewInt(chainCfg.ChainId),
		maxRetries:   uint64(settleCfg.MaxRetries),
		retryBase:    time.Duration(settleCfg.RetryBaseSecs) * time.Second,
	}, nil
}

// Execute 执行释放指令，网络类错误按指数退避重试，耗尽后返回ErrSettlement
func (e *EthExecutor) Execute(ctx context.Context, instruction ReleaseInstruction) (*Receipt, error) {
	var receipt *Receipt

	operation := func() error {
		r, err := e.sendRelease(ctx, instruction)
		if err != nil {
			logger.Warn("Settlement attempt failed: campaign=%d milestone=%d err=%v",
				instruction.CampaignId, instruction.MilestoneId, err)
			return err
		}
		receipt = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.retryBase
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: campaign=%d milestone=%d: %v",
			apperr.ErrSettlement, instruction.CampaignId, instruction.MilestoneId, err)
	}
	return receipt, nil
}

// sendRelease 发送一次releaseFunds交易并等待上链
func (e *EthExecutor) sendRelease(ctx context.Context, instruction ReleaseInstruction) (*Receipt, error) {
	nonce, err := e.client.PendingNonceAt(ctx, e.fromAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	data, err := e.contractABI.Pack("releaseFunds",
		big.NewInt(instruction.CampaignId),
		big.NewInt(int64(instruction.MilestoneIdx)),
		common.HexToAddress(instruction.Recipient),
		big.NewInt(instruction.Amount),
	)
	if err != nil {
		// 编码失败不会因重试恢复
		return nil, backoff.Permanent(fmt.Errorf("failed to pack call data: %w", err))
	}

	tx := types.NewTransaction(nonce, e.contractAddr, big.NewInt(0), releaseGasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(e.chainId), e.privateKey)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to sign transaction: %w", err))
	}

	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	mined, err := bind.WaitMined(ctx, e.client, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction: %w", err)
	}
	if mined.Status != types.ReceiptStatusSuccessful {
		return nil, backoff.Permanent(fmt.Errorf("transaction reverted: %s", signedTx.Hash().Hex()))
	}

	logger.Info("Settlement mined: tx=%s block=%d campaign=%d milestone=%d",
		signedTx.Hash().Hex(), mined.BlockNumber.Int64(), instruction.CampaignId, instruction.MilestoneId)

	return &Receipt{
		TxHash:   signedTx.Hash().Hex(),
		BlockNum: mined.BlockNumber.Int64(),
	}, nil
}
