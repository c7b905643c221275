package monitor

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/blues/mss/internal/logic"
	"github.com/blues/mss/internal/model"
	"github.com/blues/mss/internal/repository"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func testMonitor(t *testing.T) (*ContributionMonitor, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
		NamingStrategy: &schema.NamingStrategy{SingularTable: true},
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))

	reputation := logic.NewReputationLogic(db)
	t.Cleanup(reputation.Release)

	eventABI, err := abi.JSON(strings.NewReader(contributionABI))
	require.NoError(t, err)

	return &ContributionMonitor{
		contribute: logic.NewContributeLogic(db, reputation),
		eventABI:   eventABI,
	}, db
}

func seedActiveCampaign(t *testing.T, db *gorm.DB, goal int64) *model.CampaignModel {
	t.Helper()
	campaign := &model.CampaignModel{
		Title:          "on-chain campaign",
		CreatorAddress: "0xabc0000000000000000000000000000000000001",
		GoalAmount:     goal,
		Deadline:       time.Now().AddDate(0, 0, 30),
		DurationDays:   30,
		IsActive:       true,
		Status:         string(model.CampaignStatusActive),
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

func contributionLog(t *testing.T, m *ContributionMonitor, campaignId int64,
	contributor common.Address, amount *big.Int, txHash string) types.Log {
	t.Helper()
	event := m.eventABI.Events["ContributionMade"]
	data, err := event.Inputs.NonIndexed().Pack(amount)
	require.NoError(t, err)

	return types.Log{
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(big.NewInt(campaignId)),
			common.BytesToHash(contributor.Bytes()),
		},
		Data:        data,
		TxHash:      common.HexToHash(txHash),
		BlockNumber: 12,
	}
}

func TestHandleLogRecordsContribution(t *testing.T) {
	m, db := testMonitor(t)
	campaign := seedActiveCampaign(t, db, 1_000_000)

	contributor := common.HexToAddress("0xDD00000000000000000000000000000000000002")
	m.handleLog(contributionLog(t, m, campaign.Id, contributor, big.NewInt(5000), "0xaa01"))

	var record model.ContributeRecordModel
	require.NoError(t, db.Where("campaign_id = ?", campaign.Id).First(&record).Error)
	assert.Equal(t, int64(5000), record.Amount)
	assert.Equal(t, strings.ToLower(contributor.Hex()), record.Address)
	assert.Equal(t, int64(12), record.BlockNum)

	var reloaded model.CampaignModel
	require.NoError(t, db.First(&reloaded, campaign.Id).Error)
	assert.Equal(t, int64(5000), reloaded.TotalFunded)
}

// 超出int64表示范围的金额整条丢弃，不截断入账
func TestHandleLogSkipsOversizedAmount(t *testing.T) {
	m, db := testMonitor(t)
	campaign := seedActiveCampaign(t, db, 1_000_000)

	oversized := new(big.Int).Lsh(big.NewInt(1), 70)
	contributor := common.HexToAddress("0xDD00000000000000000000000000000000000002")
	m.handleLog(contributionLog(t, m, campaign.Id, contributor, oversized, "0xaa02"))

	var count int64
	require.NoError(t, db.Model(&model.ContributeRecordModel{}).Count(&count).Error)
	assert.Zero(t, count)

	var reloaded model.CampaignModel
	require.NoError(t, db.First(&reloaded, campaign.Id).Error)
	assert.Zero(t, reloaded.TotalFunded)
}

func TestHandleLogIgnoresForeignEvents(t *testing.T) {
	m, db := testMonitor(t)
	campaign := seedActiveCampaign(t, db, 1_000_000)

	lg := contributionLog(t, m, campaign.Id,
		common.HexToAddress("0xDD00000000000000000000000000000000000002"), big.NewInt(100), "0xaa03")
	lg.Topics[0] = common.HexToHash("0x01")
	m.handleLog(lg)

	var count int64
	require.NoError(t, db.Model(&model.ContributeRecordModel{}).Count(&count).Error)
	assert.Zero(t, count)
}
