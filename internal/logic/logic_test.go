package logic

import (
	"testing"
	"time"

	"github.com/blues/mss/internal/model"
	"github.com/blues/mss/internal/repository"
	"github.com/blues/mss/internal/store"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const testCreator = "0xabc0000000000000000000000000000000000001"

type testEnv struct {
	db         *gorm.DB
	store      *store.ProofStore
	milestones *MilestoneLogic
	release    *ReleaseLogic
	reputation *ReputationLogic
	proofs     *ProofLogic
	campaigns  *CampaignLogic
	contribute *ContributeLogic
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
		NamingStrategy: &schema.NamingStrategy{SingularTable: true},
	})
	require.NoError(t, err)

	// 内存库按连接隔离，限制为单连接保证所有会话看到同一份数据
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.AutoMigrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)

	proofStore := store.NewProofStore(db)
	milestones := NewMilestoneLogic(db)
	release := NewReleaseLogic(db)
	reputation := NewReputationLogic(db)
	t.Cleanup(reputation.Release)

	return &testEnv{
		db:         db,
		store:      proofStore,
		milestones: milestones,
		release:    release,
		reputation: reputation,
		proofs:     NewProofLogic(db, proofStore, milestones, release, reputation, nil),
		campaigns:  NewCampaignLogic(db, reputation),
		contribute: NewContributeLogic(db, reputation),
	}
}

// seedCampaign 创建带里程碑序列的活动，并直接写入已筹金额
func seedCampaign(t *testing.T, env *testEnv, goal, funded int64, targets []int64) *model.CampaignModel {
	t.Helper()

	inputs := make([]MilestoneInput, len(targets))
	for i, target := range targets {
		inputs[i] = MilestoneInput{
			Name:         "milestone",
			TargetAmount: target,
		}
	}

	campaign := &model.CampaignModel{
		Title:          "test campaign",
		CreatorAddress: testCreator,
		GoalAmount:     goal,
		DurationDays:   30,
	}
	require.NoError(t, env.campaigns.CreateCampaign(campaign, inputs))

	if funded > 0 {
		require.NoError(t, env.db.Model(campaign).Update("total_funded", funded).Error)
		campaign.TotalFunded = funded
	}
	return campaign
}

// completeMilestone 直接把里程碑置为已完成（绕过证明流程的测试前置）
func completeMilestone(t *testing.T, env *testEnv, campaignId int64, idx int) *model.MilestoneModel {
	t.Helper()

	milestone, err := env.milestones.ResolveByIdx(nil, campaignId, idx)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, env.db.Model(milestone).Updates(map[string]interface{}{
		"status":       model.MilestoneStatusCompleted,
		"completed_at": &now,
	}).Error)
	milestone.Status = model.MilestoneStatusCompleted
	return milestone
}
