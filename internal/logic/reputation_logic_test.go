package logic

import (
	"encoding/json"
	"testing"

	"github.com/blues/mss/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBadges(t *testing.T) {
	tests := []struct {
		name    string
		profile model.CreatorProfileModel
		want    []string
	}{
		{
			name:    "zero stats",
			profile: model.CreatorProfileModel{},
			want:    []string{},
		},
		{
			name:    "first campaign",
			profile: model.CreatorProfileModel{CampaignsCreated: 1},
			want:    []string{model.BadgeFirstCampaign},
		},
		{
			name:    "serial creator",
			profile: model.CreatorProfileModel{CampaignsCreated: 5},
			want:    []string{model.BadgeFirstCampaign, model.BadgeSerialCreator},
		},
		{
			name:    "first success",
			profile: model.CreatorProfileModel{SuccessfulCampaigns: 1},
			want:    []string{model.BadgeFirstSuccess},
		},
		{
			name:    "milestone master",
			profile: model.CreatorProfileModel{CompletedMilestones: 10},
			want:    []string{model.BadgeMilestoneMaster},
		},
		{
			name:    "community favorite",
			profile: model.CreatorProfileModel{TotalContributors: 100},
			want:    []string{model.BadgeCommunityFavorite},
		},
		{
			name:    "big raiser",
			profile: model.CreatorProfileModel{TotalFundsRaised: 5e18},
			want:    []string{model.BadgeBigRaiser},
		},
		{
			name: "all at once",
			profile: model.CreatorProfileModel{
				CampaignsCreated:    6,
				SuccessfulCampaigns: 2,
				CompletedMilestones: 12,
				TotalContributors:   150,
				TotalFundsRaised:    6e18,
			},
			want: []string{
				model.BadgeFirstCampaign,
				model.BadgeSerialCreator,
				model.BadgeFirstSuccess,
				model.BadgeMilestoneMaster,
				model.BadgeCommunityFavorite,
				model.BadgeBigRaiser,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeBadges(&tt.profile))
		})
	}
}

func TestGetProfileLazyCreatesLowercase(t *testing.T) {
	env := newTestEnv(t)

	profile, err := env.reputation.GetProfile("0xABCDEF0000000000000000000000000000000099")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000099", profile.Address)
	assert.Equal(t, model.VerificationUnverified, profile.VerificationLevel)
	assert.Zero(t, profile.CampaignsCreated)
}

func TestStatMutationsRecomputeBadges(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.reputation.campaignCreated(testCreator))
	require.NoError(t, env.reputation.campaignSucceeded(testCreator))
	require.NoError(t, env.reputation.milestoneCompleted(testCreator))

	profile, err := env.reputation.GetProfile(testCreator)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.CampaignsCreated)
	assert.Equal(t, int64(1), profile.SuccessfulCampaigns)
	assert.Equal(t, int64(1), profile.CompletedMilestones)

	var badges []string
	require.NoError(t, json.Unmarshal([]byte(profile.Badges), &badges))
	assert.ElementsMatch(t, []string{model.BadgeFirstCampaign, model.BadgeFirstSuccess}, badges)
}

func TestContributionDeduplicatesContributors(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 1000, 0, []int64{1000})

	records := []model.ContributeRecordModel{
		{CampaignId: campaign.Id, Amount: 100, Address: "0xaa01", TxHash: "0xt1"},
		{CampaignId: campaign.Id, Amount: 200, Address: "0xaa01", TxHash: "0xt2"},
		{CampaignId: campaign.Id, Amount: 300, Address: "0xbb02", TxHash: "0xt3"},
	}
	for i := range records {
		require.NoError(t, env.db.Create(&records[i]).Error)
	}

	require.NoError(t, env.reputation.contribution(testCreator, 100))
	require.NoError(t, env.reputation.contribution(testCreator, 200))
	require.NoError(t, env.reputation.contribution(testCreator, 300))

	profile, err := env.reputation.GetProfile(testCreator)
	require.NoError(t, err)
	assert.Equal(t, int64(600), profile.TotalFundsRaised)
	// 同一地址多次贡献只计一个贡献者
	assert.Equal(t, int64(2), profile.TotalContributors)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)

	links := map[string]string{"twitter": "https://twitter.com/maker"}
	profile, err := env.reputation.UpdateProfile(testCreator, "Maker", "builds things", "https://img.example/1.png", links)
	require.NoError(t, err)
	assert.Equal(t, "Maker", profile.DisplayName)
	assert.Equal(t, "builds things", profile.Bio)
	assert.Equal(t, "https://img.example/1.png", profile.ProfileImageUrl)

	var stored map[string]string
	require.NoError(t, json.Unmarshal([]byte(profile.SocialLinks), &stored))
	assert.Equal(t, links, stored)

	// 空字段不覆盖已有值
	profile, err = env.reputation.UpdateProfile(testCreator, "", "new bio", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Maker", profile.DisplayName)
	assert.Equal(t, "new bio", profile.Bio)
}
