package logic

import (
	"errors"
	"sync"
	"testing"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/model"
	"github.com/blues/mss/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReleasableUnknownCampaign(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.release.ComputeReleasable(404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestComputeReleasableCapsAtTotalFunded(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 25, []int64{40, 60})
	completeMilestone(t, env, campaign.Id, 0)

	releasable, err := env.release.ComputeReleasable(campaign.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(25), releasable)
}

func TestAuthorizeReleaseRequiresCompletedMilestone(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)

	_, err = env.release.AuthorizeRelease(campaign.Id, milestone)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestAuthorizeReleaseCumulativeThreshold(t *testing.T) {
	env := newTestEnv(t)
	// 第二档的累计目标为100，只筹到60时不可释放
	campaign := seedCampaign(t, env, 100, 60, []int64{40, 60})
	milestone := completeMilestone(t, env, campaign.Id, 1)

	_, err := env.release.AuthorizeRelease(campaign.Id, milestone)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
}

func TestConcurrentAuthorizeSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})
	milestone := completeMilestone(t, env, campaign.Id, 0)

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.release.AuthorizeRelease(campaign.Id, milestone)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, errors.Is(err, apperr.ErrAlreadyReleased), "unexpected error: %v", err)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	var count int64
	require.NoError(t, env.db.Model(&model.ReleaseRecordModel{}).
		Where("campaign_id = ?", campaign.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMarkSettledStampsTxHash(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://m0")
	require.NoError(t, err)
	_, _, err = env.proofs.Review(campaign.Id, 0, DecisionConfirm, "0xreviewer")
	require.NoError(t, err)

	pending, err := env.release.PendingReleases(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	receipt := &settlement.Receipt{TxHash: "0xdeadbeef", BlockNum: 42}
	require.NoError(t, env.release.MarkSettled(pending[0].Id, receipt))

	var record model.ReleaseRecordModel
	require.NoError(t, env.db.First(&record, pending[0].Id).Error)
	assert.Equal(t, model.ReleaseStatusSettled, record.Status)
	assert.Equal(t, "0xdeadbeef", record.TxHash)
	assert.Equal(t, int64(42), record.BlockNum)
	assert.NotNil(t, record.SettledAt)

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	proof, err := env.store.GetByKey(campaign.Id, milestone.Id)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", proof.TxHash)

	// 结算后该档位不再计入可释放额
	releasable, err := env.release.ComputeReleasable(campaign.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), releasable)
}

func TestMarkAttemptFailedExhaustsRetries(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})
	milestone := completeMilestone(t, env, campaign.Id, 0)

	_, err := env.release.AuthorizeRelease(campaign.Id, milestone)
	require.NoError(t, err)

	pending, err := env.release.PendingReleases(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	recordId := pending[0].Id

	attemptErr := errors.New("rpc unavailable")
	require.NoError(t, env.release.MarkAttemptFailed(recordId, attemptErr, 3))
	require.NoError(t, env.release.MarkAttemptFailed(recordId, attemptErr, 3))

	var record model.ReleaseRecordModel
	require.NoError(t, env.db.First(&record, recordId).Error)
	assert.Equal(t, model.ReleaseStatusPending, record.Status)
	assert.Equal(t, 2, record.Attempts)
	assert.Equal(t, "rpc unavailable", record.LastError)

	require.NoError(t, env.release.MarkAttemptFailed(recordId, attemptErr, 3))

	require.NoError(t, env.db.First(&record, recordId).Error)
	assert.Equal(t, model.ReleaseStatusFailed, record.Status)
	assert.Equal(t, 3, record.Attempts)

	pending, err = env.release.PendingReleases(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
