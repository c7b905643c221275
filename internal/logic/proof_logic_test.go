package logic

import (
	"testing"

	"github.com/blues/mss/internal/apperr"
	"github.com/blues/mss/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequiresEvidence(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 0, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSubmitUnknownMilestone(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 0, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 5, "ipfs://evidence")
	assert.ErrorIs(t, err, apperr.ErrUnknownMilestone)
}

func TestSubmitMarksMilestoneUnderReview(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 0, []int64{40, 60})

	proof, err := env.proofs.Submit(campaign.Id, 0, "ipfs://evidence")
	require.NoError(t, err)
	assert.Equal(t, model.ProofStatusPending, proof.Status)

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusUnderReview, milestone.Status)
}

func TestSubmitDuplicateWhilePending(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 0, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://v1")
	require.NoError(t, err)

	_, err = env.proofs.Submit(campaign.Id, 0, "ipfs://v2")
	assert.ErrorIs(t, err, apperr.ErrDuplicateSubmission)
}

func TestResubmitAfterReject(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://v1")
	require.NoError(t, err)

	proof, _, err := env.proofs.Review(campaign.Id, 0, DecisionReject, "0xreviewer")
	require.NoError(t, err)
	assert.Equal(t, model.ProofStatusRejected, proof.Status)

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusRejected, milestone.Status)

	// 驳回后允许重新提交，覆盖原记录而非追加
	resubmitted, err := env.proofs.Submit(campaign.Id, 0, "ipfs://v2")
	require.NoError(t, err)
	assert.Equal(t, model.ProofStatusPending, resubmitted.Status)

	proofs, err := env.proofs.List(campaign.Id)
	require.NoError(t, err)
	assert.Len(t, proofs, 1)
	assert.Equal(t, "ipfs://v2", proofs[0].EvidenceRef)
}

func TestReviewValidatesDecision(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 0, []int64{40, 60})

	_, _, err := env.proofs.Review(campaign.Id, 0, "maybe", "0xreviewer")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReviewWithoutProof(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 0, []int64{40, 60})

	_, _, err := env.proofs.Review(campaign.Id, 0, DecisionConfirm, "0xreviewer")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReviewRejectsNonPendingProof(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://v1")
	require.NoError(t, err)
	_, _, err = env.proofs.Review(campaign.Id, 0, DecisionConfirm, "0xreviewer")
	require.NoError(t, err)

	_, _, err = env.proofs.Review(campaign.Id, 0, DecisionConfirm, "0xreviewer")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

// 完整生命周期：逐个确认两档里程碑，可释放金额依次为40和100，
// 重复授权第一档报AlreadyReleased
func TestConfirmFlowReleasesTranches(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://m0")
	require.NoError(t, err)
	proof, deferred, err := env.proofs.Review(campaign.Id, 0, DecisionConfirm, "0xreviewer")
	require.NoError(t, err)
	assert.Equal(t, model.ProofStatusConfirmed, proof.Status)
	assert.False(t, deferred)

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, milestone.Status)
	require.NotNil(t, milestone.ProofId)
	assert.Equal(t, proof.Id, *milestone.ProofId)

	releasable, err := env.release.ComputeReleasable(campaign.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(40), releasable)

	_, err = env.proofs.Submit(campaign.Id, 1, "ipfs://m1")
	require.NoError(t, err)
	_, deferred, err = env.proofs.Review(campaign.Id, 1, DecisionConfirm, "0xreviewer")
	require.NoError(t, err)
	assert.False(t, deferred)

	releasable, err = env.release.ComputeReleasable(campaign.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), releasable)

	// 确认时已在事务内授权，重复授权被释放台账拒绝
	milestone, err = env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	_, err = env.release.AuthorizeRelease(campaign.Id, milestone)
	assert.ErrorIs(t, err, apperr.ErrAlreadyReleased)

	pending, err := env.release.PendingReleases(10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

// 资金未达累计目标时确认仍生效，释放推迟
func TestConfirmBelowFundingDefersRelease(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 30, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://m0")
	require.NoError(t, err)
	proof, deferred, err := env.proofs.Review(campaign.Id, 0, DecisionConfirm, "0xreviewer")
	require.NoError(t, err)
	assert.Equal(t, model.ProofStatusConfirmed, proof.Status)
	assert.True(t, deferred)

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, milestone.Status)

	// 无释放记录，可释放额以已筹金额封顶
	pending, err := env.release.PendingReleases(10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	releasable, err := env.release.ComputeReleasable(campaign.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(30), releasable)

	_, err = env.release.AuthorizeRelease(campaign.Id, milestone)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)
}

func TestForceSetStatusDoesNotAuthorizeRelease(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://m0")
	require.NoError(t, err)

	_, err = env.proofs.ForceSetStatus(campaign.Id, 0, "sideways", "0xoperator")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	proof, err := env.proofs.ForceSetStatus(campaign.Id, 0, model.ProofStatusConfirmed, "0xoperator")
	require.NoError(t, err)
	assert.Equal(t, model.ProofStatusConfirmed, proof.Status)

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, milestone.Status)

	pending, err := env.release.PendingReleases(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// 管理端删除已确认的证明后，里程碑保持completed，重新提交被拒绝
func TestResubmitBlockedOnCompletedMilestone(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 100, []int64{40, 60})

	_, err := env.proofs.Submit(campaign.Id, 0, "ipfs://m0")
	require.NoError(t, err)
	_, _, err = env.proofs.Review(campaign.Id, 0, DecisionConfirm, "0xreviewer")
	require.NoError(t, err)

	require.NoError(t, env.proofs.Remove(campaign.Id, 0, "0xoperator"))

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, milestone.Status)

	_, err = env.proofs.Submit(campaign.Id, 0, "ipfs://m0-again")
	assert.ErrorIs(t, err, apperr.ErrAlreadyCompleted)

	// 事务回滚，被拒的提交不留痕
	proofs, err := env.proofs.List(campaign.Id)
	require.NoError(t, err)
	assert.Empty(t, proofs)
}

func TestRemoveReopensMilestone(t *testing.T) {
	env := newTestEnv(t)
	campaign := seedCampaign(t, env, 100, 0, []int64{40, 60})

	err := env.proofs.Remove(campaign.Id, 0, "0xoperator")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.proofs.Submit(campaign.Id, 0, "ipfs://m0")
	require.NoError(t, err)

	require.NoError(t, env.proofs.Remove(campaign.Id, 0, "0xoperator"))

	milestone, err := env.milestones.ResolveByIdx(nil, campaign.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusOpen, milestone.Status)
	assert.Nil(t, milestone.ProofId)

	proofs, err := env.proofs.List(campaign.Id)
	require.NoError(t, err)
	assert.Empty(t, proofs)
}
