package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPledgeStatusTransitions(t *testing.T) {
	// 发起人：人工确认与退款
	assert.True(t, PledgeStatusPending.CanTransition(PledgeStatusConfirmed, PledgeActorCreator))
	assert.True(t, PledgeStatusConfirmed.CanTransition(PledgeStatusRefunded, PledgeActorCreator))

	// 支持者：只能取消未支付的记录
	assert.True(t, PledgeStatusPending.CanTransition(PledgeStatusCancelled, PledgeActorBacker))
	assert.False(t, PledgeStatusPending.CanTransition(PledgeStatusConfirmed, PledgeActorBacker))
	assert.False(t, PledgeStatusConfirmed.CanTransition(PledgeStatusRefunded, PledgeActorBacker))
	assert.False(t, PledgeStatusConfirmed.CanTransition(PledgeStatusCancelled, PledgeActorBacker))

	// 终态不可再转移
	assert.False(t, PledgeStatusCancelled.CanTransition(PledgeStatusPending, PledgeActorBacker))
	assert.False(t, PledgeStatusRefunded.CanTransition(PledgeStatusConfirmed, PledgeActorCreator))
}

func TestFulfillmentTransitions(t *testing.T) {
	assert.True(t, FulfillmentStatusPending.CanTransitionTo(FulfillmentStatusProcessing))
	assert.True(t, FulfillmentStatusProcessing.CanTransitionTo(FulfillmentStatusShipped))
	assert.True(t, FulfillmentStatusShipped.CanTransitionTo(FulfillmentStatusDelivered))

	// 不允许跳步
	assert.False(t, FulfillmentStatusPending.CanTransitionTo(FulfillmentStatusShipped))
	assert.False(t, FulfillmentStatusProcessing.CanTransitionTo(FulfillmentStatusDelivered))

	// 延期可以恢复
	assert.True(t, FulfillmentStatusProcessing.CanTransitionTo(FulfillmentStatusDelayed))
	assert.True(t, FulfillmentStatusDelayed.CanTransitionTo(FulfillmentStatusShipped))

	// 退款从任意非退款状态可达，且为终态
	assert.True(t, FulfillmentStatusPending.CanTransitionTo(FulfillmentStatusRefunded))
	assert.True(t, FulfillmentStatusDelivered.CanTransitionTo(FulfillmentStatusRefunded))
	assert.False(t, FulfillmentStatusRefunded.CanTransitionTo(FulfillmentStatusRefunded))
	assert.False(t, FulfillmentStatusRefunded.CanTransitionTo(FulfillmentStatusPending))
}

func TestCampaignStatusTransitions(t *testing.T) {
	assert.True(t, CampaignStatusDraft.CanTransitionTo(CampaignStatusPending))
	assert.True(t, CampaignStatusPending.CanTransitionTo(CampaignStatusActive))
	assert.True(t, CampaignStatusActive.CanTransitionTo(CampaignStatusCompleted))
	assert.True(t, CampaignStatusActive.CanTransitionTo(CampaignStatusFailed))
	assert.True(t, CampaignStatusActive.CanTransitionTo(CampaignStatusCancelled))

	assert.False(t, CampaignStatusDraft.CanTransitionTo(CampaignStatusActive))
	assert.False(t, CampaignStatusCompleted.CanTransitionTo(CampaignStatusActive))
	assert.False(t, CampaignStatusCancelled.CanTransitionTo(CampaignStatusPending))
}

func TestCampaignAcceptsPledges(t *testing.T) {
	now := time.Now()
	campaign := &Campaign{
		Status:  CampaignStatusActive,
		EndTime: now.Add(time.Hour),
	}
	assert.True(t, campaign.AcceptsPledges(now))

	campaign.EndTime = now.Add(-time.Minute)
	assert.False(t, campaign.AcceptsPledges(now))

	campaign.EndTime = now.Add(time.Hour)
	campaign.Status = CampaignStatusDraft
	assert.False(t, campaign.AcceptsPledges(now))
}

func TestRewardTierSoldOut(t *testing.T) {
	unlimited := &RewardTier{QuantityClaimed: 100}
	assert.False(t, unlimited.SoldOut())

	limit := 5
	tier := &RewardTier{QuantityLimit: &limit, QuantityClaimed: 4}
	assert.False(t, tier.SoldOut())

	tier.QuantityClaimed = 5
	assert.True(t, tier.SoldOut())
}
