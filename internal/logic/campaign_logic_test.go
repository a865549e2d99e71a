package logic

import (
	"context"
	"testing"
	"time"

	"github.com/blues/cps/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCampaignInput() CreateCampaignInput {
	return CreateCampaignInput{
		Title:         "开源硬件键盘",
		Description:   "一把可以自己焊的键盘",
		GoalAmount:    5000,
		MinimumPledge: 10,
		StartTime:     time.Now().Add(time.Hour),
		EndTime:       time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestCreateCampaign(t *testing.T) {
	db := newTestDB(t)
	logic := NewCampaignLogic(db)
	creator := seedUser(t, db, "creator@test.com")

	campaign, err := logic.CreateCampaign(context.Background(), creator.ID, validCampaignInput())
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusDraft, campaign.Status)
	assert.Equal(t, model.FundingTypeAllOrNothing, campaign.FundingType)
	assert.Equal(t, "USD", campaign.Currency)
	assert.Equal(t, creator.ID, campaign.CreatorID)
}

func TestCreateCampaignValidation(t *testing.T) {
	db := newTestDB(t)
	logic := NewCampaignLogic(db)
	creator := seedUser(t, db, "creator@test.com")

	input := validCampaignInput()
	input.EndTime = input.StartTime.Add(-time.Hour)
	_, err := logic.CreateCampaign(context.Background(), creator.ID, input)
	require.Equal(t, KindValidation, KindOf(err))

	input = validCampaignInput()
	input.CategoryID = 999
	_, err = logic.CreateCampaign(context.Background(), creator.ID, input)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestCampaignLifecycle(t *testing.T) {
	db := newTestDB(t)
	logic := NewCampaignLogic(db)
	creator := seedUser(t, db, "creator@test.com")
	other := seedUser(t, db, "other@test.com")

	campaign, err := logic.CreateCampaign(context.Background(), creator.ID, validCampaignInput())
	require.NoError(t, err)

	// 非发起人不能提交
	_, err = logic.SubmitCampaign(context.Background(), other.ID, campaign.ID)
	require.Equal(t, KindForbidden, KindOf(err))

	submitted, err := logic.SubmitCampaign(context.Background(), creator.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusPending, submitted.Status)

	// 重复提交被转移表拒绝
	_, err = logic.SubmitCampaign(context.Background(), creator.ID, campaign.ID)
	require.Equal(t, KindConflict, KindOf(err))

	cancelled, err := logic.CancelCampaign(context.Background(), creator.ID, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusCancelled, cancelled.Status)

	// 取消后不能再提交
	_, err = logic.SubmitCampaign(context.Background(), creator.ID, campaign.ID)
	require.Equal(t, KindConflict, KindOf(err))
}

func TestUpdateCampaign(t *testing.T) {
	db := newTestDB(t)
	logic := NewCampaignLogic(db)
	creator := seedUser(t, db, "creator@test.com")

	campaign, err := logic.CreateCampaign(context.Background(), creator.ID, validCampaignInput())
	require.NoError(t, err)

	title := "开源硬件键盘 v2"
	minimum := 20.0
	updated, err := logic.UpdateCampaign(context.Background(), creator.ID, campaign.ID,
		UpdateCampaignInput{Title: &title, MinimumPledge: &minimum})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, minimum, updated.MinimumPledge)

	bad := -1.0
	_, err = logic.UpdateCampaign(context.Background(), creator.ID, campaign.ID,
		UpdateCampaignInput{MinimumPledge: &bad})
	require.Equal(t, KindValidation, KindOf(err))

	early := campaign.StartTime.Add(-time.Hour)
	_, err = logic.UpdateCampaign(context.Background(), creator.ID, campaign.ID,
		UpdateCampaignInput{EndTime: &early})
	require.Equal(t, KindValidation, KindOf(err))
}

func TestListCampaignsFilter(t *testing.T) {
	db := newTestDB(t)
	logic := NewCampaignLogic(db)
	alice := seedUser(t, db, "alice@test.com")
	bob := seedUser(t, db, "bob@test.com")

	seedCampaign(t, db, alice.ID, model.CampaignStatusActive)
	seedCampaign(t, db, alice.ID, model.CampaignStatusDraft)
	seedCampaign(t, db, bob.ID, model.CampaignStatusActive)

	all, total, err := logic.ListCampaigns(context.Background(), CampaignFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	active, total, err := logic.ListCampaigns(context.Background(),
		CampaignFilter{Status: model.CampaignStatusActive}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, active, 2)

	mine, total, err := logic.ListCampaigns(context.Background(),
		CampaignFilter{CreatorID: alice.ID}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)
}

func TestCampaignFundingStats(t *testing.T) {
	db := newTestDB(t)
	logic := NewCampaignLogic(db)
	creator := seedUser(t, db, "creator@test.com")
	campaign := seedCampaign(t, db, creator.ID, model.CampaignStatusActive)

	require.NoError(t, db.Model(campaign).Updates(map[string]interface{}{
		"current_amount": 250.0,
		"backer_count":   5,
	}).Error)

	stats, err := logic.GetCampaignStats(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, stats["progress"], 0.001)
	assert.EqualValues(t, 5, stats["backer_count"])
	assert.Equal(t, model.CampaignStatusActive, stats["status"])
}
