package scheduler

import (
	"time"

	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// CampaignStatusJob 项目状态更新任务：
// 到达开始时间的项目进入进行中，到达截止时间的按筹款模式结算状态
type CampaignStatusJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewCampaignStatusJob 创建项目状态更新任务
func NewCampaignStatusJob(db *gorm.DB, cfg *config.Config) *CampaignStatusJob {
	return &CampaignStatusJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *CampaignStatusJob) GetName() string {
	return "campaign_status_updater"
}

// GetSchedule 获取调度配置
func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignStatusJob) Execute() {
	logger.Debug("Starting campaign status update task")

	now := time.Now()

	var campaigns []model.Campaign
	err := j.db.Where("status IN ?", []model.CampaignStatus{
		model.CampaignStatusPending,
		model.CampaignStatusActive,
	}).Find(&campaigns).Error

	if err != nil {
		logger.Error("Failed to fetch campaigns: %v", err)
		return
	}

	updatedCount := 0

	for _, campaign := range campaigns {
		var newStatus model.CampaignStatus
		shouldUpdate := false

		switch campaign.Status {
		case model.CampaignStatusPending:
			// 检查是否到了开始时间
			if now.After(campaign.StartTime) {
				newStatus = model.CampaignStatusActive
				shouldUpdate = true
			}

		case model.CampaignStatusActive:
			// 项目一直跑到截止时间，按筹款模式决定最终状态
			if now.After(campaign.EndTime) {
				newStatus = j.settle(&campaign)
				shouldUpdate = true
			}
		}

		if shouldUpdate {
			if err := j.db.Model(&campaign).Update("status", newStatus).Error; err != nil {
				logger.Error("Failed to update campaign %d status: %v", campaign.ID, err)
				continue
			}

			logger.Info("Updated campaign %d status from %s to %s",
				campaign.ID, campaign.Status, newStatus)
			updatedCount++
		}
	}

	if updatedCount > 0 {
		logger.Info("Campaign status update completed. Updated %d campaigns", updatedCount)
	}
}

// settle 截止后的终态：全有全无模式未达标记为失败，灵活模式一律完成
func (j *CampaignStatusJob) settle(campaign *model.Campaign) model.CampaignStatus {
	if campaign.FundingType == model.FundingTypeAllOrNothing &&
		campaign.CurrentAmount < campaign.GoalAmount {
		return model.CampaignStatusFailed
	}
	return model.CampaignStatusCompleted
}
