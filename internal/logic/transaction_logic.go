package logic

import (
	"context"

	"github.com/blues/cps/internal/model"
	"gorm.io/gorm"
)

// TransactionLogic 流水查询业务逻辑
type TransactionLogic struct {
	db *gorm.DB
}

// NewTransactionLogic 创建流水业务逻辑
func NewTransactionLogic(db *gorm.DB) *TransactionLogic {
	return &TransactionLogic{db: db}
}

// GetCreatorTransactions 发起人名下所有项目的流水
func (t *TransactionLogic) GetCreatorTransactions(ctx context.Context, creatorID uint, page, pageSize int) ([]model.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	query := t.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("campaign_id IN (?)",
			t.db.Model(&model.Campaign{}).Select("id").Where("creator_id = ?", creatorID))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, WrapError(KindInternal, err, "统计流水失败")
	}

	var transactions []model.Transaction
	offset := (page - 1) * pageSize
	if err := query.Preload("Pledge").
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, 0, WrapError(KindInternal, err, "查询流水失败")
	}

	return transactions, total, nil
}

// GetCreatorSettlement 发起人的结算汇总
func (t *TransactionLogic) GetCreatorSettlement(ctx context.Context, creatorID uint) (map[string]interface{}, error) {
	var stats struct {
		TotalGross float64
		TotalFees  float64
		TotalNet   float64
		Count      int64
	}

	base := t.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("campaign_id IN (?)",
			t.db.Model(&model.Campaign{}).Select("id").Where("creator_id = ?", creatorID)).
		Where("status = ?", model.TransactionStatusCompleted)

	if err := base.Session(&gorm.Session{}).Count(&stats.Count).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计流水失败")
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(gross_amount), 0)").Scan(&stats.TotalGross).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计毛额失败")
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(platform_fee + processing_fee), 0)").Scan(&stats.TotalFees).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计费用失败")
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(net_amount), 0)").Scan(&stats.TotalNet).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计净额失败")
	}

	return map[string]interface{}{
		"transaction_count": stats.Count,
		"total_gross":       stats.TotalGross,
		"total_fees":        stats.TotalFees,
		"total_net":         stats.TotalNet,
	}, nil
}
