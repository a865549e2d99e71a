package logic

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/blues/cps/internal/config"
	"github.com/blues/cps/internal/logger"
	"github.com/blues/cps/internal/model"
	"github.com/blues/cps/internal/notify"
	"github.com/blues/cps/internal/paypal"
	"gorm.io/gorm"
)

// PaymentProvider 支付渠道抽象，生产环境为 PayPal 客户端，测试里替换为假实现
type PaymentProvider interface {
	CreateOrder(ctx context.Context, pledgeID uint, amount float64, currency, description string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResult, error)
}

// PledgeLogic 支持/支付业务逻辑
type PledgeLogic struct {
	db       *gorm.DB
	provider PaymentProvider
	payment  config.PaymentConfig
	notifier *notify.Dispatcher
}

// NewPledgeLogic 创建支持业务逻辑
func NewPledgeLogic(db *gorm.DB, provider PaymentProvider, payment config.PaymentConfig, notifier *notify.Dispatcher) *PledgeLogic {
	return &PledgeLogic{
		db:       db,
		provider: provider,
		payment:  payment,
		notifier: notifier,
	}
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	OrderID     string `json:"orderID"`
	PledgeID    uint   `json:"pledgeId"`
	ApprovalURL string `json:"approvalUrl"`
}

// CreateOrder 校验支持请求并向支付渠道开单。
// 同一支持者在宽限期内重复下单会复用已有的待支付记录，只换一笔新订单
func (p *PledgeLogic) CreateOrder(ctx context.Context, backerID, campaignID uint, amount float64, rewardTierID *uint) (*CreateOrderResult, error) {
	// 1. 项目必须存在
	var campaign model.Campaign
	if err := p.db.WithContext(ctx).First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "项目不存在")
		}
		return nil, WrapError(KindInternal, err, "查询项目失败")
	}

	// 2. 项目必须处于进行中且未到截止时间
	now := time.Now()
	if campaign.Status != model.CampaignStatusActive {
		return nil, NewError(KindConflict, "项目当前不接受支持")
	}
	if now.After(campaign.EndTime) {
		return nil, NewError(KindConflict, "项目已结束")
	}

	// 3. 金额不得低于项目最低支持额
	if amount < campaign.MinimumPledge {
		return nil, NewError(KindValidation, "支持金额不得低于 %.2f", campaign.MinimumPledge)
	}

	// 4. 指定档位时校验归属、限量与金额门槛
	var tier *model.RewardTier
	if rewardTierID != nil {
		tier = &model.RewardTier{}
		if err := p.db.WithContext(ctx).First(tier, *rewardTierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewError(KindNotFound, "回报档位不存在")
			}
			return nil, WrapError(KindInternal, err, "查询回报档位失败")
		}
		if tier.CampaignID != campaign.ID {
			return nil, NewError(KindNotFound, "回报档位不属于该项目")
		}
		if tier.SoldOut() {
			return nil, NewError(KindConflict, "该档位已售罄")
		}
		if amount < tier.Amount {
			return nil, NewError(KindValidation, "该档位最低支持金额为 %.2f", tier.Amount)
		}
	}

	// 5/6. 重复支持检查：已确认的直接拒绝；
	// 待支付的按过期时间决定清理重建还是复用
	var existing model.Pledge
	err := p.db.WithContext(ctx).
		Where("campaign_id = ? AND backer_id = ? AND status IN ?",
			campaign.ID, backerID,
			[]model.PledgeStatus{model.PledgeStatusPending, model.PledgeStatusConfirmed}).
		First(&existing).Error
	switch {
	case err == nil && existing.Status == model.PledgeStatusConfirmed:
		return nil, NewError(KindConflict, "您已支持过该项目")

	case err == nil && now.Sub(existing.CreatedAt) > p.payment.PendingTTL():
		// 过期的待支付记录直接清掉，按全新支持处理
		if err := p.db.WithContext(ctx).Delete(&model.Pledge{}, existing.ID).Error; err != nil {
			return nil, WrapError(KindInternal, err, "清理过期支持记录失败")
		}
		logger.Info("Swept stale pending pledge %d for backer %d on campaign %d",
			existing.ID, backerID, campaign.ID)

	case err == nil:
		// 宽限期内复用同一条记录，金额和档位以最新请求为准
		return p.reuseOrder(ctx, &campaign, &existing, amount, rewardTierID)

	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, WrapError(KindInternal, err, "查询支持记录失败")
	}

	// 创建新的待支付记录
	pledge := model.Pledge{
		CampaignID:        campaign.ID,
		BackerID:          backerID,
		RewardTierID:      rewardTierID,
		Amount:            amount,
		Currency:          campaign.Currency,
		Status:            model.PledgeStatusPending,
		FulfillmentStatus: model.FulfillmentStatusPending,
	}
	if err := p.db.WithContext(ctx).Create(&pledge).Error; err != nil {
		return nil, WrapError(KindInternal, err, "创建支持记录失败")
	}

	order, err := p.provider.CreateOrder(ctx, pledge.ID, amount, pledge.Currency, campaign.Title)
	if err != nil {
		// 补偿：开单失败时删除刚插入的记录，避免挡住下一次尝试
		if delErr := p.db.WithContext(ctx).Delete(&model.Pledge{}, pledge.ID).Error; delErr != nil {
			logger.Error("Failed to roll back pledge %d after order creation failure: %v", pledge.ID, delErr)
		}
		return nil, WrapError(KindUpstream, err, "支付订单创建失败")
	}

	if err := p.db.WithContext(ctx).Model(&model.Pledge{}).
		Where("id = ?", pledge.ID).
		Update("pay_pal_order_id", order.ID).Error; err != nil {
		return nil, WrapError(KindInternal, err, "保存支付订单号失败")
	}

	return &CreateOrderResult{
		OrderID:     order.ID,
		PledgeID:    pledge.ID,
		ApprovalURL: order.ApprovalURL(),
	}, nil
}

// reuseOrder 复用宽限期内的待支付记录，开一笔新订单
func (p *PledgeLogic) reuseOrder(ctx context.Context, campaign *model.Campaign, pledge *model.Pledge, amount float64, rewardTierID *uint) (*CreateOrderResult, error) {
	order, err := p.provider.CreateOrder(ctx, pledge.ID, amount, pledge.Currency, campaign.Title)
	if err != nil {
		return nil, WrapError(KindUpstream, err, "支付订单创建失败")
	}

	if err := p.db.WithContext(ctx).Model(&model.Pledge{}).
		Where("id = ?", pledge.ID).
		Updates(map[string]interface{}{
			"amount":           amount,
			"reward_tier_id":   rewardTierID,
			"pay_pal_order_id": order.ID,
		}).Error; err != nil {
		return nil, WrapError(KindInternal, err, "更新支持记录失败")
	}

	logger.Info("Reused pending pledge %d for backer %d, new order %s",
		pledge.ID, pledge.BackerID, order.ID)

	return &CreateOrderResult{
		OrderID:     order.ID,
		PledgeID:    pledge.ID,
		ApprovalURL: order.ApprovalURL(),
	}, nil
}

// CaptureOrder 买家在渠道侧完成支付后，捕获订单并确认支持记录
func (p *PledgeLogic) CaptureOrder(ctx context.Context, backerID uint, orderID string, pledgeID uint) (*model.Pledge, *paypal.CaptureResult, error) {
	// 1. 记录必须属于调用者
	var pledge model.Pledge
	if err := p.db.WithContext(ctx).
		Where("id = ? AND backer_id = ?", pledgeID, backerID).
		First(&pledge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, NewError(KindNotFound, "支持记录不存在")
		}
		return nil, nil, WrapError(KindInternal, err, "查询支持记录失败")
	}

	// 2. 幂等保护：只有待支付状态可以捕获
	if pledge.Status != model.PledgeStatusPending {
		return nil, nil, NewError(KindConflict, "该支持记录已处理")
	}

	// 3. 渠道捕获，失败原样上抛，不做自动重试
	capture, err := p.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, nil, WrapError(KindUpstream, err, "支付捕获失败")
	}

	// 4. 金额核对
	if diff := math.Abs(capture.Amount - pledge.Amount); diff > p.payment.AmountTolerance {
		if p.payment.StrictAmountCheck {
			return nil, nil, NewError(KindConflict,
				"捕获金额 %.2f 与支持金额 %.2f 不符", capture.Amount, pledge.Amount)
		}
		logger.Warn("Capture amount mismatch on pledge %d: captured %.2f, expected %.2f",
			pledge.ID, capture.Amount, pledge.Amount)
	}

	// 5/6. 确认记录并认领档位名额，同一事务内完成
	now := time.Now()
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Pledge{}).
			Where("id = ? AND status = ?", pledge.ID, model.PledgeStatusPending).
			Updates(map[string]interface{}{
				"status":           model.PledgeStatusConfirmed,
				"pay_pal_order_id": orderID,
				"confirmed_at":     now,
			}).Error; err != nil {
			return WrapError(KindInternal, err, "更新支持记录失败")
		}

		if pledge.RewardTierID != nil {
			// 条件更新是防止限量档位超卖的唯一屏障：
			// 计数在数据库侧完成，应用层读改写会丢更新
			res := tx.Model(&model.RewardTier{}).
				Where("id = ? AND (quantity_limit IS NULL OR quantity_claimed < quantity_limit)",
					*pledge.RewardTierID).
				Update("quantity_claimed", gorm.Expr("quantity_claimed + 1"))
			if res.Error != nil {
				return WrapError(KindInternal, res.Error, "更新档位认领数失败")
			}
			if res.RowsAffected == 0 {
				return NewError(KindConflict, "该档位已售罄")
			}
		}

		if err := tx.Model(&model.Campaign{}).
			Where("id = ?", pledge.CampaignID).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("current_amount + ?", pledge.Amount),
				"backer_count":   gorm.Expr("backer_count + 1"),
			}).Error; err != nil {
			return WrapError(KindInternal, err, "更新项目筹款进度失败")
		}

		txn := p.buildTransaction(&pledge, capture)
		if err := tx.Create(txn).Error; err != nil {
			return WrapError(KindInternal, err, "写入流水记录失败")
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	pledge.Status = model.PledgeStatusConfirmed
	pledge.PayPalOrderID = orderID
	pledge.ConfirmedAt = &now

	// 7. 尽力而为的确认通知，失败不回滚
	if p.notifier != nil {
		var campaign model.Campaign
		title := ""
		if err := p.db.WithContext(ctx).Select("title").First(&campaign, pledge.CampaignID).Error; err == nil {
			title = campaign.Title
		}
		p.notifier.Dispatch(notify.Notification{
			Type:          notify.TypePledgeConfirmed,
			UserID:        pledge.BackerID,
			PledgeID:      pledge.ID,
			CampaignTitle: title,
			Amount:        pledge.Amount,
		})
	}

	return &pledge, capture, nil
}

// buildTransaction 按费率拆分捕获金额
func (p *PledgeLogic) buildTransaction(pledge *model.Pledge, capture *paypal.CaptureResult) *model.Transaction {
	gross := pledge.Amount
	platformFee := round2(gross * p.payment.PlatformFeeRate)
	processingFee := round2(gross*p.payment.ProcessingFeeRate + p.payment.ProcessingFeeFixed)
	return &model.Transaction{
		PledgeID:        pledge.ID,
		CampaignID:      pledge.CampaignID,
		GrossAmount:     gross,
		PlatformFee:     platformFee,
		ProcessingFee:   processingFee,
		NetAmount:       round2(gross - platformFee - processingFee),
		Currency:        pledge.Currency,
		PayPalCaptureID: capture.CaptureID,
		Status:          model.TransactionStatusCompleted,
	}
}

// CancelOrder 清理未完成支付的支持记录。
// 已确认的记录原样保留并返回成功（幂等取消）
func (p *PledgeLogic) CancelOrder(ctx context.Context, backerID, pledgeID uint) error {
	var pledge model.Pledge
	if err := p.db.WithContext(ctx).
		Where("id = ? AND backer_id = ?", pledgeID, backerID).
		First(&pledge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewError(KindNotFound, "支持记录不存在")
		}
		return WrapError(KindInternal, err, "查询支持记录失败")
	}

	if pledge.Status != model.PledgeStatusPending {
		return nil
	}

	// 待支付记录直接删除，释放重复支持检查的占位
	if err := p.db.WithContext(ctx).Delete(&model.Pledge{}, pledge.ID).Error; err != nil {
		return WrapError(KindInternal, err, "删除支持记录失败")
	}
	return nil
}

// UpdatePledgeInput 手工更新支持记录的请求
type UpdatePledgeInput struct {
	Status                *model.PledgeStatus      `json:"status"`
	FulfillmentStatus     *model.FulfillmentStatus `json:"fulfillmentStatus"`
	ShippingAddress       *string                  `json:"shippingAddress"`
	EstimatedDeliveryDate *time.Time               `json:"estimatedDeliveryDate"`
}

// UpdatePledge 角色受限的字段更新：
// 发起人可推进履约状态、改发货信息、人工确认；支持者只能取消自己的记录
func (p *PledgeLogic) UpdatePledge(ctx context.Context, callerID, pledgeID uint, input UpdatePledgeInput) (*model.Pledge, error) {
	var pledge model.Pledge
	if err := p.db.WithContext(ctx).Preload("Campaign").First(&pledge, pledgeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(KindNotFound, "支持记录不存在")
		}
		return nil, WrapError(KindInternal, err, "查询支持记录失败")
	}

	isBacker := callerID == pledge.BackerID
	isCreator := callerID == pledge.Campaign.CreatorID
	if !isBacker && !isCreator {
		return nil, NewError(KindForbidden, "无权操作该支持记录")
	}

	updates := map[string]interface{}{}
	now := time.Now()

	if input.Status != nil && *input.Status != pledge.Status {
		actor := model.PledgeActorBacker
		if isCreator {
			actor = model.PledgeActorCreator
		}
		if !pledge.Status.CanTransition(*input.Status, actor) {
			return nil, NewError(KindForbidden, "不允许将状态从 %s 变更为 %s", pledge.Status, *input.Status)
		}
		updates["status"] = *input.Status
		switch *input.Status {
		case model.PledgeStatusConfirmed:
			updates["confirmed_at"] = now
		case model.PledgeStatusCancelled:
			updates["cancelled_at"] = now
		}
	}

	if input.FulfillmentStatus != nil && *input.FulfillmentStatus != pledge.FulfillmentStatus {
		if !isCreator {
			return nil, NewError(KindForbidden, "只有项目发起人可以更新履约状态")
		}
		// 履约流程只在支付确认后启动
		effective := pledge.Status
		if s, ok := updates["status"].(model.PledgeStatus); ok {
			effective = s
		}
		if effective != model.PledgeStatusConfirmed {
			return nil, NewError(KindConflict, "支持记录尚未确认，不能更新履约状态")
		}
		if !pledge.FulfillmentStatus.CanTransitionTo(*input.FulfillmentStatus) {
			return nil, NewError(KindForbidden, "不允许将履约状态从 %s 变更为 %s",
				pledge.FulfillmentStatus, *input.FulfillmentStatus)
		}
		updates["fulfillment_status"] = *input.FulfillmentStatus
	}

	if input.ShippingAddress != nil {
		if !isCreator {
			return nil, NewError(KindForbidden, "只有项目发起人可以更新发货信息")
		}
		updates["shipping_address"] = *input.ShippingAddress
	}

	if input.EstimatedDeliveryDate != nil {
		if !isCreator {
			return nil, NewError(KindForbidden, "只有项目发起人可以更新发货信息")
		}
		updates["estimated_delivery_date"] = *input.EstimatedDeliveryDate
	}

	if len(updates) > 0 {
		if err := p.db.WithContext(ctx).Model(&pledge).Updates(updates).Error; err != nil {
			return nil, WrapError(KindInternal, err, "更新支持记录失败")
		}
	}

	if err := p.db.WithContext(ctx).Preload("Campaign").Preload("RewardTier").
		First(&pledge, pledgeID).Error; err != nil {
		return nil, WrapError(KindInternal, err, "查询支持记录失败")
	}
	return &pledge, nil
}

// GetBackerPledges 支持者的历史记录
func (p *PledgeLogic) GetBackerPledges(ctx context.Context, backerID uint, page, pageSize int) ([]model.Pledge, int64, error) {
	return p.listPledges(ctx, p.db.WithContext(ctx).Where("backer_id = ?", backerID), page, pageSize)
}

// GetCampaignPledges 项目下的支持记录，仅发起人可见
func (p *PledgeLogic) GetCampaignPledges(ctx context.Context, callerID, campaignID uint, page, pageSize int) ([]model.Pledge, int64, error) {
	var campaign model.Campaign
	if err := p.db.WithContext(ctx).First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, NewError(KindNotFound, "项目不存在")
		}
		return nil, 0, WrapError(KindInternal, err, "查询项目失败")
	}
	if campaign.CreatorID != callerID {
		return nil, 0, NewError(KindForbidden, "只有项目发起人可以查看支持记录")
	}
	return p.listPledges(ctx, p.db.WithContext(ctx).Where("campaign_id = ?", campaignID), page, pageSize)
}

// GetCreatorPledges 发起人名下所有项目的支持记录
func (p *PledgeLogic) GetCreatorPledges(ctx context.Context, creatorID uint, page, pageSize int) ([]model.Pledge, int64, error) {
	query := p.db.WithContext(ctx).
		Where("campaign_id IN (?)",
			p.db.Model(&model.Campaign{}).Select("id").Where("creator_id = ?", creatorID))
	return p.listPledges(ctx, query, page, pageSize)
}

func (p *PledgeLogic) listPledges(ctx context.Context, query *gorm.DB, page, pageSize int) ([]model.Pledge, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int64
	if err := query.Model(&model.Pledge{}).Count(&total).Error; err != nil {
		return nil, 0, WrapError(KindInternal, err, "统计支持记录失败")
	}

	var pledges []model.Pledge
	offset := (page - 1) * pageSize
	if err := query.Preload("Campaign").Preload("RewardTier").
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&pledges).Error; err != nil {
		return nil, 0, WrapError(KindInternal, err, "查询支持记录失败")
	}

	return pledges, total, nil
}

// GetBackerStats 支持者维度的聚合统计
func (p *PledgeLogic) GetBackerStats(ctx context.Context, backerID uint) (map[string]interface{}, error) {
	return p.pledgeStats(ctx, "backer_id = ?", backerID)
}

// GetCampaignStats 项目维度的聚合统计
func (p *PledgeLogic) GetCampaignStats(ctx context.Context, campaignID uint) (map[string]interface{}, error) {
	return p.pledgeStats(ctx, "campaign_id = ?", campaignID)
}

func (p *PledgeLogic) pledgeStats(ctx context.Context, cond string, arg interface{}) (map[string]interface{}, error) {
	var stats struct {
		TotalPledges    int64   `json:"total_pledges"`
		ConfirmedCount  int64   `json:"confirmed_count"`
		PendingCount    int64   `json:"pending_count"`
		ConfirmedAmount float64 `json:"confirmed_amount"`
	}

	base := p.db.WithContext(ctx).Model(&model.Pledge{}).Where(cond, arg)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalPledges).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计支持记录失败")
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", model.PledgeStatusConfirmed).
		Count(&stats.ConfirmedCount).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计已确认记录失败")
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", model.PledgeStatusPending).
		Count(&stats.PendingCount).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计待支付记录失败")
	}
	if err := base.Session(&gorm.Session{}).Where("status = ?", model.PledgeStatusConfirmed).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.ConfirmedAmount).Error; err != nil {
		return nil, WrapError(KindInternal, err, "统计已确认金额失败")
	}

	return map[string]interface{}{
		"total_pledges":    stats.TotalPledges,
		"confirmed_count":  stats.ConfirmedCount,
		"pending_count":    stats.PendingCount,
		"confirmed_amount": stats.ConfirmedAmount,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
