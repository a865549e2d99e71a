package notify

import (
	"context"
	"time"

	"github.com/blues/cps/internal/logger"
	"github.com/panjf2000/ants/v2"
)

// Notification 通知内容
type Notification struct {
	Type          string  // 通知类型
	UserID        uint    // 接收用户
	PledgeID      uint    // 关联支持记录
	CampaignTitle string  // 项目标题
	Amount        float64 // 金额
}

const (
	// TypePledgeConfirmed 支持确认成功
	TypePledgeConfirmed = "pledge_confirmed"
)

// Sender 实际发送通道（邮件、站内信等）
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender 默认实现，只写日志
type LogSender struct{}

func (LogSender) Send(_ context.Context, n Notification) error {
	logger.Info("Notification [%s] to user %d: pledge %d on %q, amount %.2f",
		n.Type, n.UserID, n.PledgeID, n.CampaignTitle, n.Amount)
	return nil
}

// Dispatcher 通知派发器，协程池异步发送。
// 通知是尽力而为的：发送失败只记日志，绝不影响业务主流程
type Dispatcher struct {
	pool   *ants.Pool
	sender Sender
}

// NewDispatcher 创建通知派发器
func NewDispatcher(poolSize int, sender Sender) (*Dispatcher, error) {
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool, sender: sender}, nil
}

// Dispatch 异步派发一条通知
func (d *Dispatcher) Dispatch(n Notification) {
	err := d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.sender.Send(ctx, n); err != nil {
			logger.Warn("Failed to send notification [%s] to user %d: %v", n.Type, n.UserID, err)
		}
	})
	if err != nil {
		logger.Warn("Notification pool rejected task [%s] for user %d: %v", n.Type, n.UserID, err)
	}
}

// Close 关闭协程池
func (d *Dispatcher) Close() {
	d.pool.Release()
}
