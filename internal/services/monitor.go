package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cavestore/orderbot/internal/logger"
	"github.com/cavestore/orderbot/internal/models"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// reminderWindow is how close to the deadline the one-shot reminder fires.
const reminderWindow = time.Hour

const DefaultMonitorInterval = 60 * time.Second

type monitorOrders interface {
	TrackedOrders(ctx context.Context) ([]models.Order, error)

	MarkReminderSent(ctx context.Context, orderID string) (bool, error)

	MarkOverdue(ctx context.Context, orderID string) (*models.Order, bool, error)
}

// MonitorService is the deadline watchdog: a single long-lived loop that
// scans all assigned, non-terminal orders every interval, reminds assignees
// shortly before expiry and escalates once the deadline passes. It must stay
// alive for the life of the process; cycle failures are logged and retried.
type MonitorService struct {
	orders          monitorOrders
	notifier        models.Notifier
	notifyChannelID string
	interval        time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitorService(orders monitorOrders, notifier models.Notifier, notifyChannelID string, interval time.Duration) *MonitorService {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}

	return &MonitorService{
		orders:          orders,
		notifier:        notifier,
		notifyChannelID: notifyChannelID,
		interval:        interval,
	}
}

// Start launches the monitoring loop. It returns immediately; the loop runs
// until Stop is called or the context is cancelled.
func (m *MonitorService) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go m.run(ctx)

	logger.Log.Info("deadline monitor started", zap.Duration("interval", m.interval))
}

// Stop cancels the loop and waits for the current cycle to finish.
func (m *MonitorService) Stop() {
	if m.cancel == nil {
		return
	}

	m.cancel()
	<-m.done

	logger.Log.Info("deadline monitor stopped")
}

func (m *MonitorService) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx, time.Now().UTC())
		}
	}
}

// runCycle scans the current store view once. A panic or error in one cycle
// never terminates the loop.
func (m *MonitorService) runCycle(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("monitor cycle panicked", zap.Any("panic", r))
		}
	}()

	orders, err := m.orders.TrackedOrders(ctx)
	if err != nil {
		logger.Log.Error("monitor failed to load orders", zap.Error(err))
		return
	}

	for i := range orders {
		if err := m.checkOrder(ctx, &orders[i], now); err != nil {
			logger.Log.Error("monitor failed to process order",
				zap.String("orderID", orders[i].ID),
				zap.Error(err),
			)
		}
	}
}

func (m *MonitorService) checkOrder(ctx context.Context, order *models.Order, now time.Time) error {
	timeLeft := order.Deadline.Sub(now)

	switch {
	case timeLeft > 0 && timeLeft <= reminderWindow && !order.ReminderSent:
		return m.remind(ctx, order, timeLeft)
	case timeLeft <= 0 && !order.Expired:
		return m.escalate(ctx, order)
	}

	return nil
}

func (m *MonitorService) remind(ctx context.Context, order *models.Order, timeLeft time.Duration) error {
	changed, err := m.orders.MarkReminderSent(ctx, order.ID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	minutesLeft := int(timeLeft.Minutes())
	text := fmt.Sprintf("⏰ Đơn `%s` còn %d phút! Hãy hoàn thành sớm!", order.ID, minutesLeft)

	if err := m.notifier.DirectMessage(ctx, *order.AssigneeID, text); err != nil {
		logger.Log.Warn("failed to deliver deadline reminder",
			zap.String("orderID", order.ID),
			zap.Int64("assigneeID", *order.AssigneeID),
			zap.Error(err),
		)
	}

	logger.Log.Info("deadline reminder sent",
		zap.String("orderID", order.ID),
		zap.Int("minutesLeft", minutesLeft),
	)

	return nil
}

func (m *MonitorService) escalate(ctx context.Context, order *models.Order) error {
	updated, changed, err := m.orders.MarkOverdue(ctx, order.ID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	// Both deliveries are best-effort and independent of each other and of
	// the state change already persisted above.
	var errs *multierror.Error

	if err := m.notifier.DirectMessage(ctx, *updated.AssigneeID, fmt.Sprintf("❗ ĐƠN `%s` ĐÃ QUÁ HẠN! Vui lòng hoàn thành ngay!", updated.ID)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("assignee %d: %w", *updated.AssigneeID, err))
	}

	if m.notifyChannelID != "" {
		broadcast := fmt.Sprintf(
			"⏰ **THÔNG BÁO QUÁ HẠN**\n> Người nhận: <@%d>\n> Mã đơn: `%s`\n> Khách hàng: <@%d>",
			*updated.AssigneeID, updated.ID, updated.CustomerID,
		)
		if err := m.notifier.Broadcast(ctx, m.notifyChannelID, broadcast); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("channel %s: %w", m.notifyChannelID, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		logger.Log.Warn("failed to deliver overdue notices", zap.String("orderID", updated.ID), zap.Error(err))
	}

	logger.Log.Info("order escalated as overdue", zap.String("orderID", updated.ID))

	return nil
}
