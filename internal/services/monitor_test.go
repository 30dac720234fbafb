package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cavestore/orderbot/internal/models"
	mock_models "github.com/cavestore/orderbot/internal/models/mocks"
	"github.com/cavestore/orderbot/internal/storage"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTrackedOrder(t *testing.T, store *storage.MemoryStore, id string, deadline time.Time) models.Order {
	t.Helper()

	assigneeID := worker.ID
	assigneeName := worker.Name
	order := models.Order{
		ID:           id,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		ServiceType:  "SL",
		Status:       models.StatusInProgress,
		AssigneeID:   &assigneeID,
		AssigneeName: &assigneeName,
		Deadline:     &deadline,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Put(context.Background(), &order))

	return order
}

func TestMonitorSendsReminderOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifierMock := mock_models.NewMockNotifier(ctrl)
	store := storage.NewMemoryStore()
	orders := NewOrderService(store, notifierMock, NotifyChannels{})
	monitor := NewMonitorService(orders, notifierMock, "notify-channel", 0)

	now := time.Now().UTC().Truncate(time.Second)
	order := seedTrackedOrder(t, store, "rem-1", now.Add(30*time.Minute))

	notifierMock.EXPECT().
		DirectMessage(gomock.Any(), worker.ID, fmt.Sprintf("⏰ Đơn `%s` còn 30 phút! Hãy hoàn thành sớm!", order.ID)).
		Return(nil).
		Times(1)

	// The second cycle sees the persisted flag and stays silent.
	monitor.runCycle(context.Background(), now)
	monitor.runCycle(context.Background(), now)

	stored, err := orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReminderSent)
	assert.Equal(t, models.StatusInProgress, stored.Status)
}

func TestMonitorEscalatesOverdueOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifierMock := mock_models.NewMockNotifier(ctrl)
	store := storage.NewMemoryStore()
	orders := NewOrderService(store, notifierMock, NotifyChannels{})
	monitor := NewMonitorService(orders, notifierMock, "notify-channel", 0)

	now := time.Now().UTC().Truncate(time.Second)
	order := seedTrackedOrder(t, store, "ovr-1", now.Add(-5*time.Minute))

	notifierMock.EXPECT().
		DirectMessage(gomock.Any(), worker.ID, fmt.Sprintf("❗ ĐƠN `%s` ĐÃ QUÁ HẠN! Vui lòng hoàn thành ngay!", order.ID)).
		Return(nil).
		Times(1)
	notifierMock.EXPECT().
		Broadcast(gomock.Any(), "notify-channel", fmt.Sprintf(
			"⏰ **THÔNG BÁO QUÁ HẠN**\n> Người nhận: <@%d>\n> Mã đơn: `%s`\n> Khách hàng: <@%d>",
			worker.ID, order.ID, customer.ID,
		)).
		Return(nil).
		Times(1)

	monitor.runCycle(context.Background(), now)
	monitor.runCycle(context.Background(), now)

	stored, err := orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, stored.Status)
	assert.True(t, stored.Expired)
}

func TestMonitorIgnoresDistantDeadlines(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifierMock := mock_models.NewMockNotifier(ctrl)
	store := storage.NewMemoryStore()
	orders := NewOrderService(store, notifierMock, NotifyChannels{})
	monitor := NewMonitorService(orders, notifierMock, "notify-channel", 0)

	now := time.Now().UTC().Truncate(time.Second)
	seedTrackedOrder(t, store, "far-1", now.Add(2*time.Hour))

	// No notifier expectations: any delivery fails the test.
	monitor.runCycle(context.Background(), now)
}

func TestMonitorReminderRearmsAfterExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifierMock := mock_models.NewMockNotifier(ctrl)
	store := storage.NewMemoryStore()
	orders := NewOrderService(store, notifierMock, NotifyChannels{})
	monitor := NewMonitorService(orders, notifierMock, "notify-channel", 0)

	now := time.Now().UTC().Truncate(time.Second)
	order := seedTrackedOrder(t, store, "ext-1", now.Add(10*time.Minute))

	// The worker hears three times: the first reminder, the extension
	// notice, and a second reminder once the new deadline is close again.
	notifierMock.EXPECT().
		DirectMessage(gomock.Any(), worker.ID, gomock.Any()).
		Return(nil).
		Times(3)
	notifierMock.EXPECT().
		DirectMessage(gomock.Any(), customer.ID, gomock.Any()).
		Return(nil).
		Times(1)

	monitor.runCycle(context.Background(), now)

	_, err := orders.Extend(context.Background(), order.ID, admin, 120)
	require.NoError(t, err)

	monitor.runCycle(context.Background(), now)
	monitor.runCycle(context.Background(), now.Add(100*time.Minute))
}

// faultyStore fails every write for one order ID.
type faultyStore struct {
	*storage.MemoryStore
	failID string
}

func (f *faultyStore) Put(ctx context.Context, order *models.Order) error {
	if order.ID == f.failID {
		return errors.New("write failed")
	}
	return f.MemoryStore.Put(ctx, order)
}

func TestMonitorContinuesPastFailingOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifierMock := mock_models.NewMockNotifier(ctrl)
	store := &faultyStore{MemoryStore: storage.NewMemoryStore(), failID: "bad-1"}
	orders := NewOrderService(store, notifierMock, NotifyChannels{})
	monitor := NewMonitorService(orders, notifierMock, "notify-channel", 0)

	now := time.Now().UTC().Truncate(time.Second)
	seedTrackedOrder(t, store.MemoryStore, "bad-1", now.Add(30*time.Minute))
	overdue := seedTrackedOrder(t, store.MemoryStore, "ovr-2", now.Add(-5*time.Minute))

	// The reminder for bad-1 fails before any delivery; the overdue order in
	// the same cycle is still escalated.
	notifierMock.EXPECT().
		DirectMessage(gomock.Any(), worker.ID, fmt.Sprintf("❗ ĐƠN `%s` ĐÃ QUÁ HẠN! Vui lòng hoàn thành ngay!", overdue.ID)).
		Return(nil).
		Times(1)
	notifierMock.EXPECT().
		Broadcast(gomock.Any(), "notify-channel", gomock.Any()).
		Return(nil).
		Times(1)

	monitor.runCycle(context.Background(), now)

	stored, err := orders.GetOrder(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, stored.Status)
	assert.True(t, stored.Expired)

	// The failed write leaves the first order untouched for the next cycle.
	untouched, err := orders.GetOrder(context.Background(), "bad-1")
	require.NoError(t, err)
	assert.False(t, untouched.ReminderSent)
}

func TestMonitorStartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifierMock := mock_models.NewMockNotifier(ctrl)
	orders := NewOrderService(storage.NewMemoryStore(), notifierMock, NotifyChannels{})
	monitor := NewMonitorService(orders, notifierMock, "", 10*time.Millisecond)

	monitor.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	monitor.Stop()
}
