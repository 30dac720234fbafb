package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cavestore/orderbot/internal/logger"
	"github.com/cavestore/orderbot/internal/models"
	"github.com/cavestore/orderbot/internal/storage"
	"github.com/cavestore/orderbot/internal/timeutil"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrForbidden       = errors.New("actor is not allowed to modify this order")
	ErrNotOwner        = errors.New("order belongs to another customer")
	ErrNotAssignee     = errors.New("order is claimed by another worker")
	ErrNotCancelable   = errors.New("order is already approved and cannot be cancelled")
	ErrAlreadyAssigned = errors.New("order already has an assignee")
	ErrNotAssignable   = errors.New("order cannot be claimed from its current status")
	ErrNotYetAssigned  = errors.New("order has not been assigned yet")
	ErrNotApprovable   = errors.New("order cannot be approved from its current status")
	ErrNotCompletable  = errors.New("order cannot be completed from its current status")
)

const (
	listLimit     = 10
	notifyTimeout = 10 * time.Second
	maxIDAttempts = 5
)

type orderStorage interface {
	Get(ctx context.Context, id string) (*models.Order, error)

	Add(ctx context.Context, order *models.Order) error

	Put(ctx context.Context, order *models.Order) error

	Delete(ctx context.Context, id string) error

	All(ctx context.Context) ([]models.Order, error)
}

// NotifyChannels names the channels the lifecycle announces into.
type NotifyChannels struct {
	Log    string
	Admin  string
	Notify string
}

// OrderService is the order lifecycle state machine. Handlers and the
// deadline monitor mutate orders only through it; the mutex makes every
// read-validate-write a single critical section, and notifications go out
// after the lock is released so a slow delivery never blocks a transition.
type OrderService struct {
	mu       sync.Mutex
	storage  orderStorage
	notifier models.Notifier
	channels NotifyChannels
}

func NewOrderService(storage orderStorage, notifier models.Notifier, channels NotifyChannels) *OrderService {
	return &OrderService{
		storage:  storage,
		notifier: notifier,
		channels: channels,
	}
}

// get translates the storage sentinel into the user-facing one.
func (s *OrderService) get(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.storage.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	return order, nil
}

func newOrderID() string {
	return uuid.NewString()[:8]
}

func (s *OrderService) Create(ctx context.Context, customer models.Actor, req models.CreateOrderRequest) (*models.Order, error) {
	order := &models.Order{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		ServiceType:  req.ServiceType,
		Subtype:      req.Subtype,
		Quantity:     req.Quantity,
		Note:         req.Note,
		Status:       models.StatusPendingApproval,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	s.mu.Lock()
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		order.ID = newOrderID()
		err = s.storage.Add(ctx, order)
		if !errors.Is(err, storage.ErrAlreadyExists) {
			break
		}
	}
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to store order: %w", err)
	}

	logger.Log.Info("order created",
		zap.String("orderID", order.ID),
		zap.Int64("customerID", customer.ID),
		zap.String("serviceType", order.ServiceType),
	)

	s.announceNewOrder(ctx, order)

	return order, nil
}

// announceNewOrder posts the new order into the configured staff channels.
func (s *OrderService) announceNewOrder(ctx context.Context, order *models.Order) {
	text := fmt.Sprintf("📥 **Đơn hàng mới** `%s`\n> Khách: <@%d>\n> Hình thức: %s", order.ID, order.CustomerID, order.ServiceType)
	if order.Subtype != "" {
		text += fmt.Sprintf("\n> Loại: %s", order.Subtype)
	}
	if order.Quantity != "" {
		text += fmt.Sprintf("\n> Số lượng: %s", order.Quantity)
	}
	if order.Note != "" {
		text += fmt.Sprintf("\n> Ghi chú: %s", order.Note)
	}

	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	for _, channelID := range []string{s.channels.Log, s.channels.Admin} {
		if channelID == "" {
			continue
		}
		if err := s.notifier.Broadcast(nctx, channelID, text); err != nil {
			logger.Log.Warn("failed to announce new order",
				zap.String("orderID", order.ID),
				zap.String("channelID", channelID),
				zap.Error(err),
			)
		}
	}
}

func (s *OrderService) Approve(ctx context.Context, orderID string, actor models.Actor) error {
	order, changed, err := s.approve(ctx, orderID)
	if err != nil {
		return err
	}

	// Approving an already approved order is an idempotent success: no
	// state write and no duplicate customer notification.
	if !changed {
		return nil
	}

	logger.Log.Info("order approved", zap.String("orderID", orderID), zap.Int64("actorID", actor.ID))

	s.directMessage(ctx, order.CustomerID, fmt.Sprintf("📢 Đơn `%s` đã được duyệt.", order.ID))

	return nil
}

func (s *OrderService) approve(ctx context.Context, orderID string) (*models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	if order.Status == models.StatusApproved {
		return order, false, nil
	}
	if order.Status != models.StatusPendingApproval {
		return nil, false, ErrNotApprovable
	}

	order.Status = models.StatusApproved
	if err := s.storage.Put(ctx, order); err != nil {
		return nil, false, fmt.Errorf("failed to save order: %w", err)
	}

	return order, true, nil
}

func (s *OrderService) Assign(ctx context.Context, orderID string, actor models.Actor, hours int) (*models.Order, error) {
	deadline, _, err := timeutil.ComputeDeadline(hours)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.AssigneeID != nil {
		return nil, ErrAlreadyAssigned
	}
	if order.Status != models.StatusPendingApproval && order.Status != models.StatusApproved {
		return nil, ErrNotAssignable
	}

	// Assignee and deadline are set together, never separately.
	assigneeID := actor.ID
	assigneeName := actor.Name
	order.AssigneeID = &assigneeID
	order.AssigneeName = &assigneeName
	order.Deadline = &deadline
	order.Status = models.StatusInProgress
	order.ReminderSent = false
	order.Expired = false

	if err := s.storage.Put(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	logger.Log.Info("order assigned",
		zap.String("orderID", orderID),
		zap.Int64("assigneeID", actor.ID),
		zap.Time("deadline", deadline),
	)

	return order, nil
}

func (s *OrderService) Extend(ctx context.Context, orderID string, actor models.Actor, minutes int) (*models.Order, error) {
	if minutes <= 0 {
		return nil, timeutil.ErrInvalidDuration
	}

	order, err := s.extend(ctx, orderID, minutes)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("order extended",
		zap.String("orderID", orderID),
		zap.Int("minutes", minutes),
		zap.Int64("actorID", actor.ID),
	)

	local, zone := timeutil.ToLocalTime(*order.Deadline, "")
	text := fmt.Sprintf(
		"📌 Đơn `%s` đã được gia hạn +%d phút\n⏰ Hạn mới: %s (%s)\n⌛ %s",
		order.ID, minutes, local.Format("02/01/2006 15:04"), zone, timeutil.Remaining(*order.Deadline),
	)

	// Assignee and customer are notified independently; one failing
	// delivery must not suppress the other.
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	var errs *multierror.Error
	if err := s.notifier.DirectMessage(nctx, *order.AssigneeID, text); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("assignee %d: %w", *order.AssigneeID, err))
	}
	if err := s.notifier.DirectMessage(nctx, order.CustomerID, text); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("customer %d: %w", order.CustomerID, err))
	}
	if err := errs.ErrorOrNil(); err != nil {
		logger.Log.Warn("failed to deliver extension notices", zap.String("orderID", orderID), zap.Error(err))
	}

	return order, nil
}

func (s *OrderService) extend(ctx context.Context, orderID string, minutes int) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Assigned() {
		return nil, ErrNotYetAssigned
	}

	// The extension is relative to the stored deadline, even when that
	// deadline has already passed. Both monitor flags re-arm.
	newDeadline := order.Deadline.Add(time.Duration(minutes) * time.Minute)
	order.Deadline = &newDeadline
	order.ReminderSent = false
	order.Expired = false

	if err := s.storage.Put(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	return order, nil
}

func (s *OrderService) Complete(ctx context.Context, orderID string, actor models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return err
	}

	if order.AssigneeID == nil || *order.AssigneeID != actor.ID {
		return ErrNotAssignee
	}
	if order.Status != models.StatusInProgress && order.Status != models.StatusOverdue {
		return ErrNotCompletable
	}

	order.Status = models.StatusCompleted
	if err := s.storage.Put(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	logger.Log.Info("order completed", zap.String("orderID", orderID), zap.Int64("assigneeID", actor.ID))

	return nil
}

func (s *OrderService) Cancel(ctx context.Context, orderID string, actor models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return err
	}

	if order.CustomerID != actor.ID {
		return ErrNotOwner
	}
	if order.Status != models.StatusPendingApproval {
		return ErrNotCancelable
	}

	if err := s.storage.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	logger.Log.Info("order cancelled", zap.String("orderID", orderID), zap.Int64("customerID", actor.ID))

	return nil
}

func (s *OrderService) Delete(ctx context.Context, orderID string, actor models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.get(ctx, orderID); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	logger.Log.Info("order deleted", zap.String("orderID", orderID), zap.Int64("actorID", actor.ID))

	return nil
}

func (s *OrderService) EditNote(ctx context.Context, orderID string, actor models.Actor, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return err
	}

	if !actor.IsStaff() && actor.ID != order.CustomerID {
		return ErrForbidden
	}

	order.Note = note
	if err := s.storage.Put(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	logger.Log.Info("order note updated", zap.String("orderID", orderID), zap.Int64("actorID", actor.ID))

	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.get(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orders, err := s.storage.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	filtered := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if status == "" || order.Status == status {
			filtered = append(filtered, order)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	if len(filtered) > listLimit {
		filtered = filtered[:listLimit]
	}

	return filtered, nil
}

func (s *OrderService) Stats(ctx context.Context) (models.OrderStats, error) {
	orders, err := s.storage.All(ctx)
	if err != nil {
		return models.OrderStats{}, fmt.Errorf("failed to load orders: %w", err)
	}

	stats := models.OrderStats{
		Total:    len(orders),
		ByStatus: make(map[models.OrderStatus]int),
	}
	for _, order := range orders {
		stats.ByStatus[order.Status]++
	}
	stats.Completed = stats.ByStatus[models.StatusCompleted]
	stats.InProgress = stats.ByStatus[models.StatusInProgress]
	stats.Overdue = stats.ByStatus[models.StatusOverdue]

	return stats, nil
}

// TrackedOrders returns the orders the deadline monitor watches: assigned,
// with a deadline, and not yet completed.
func (s *OrderService) TrackedOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.storage.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	tracked := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if order.Assigned() && order.Status != models.StatusCompleted {
			tracked = append(tracked, order)
		}
	}

	return tracked, nil
}

// MarkReminderSent flips the one-shot reminder flag. It reports whether this
// call performed the transition, so concurrent cycles cannot double-send.
func (s *OrderService) MarkReminderSent(ctx context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return false, err
	}

	if order.ReminderSent {
		return false, nil
	}

	order.ReminderSent = true
	if err := s.storage.Put(ctx, order); err != nil {
		return false, fmt.Errorf("failed to save order: %w", err)
	}

	return true, nil
}

// MarkOverdue flags the order expired and moves it to the overdue status.
// Like MarkReminderSent it reports whether this call performed the
// transition.
func (s *OrderService) MarkOverdue(ctx context.Context, orderID string) (*models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	if order.Expired {
		return order, false, nil
	}

	order.Status = models.StatusOverdue
	order.Expired = true
	if err := s.storage.Put(ctx, order); err != nil {
		return nil, false, fmt.Errorf("failed to save order: %w", err)
	}

	return order, true, nil
}

// directMessage sends a best-effort DM; failures are logged, never returned.
func (s *OrderService) directMessage(ctx context.Context, userID int64, text string) {
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := s.notifier.DirectMessage(nctx, userID, text); err != nil {
		logger.Log.Warn("failed to deliver direct message", zap.Int64("userID", userID), zap.Error(err))
	}
}
