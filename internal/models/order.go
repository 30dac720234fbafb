package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	StatusApproved        OrderStatus = "APPROVED"
	StatusInProgress      OrderStatus = "IN_PROGRESS"
	StatusCompleted       OrderStatus = "COMPLETED"
	StatusOverdue         OrderStatus = "OVERDUE"
)

// Valid reports whether the status is one of the known labels.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusInProgress, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// Order is the authoritative record of one customer request. The assignee and
// the deadline are set together by assignment and are never set separately.
type Order struct {
	ID           string      `json:"id"`
	CustomerID   int64       `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	ServiceType  string      `json:"service_type"`
	Subtype      string      `json:"subtype,omitempty"`
	Quantity     string      `json:"quantity,omitempty"`
	Note         string      `json:"note,omitempty"`
	Status       OrderStatus `json:"status"`
	AssigneeID   *int64      `json:"assignee_id,omitempty"`
	AssigneeName *string     `json:"assignee_name,omitempty"`
	Deadline     *time.Time  `json:"deadline,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	ReminderSent bool        `json:"reminder_sent"`
	Expired      bool        `json:"expired"`
}

// Assigned reports whether the order has been claimed by a worker.
func (o *Order) Assigned() bool {
	return o.AssigneeID != nil && o.Deadline != nil
}

type CreateOrderRequest struct {
	ServiceType string `json:"service_type"`
	Subtype     string `json:"subtype,omitempty"`
	Quantity    string `json:"quantity,omitempty"`
	Note        string `json:"note,omitempty"`
}

type AssignOrderRequest struct {
	Hours int `json:"hours"`
}

type ExtendOrderRequest struct {
	Minutes int `json:"minutes"`
}

type EditNoteRequest struct {
	Note string `json:"note"`
}

// OrderView is the snapshot returned by the view command, extending the raw
// record with the human-readable deadline presentation.
type OrderView struct {
	Order
	Remaining     string `json:"remaining,omitempty"`
	LocalDeadline string `json:"local_deadline,omitempty"`
}

type QuoteResponse struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type OrderStats struct {
	Total      int                 `json:"total"`
	Completed  int                 `json:"completed"`
	InProgress int                 `json:"in_progress"`
	Overdue    int                 `json:"overdue"`
	ByStatus   map[OrderStatus]int `json:"by_status"`
}
