package models

import (
	"context"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_order.go . OrderService
type OrderService interface {
	Create(ctx context.Context, customer Actor, req CreateOrderRequest) (*Order, error)

	Approve(ctx context.Context, orderID string, actor Actor) error

	Assign(ctx context.Context, orderID string, actor Actor, hours int) (*Order, error)

	Extend(ctx context.Context, orderID string, actor Actor, minutes int) (*Order, error)

	Complete(ctx context.Context, orderID string, actor Actor) error

	Cancel(ctx context.Context, orderID string, actor Actor) error

	Delete(ctx context.Context, orderID string, actor Actor) error

	EditNote(ctx context.Context, orderID string, actor Actor, note string) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)

	ListOrders(ctx context.Context, status OrderStatus) ([]Order, error)

	Stats(ctx context.Context) (OrderStats, error)
}

//go:generate mockgen -destination=mocks/mock_pricing.go . PricingService
type PricingService interface {
	Quote(serviceType, subtype, quantity string, premium bool) (decimal.Decimal, error)
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(actor Actor) (string, error)

	ValidateToken(tokenString string) (*Actor, error)
}

//go:generate mockgen -destination=mocks/mock_notifier.go . Notifier
type Notifier interface {
	DirectMessage(ctx context.Context, userID int64, text string) error

	Broadcast(ctx context.Context, channelID string, text string) error
}
