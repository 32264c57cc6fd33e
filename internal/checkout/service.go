// Package checkout turns the current cart into an order on the order
// service and removes the ordered lines from the cart once the order is
// accepted.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/google/uuid"
)

const (
	DefaultShippingAddress = "Default Address, City, Country"

	PaymentCreditCard = "Credit Card"
	PaymentPayPal     = "PayPal"

	MsgOrderPlaced = "Order placed successfully!"
	MsgOrderFailed = "Order failed due to a server error."
)

// Cart is the part of the cart engine checkout needs.
type Cart interface {
	Snapshot() domain.Snapshot
	Deduct(ctx context.Context, ordered []domain.LineItem) domain.Snapshot
}

type Session interface {
	Current() *domain.Identity
}

type OrderCreator interface {
	Create(ctx context.Context, req domain.OrderRequest, idempotencyKey string) (*domain.Order, error)
}

// MessageFunc extracts the text to show the user for a failed order.
type MessageFunc func(error) string

// Form is what the user fills in on the checkout page. Blank fields take
// their defaults.
type Form struct {
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
}

type Service struct {
	cart     Cart
	session  Session
	orders   OrderCreator
	notifier notify.Notifier
	message  MessageFunc
	logger   *slog.Logger

	inFlight sync.Mutex
}

func NewService(cart Cart, session Session, orders OrderCreator, notifier notify.Notifier, message MessageFunc, logger *slog.Logger) *Service {
	if message == nil {
		message = func(error) string { return MsgOrderFailed }
	}
	return &Service{
		cart:     cart,
		session:  session,
		orders:   orders,
		notifier: notifier,
		message:  message,
		logger:   logger,
	}
}

// PlaceOrder submits the cart as an order and returns the new order's id.
// The ordered lines leave the cart only when the order service accepts the
// order; on any failure the cart is left as it was. Items added while the
// order is in flight stay in the cart. Only one order may be in flight at a time.
func (s *Service) PlaceOrder(ctx context.Context, form Form) (domain.ID, error) {
	identity := s.session.Current()
	if identity == nil {
		return "", ErrNotLoggedIn
	}

	method, err := paymentMethod(form.PaymentMethod)
	if err != nil {
		return "", err
	}

	if !s.inFlight.TryLock() {
		return "", ErrCheckoutInProgress
	}
	defer s.inFlight.Unlock()

	snap := s.cart.Snapshot()
	if snap.IsEmpty() {
		return "", ErrEmptyCart
	}

	req := buildRequest(identity.ID, snap, form.ShippingAddress, method)
	key := uuid.NewString()

	order, err := s.orders.Create(ctx, req, key)
	if err != nil {
		s.logger.Error("place order failed",
			slog.String("user_id", identity.ID.String()),
			slog.String("idempotency_key", key),
			slog.String("error", err.Error()),
		)
		s.notify(ctx, notify.LevelError, s.message(err))
		return "", fmt.Errorf("place order: %w", err)
	}

	s.cart.Deduct(ctx, snap.Items)
	s.logger.Info("order placed",
		slog.String("order_id", order.ID.String()),
		slog.String("user_id", identity.ID.String()),
		slog.Int("items", snap.TotalItems),
		slog.String("total", snap.TotalPrice.StringFixed(2)),
	)
	s.notify(ctx, notify.LevelSuccess, MsgOrderPlaced)
	return order.ID, nil
}

func (s *Service) notify(ctx context.Context, level notify.Level, msg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, notify.Notification{Level: level, Message: msg})
}

func paymentMethod(m string) (string, error) {
	m = strings.TrimSpace(m)
	switch {
	case m == "":
		return PaymentCreditCard, nil
	case strings.EqualFold(m, PaymentCreditCard):
		return PaymentCreditCard, nil
	case strings.EqualFold(m, PaymentPayPal):
		return PaymentPayPal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, m)
	}
}

func buildRequest(userID domain.ID, snap domain.Snapshot, address, method string) domain.OrderRequest {
	address = strings.TrimSpace(address)
	if address == "" {
		address = DefaultShippingAddress
	}

	items := make([]domain.OrderItemRequest, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, domain.OrderItemRequest{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.UnitPrice,
		})
	}

	return domain.OrderRequest{
		UserID:          userID,
		Items:           items,
		TotalAmount:     snap.TotalPrice,
		ShippingAddress: address,
		PaymentMethod:   method,
	}
}
