package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	orderService = "order"
	ordersPath   = "orders"
)

type OrderClient struct {
	c *Client
}

func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{c: c}
}

// Create submits an order. idempotencyKey is sent as Idempotency-Key so a
// service that honors it will not create the same order twice.
func (o *OrderClient) Create(ctx context.Context, req domain.OrderRequest, idempotencyKey string) (*domain.Order, error) {
	cl := call{
		service: orderService,
		method:  http.MethodPost,
		path:    ordersPath,
		body:    req,
	}
	if idempotencyKey != "" {
		cl.header = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}

	var order domain.Order
	if err := o.c.do(ctx, cl, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns the current user's orders, newest first.
func (o *OrderClient) List(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := o.c.do(ctx, call{service: orderService, method: http.MethodGet, path: ordersPath}, &orders); err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate.Time)
	})
	return orders, nil
}
