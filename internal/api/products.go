package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	productService = "product"
	productsPath   = "products"

	defaultSharedTimeout = 30 * time.Second
)

// ProductClient reads the catalog and, for admins, edits it. Concurrent
// identical reads share one request.
type ProductClient struct {
	c   *Client
	sfg singleflight.Group
}

func NewProductClient(c *Client) *ProductClient {
	return &ProductClient{c: c}
}

func (p *ProductClient) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}

	v, err := p.shared(ctx, "list?"+q.Encode(), func(ctx context.Context) (any, error) {
		var products []domain.Product
		err := p.c.do(ctx, call{service: productService, method: http.MethodGet, path: productsPath, query: q}, &products)
		return products, err
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]domain.Product)), nil
}

func (p *ProductClient) Get(ctx context.Context, id domain.ID) (*domain.Product, error) {
	v, err := p.shared(ctx, "get/"+id.String(), func(ctx context.Context) (any, error) {
		var product domain.Product
		err := p.c.do(ctx, call{service: productService, method: http.MethodGet, path: productsPath + "/" + url.PathEscape(id.String())}, &product)
		return product, err
	})
	if err != nil {
		return nil, err
	}
	product := v.(domain.Product)
	return &product, nil
}

func (p *ProductClient) Categories(ctx context.Context) ([]string, error) {
	v, err := p.shared(ctx, "categories", func(ctx context.Context) (any, error) {
		var categories []string
		err := p.c.do(ctx, call{service: productService, method: http.MethodGet, path: productsPath + "/categories"}, &categories)
		return categories, err
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]string)), nil
}

func (p *ProductClient) Related(ctx context.Context, id domain.ID) ([]domain.Product, error) {
	v, err := p.shared(ctx, "related/"+id.String(), func(ctx context.Context) (any, error) {
		var products []domain.Product
		err := p.c.do(ctx, call{service: productService, method: http.MethodGet, path: productsPath + "/" + url.PathEscape(id.String()) + "/related"}, &products)
		return products, err
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]domain.Product)), nil
}

func (p *ProductClient) Create(ctx context.Context, product domain.Product) (*domain.Product, error) {
	var created domain.Product
	err := p.c.do(ctx, call{service: productService, method: http.MethodPost, path: productsPath, body: newProductPayload(product)}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (p *ProductClient) Update(ctx context.Context, id domain.ID, product domain.Product) (*domain.Product, error) {
	var updated domain.Product
	err := p.c.do(ctx, call{service: productService, method: http.MethodPut, path: productsPath + "/" + url.PathEscape(id.String()), body: newProductPayload(product)}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (p *ProductClient) Delete(ctx context.Context, id domain.ID) error {
	return p.c.do(ctx, call{service: productService, method: http.MethodDelete, path: productsPath + "/" + url.PathEscape(id.String())}, nil)
}

// shared collapses concurrent identical reads. The shared request keeps the
// first caller's values but not its cancellation, so one caller giving up
// does not fail the others; it is bounded by the client timeout instead.
func (p *ProductClient) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := p.sfg.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.sharedTimeout())
		defer cancel()
		return fn(sctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (p *ProductClient) sharedTimeout() time.Duration {
	if t := p.c.httpClient.Timeout; t > 0 {
		return t
	}
	return defaultSharedTimeout
}

// productPayload is what admins send: the id travels in the path.
type productPayload struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	Category      string          `json:"category,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

func newProductPayload(p domain.Product) productPayload {
	return productPayload{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
	}
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
