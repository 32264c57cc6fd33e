package domain

import "github.com/shopspring/decimal"

// LineItem is one product entry in the cart. Quantity is always >= 1 while
// the item is in the cart.
type LineItem struct {
	ProductID ID              `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageRef  string          `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageURL,
		Quantity:  quantity,
	}
}

// Snapshot is an immutable view of the cart at a point in time.
// Version increases with every committed mutation.
type Snapshot struct {
	Items      []LineItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Version    uint64          `json:"version"`
}

// NewSnapshot copies items and derives the totals from them.
func NewSnapshot(items []LineItem, version uint64) Snapshot {
	s := Snapshot{
		Items:      make([]LineItem, len(items)),
		TotalPrice: decimal.Zero,
		Version:    version,
	}
	copy(s.Items, items)
	for _, item := range items {
		s.TotalItems += item.Quantity
		s.TotalPrice = s.TotalPrice.Add(item.Subtotal())
	}
	return s
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
