package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID            ID              `json:"id" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	StockQuantity int             `json:"stockQuantity,omitempty" validate:"gte=0"`
	Category      string          `json:"category,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

// ProductFilter narrows a product listing. Empty fields are not sent.
type ProductFilter struct {
	Search   string
	Category string
}
