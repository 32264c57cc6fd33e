package checkout

import "errors"

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrNotLoggedIn          = errors.New("you must be logged in to checkout")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
	ErrCheckoutInProgress   = errors.New("an order is already being placed")
)
