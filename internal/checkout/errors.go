package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress")

	// ErrPaymentSetup covers everything before money could move: no usable
	// client secret, or the payment sheet failed to initialize.
	ErrPaymentSetup = errors.New("payment setup failed")

	// ErrPaymentDeclined is the user-facing sheet outcome (card declined,
	// user cancelled). Terminal for the attempt; the user must re-initiate.
	ErrPaymentDeclined = errors.New("payment declined or cancelled")

	// ErrPartialActivation means payment was captured but subscription
	// creation failed. The cart is still cleared; reconciliation is a
	// backend concern. Callers must surface this distinctly from a generic
	// failure.
	ErrPartialActivation = errors.New("payment succeeded but subscription activation failed")

	errIllegalTransition = errors.New("illegal transition of checkout status")
)
