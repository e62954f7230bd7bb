package domain

// PaymentSession is the checkout descriptor returned by the payments
// service for a freshly created order. It is attached to the create-order
// response; only the charge id is persisted later, on payment success.
type PaymentSession struct {
	ID         string
	URL        string
	CancelURL  string
	SuccessURL string
}

// SessionItem is one priced line sent to the payments service when
// requesting a session. Prices are the creation-time snapshots.
type SessionItem struct {
	Name       string
	PriceMinor int64
	Quantity   int32
}

// PaymentSucceeded is the inbound notification emitted by the payments
// service once a charge completes.
type PaymentSucceeded struct {
	OrderID        string
	StripeChargeID string
	ReceiptURL     string
}
