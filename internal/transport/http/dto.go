package http

import (
	"time"

	"github.com/danielcaamal/orders-ms/internal/domain"
	"github.com/danielcaamal/orders-ms/internal/service/orders"
)

// CreateOrderRequest is the POST /orders body.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderItem is one requested line.
type CreateOrderItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required,gt=0"`
}

// ChangeStatusRequest is the PATCH /orders/{id}/status body.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PAID CANCELLED"`
}

// PaymentSucceededRequest is the POST /orders/{id}/payment-succeeded body,
// mirroring the broker notification for direct webhook delivery.
type PaymentSucceededRequest struct {
	StripePaymentID string `json:"stripePaymentId" validate:"required"`
	ReceiptURL      string `json:"receiptUrl" validate:"required,url"`
}

// OrderItemResponse is one order line as presented to clients. Price is
// the creation-time snapshot in major currency units.
type OrderItemResponse struct {
	ID        string  `json:"id"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int32   `json:"quantity"`
}

// OrderResponse is an order as presented to clients.
type OrderResponse struct {
	ID             string              `json:"id"`
	TotalAmount    float64             `json:"totalAmount"`
	TotalItems     int32               `json:"totalItems"`
	Status         string              `json:"status"`
	Paid           bool                `json:"paid"`
	PaidAt         *time.Time          `json:"paidAt,omitempty"`
	StripeChargeID string              `json:"stripeChargeId,omitempty"`
	Items          []OrderItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// PaymentSessionResponse is the checkout descriptor for a new order.
type PaymentSessionResponse struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	CancelURL  string `json:"cancelUrl,omitempty"`
	SuccessURL string `json:"successUrl,omitempty"`
}

// CreateOrderResponse is the POST /orders response.
type CreateOrderResponse struct {
	Order          OrderResponse          `json:"order"`
	PaymentSession PaymentSessionResponse `json:"paymentSession"`
}

// ListMeta echoes the pagination parameters back to the caller.
type ListMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	LastPage int `json:"lastPage"`
}

// ListOrdersResponse is the GET /orders response.
type ListOrdersResponse struct {
	Data []OrderResponse `json:"data"`
	Meta ListMeta        `json:"meta"`
}

// ErrorResponse is the error body for every failed request.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func toOrderResponse(order domain.Order, names map[int64]string) OrderResponse {
	resp := OrderResponse{
		ID:             order.ID,
		TotalAmount:    float64(order.TotalAmountMinor) / 100,
		TotalItems:     order.TotalItems,
		Status:         string(order.Status),
		Paid:           order.Paid,
		PaidAt:         order.PaidAt,
		StripeChargeID: order.StripeChargeID,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      names[item.ProductID],
			Price:     float64(item.PriceMinor) / 100,
			Quantity:  item.Quantity,
		})
	}
	return resp
}

func toDetailedResponse(detailed orders.DetailedOrder) OrderResponse {
	return toOrderResponse(detailed.Order, detailed.ProductNames)
}
