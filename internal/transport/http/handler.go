package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/danielcaamal/orders-ms/internal/domain"
	"github.com/danielcaamal/orders-ms/internal/service/orders"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Handler exposes the order use cases over HTTP.
type Handler struct {
	service  *orders.Service
	validate *validatorv10.Validate
	logger   *log.Entry
}

// NewHandler creates the HTTP handler.
func NewHandler(service *orders.Service, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-handler")
	}
	return &Handler{
		service:  service,
		validate: validatorv10.New(),
		logger:   logger,
	}
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.bind(w, r, &req) {
		return
	}

	items := make([]domain.RequestedItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.RequestedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.service.CreateOrder(items)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateOrderResponse{
		Order: toDetailedResponse(result.Order),
		PaymentSession: PaymentSessionResponse{
			ID:         result.PaymentSession.ID,
			URL:        result.PaymentSession.URL,
			CancelURL:  result.PaymentSession.CancelURL,
			SuccessURL: result.PaymentSession.SuccessURL,
		},
	})
}

// ListOrders handles GET /orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{Page: defaultPage, Limit: defaultLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		filter.Page = page
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.OrderStatus(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "status must be one of PENDING, PAID, CANCELLED")
			return
		}
		filter.Status = &status
	}

	page, err := h.service.FindAll(filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	data := make([]OrderResponse, 0, len(page.Orders))
	for _, order := range page.Orders {
		data = append(data, toOrderResponse(order, nil))
	}

	writeJSON(w, http.StatusOK, ListOrdersResponse{
		Data: data,
		Meta: ListMeta{
			Total:    page.Total,
			Page:     page.Page,
			Limit:    page.Limit,
			LastPage: page.LastPage,
		},
	})
}

// GetOrder handles GET /orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	detailed, err := h.service.FindOneDetailed(orderID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDetailedResponse(detailed))
}

// ChangeStatus handles PATCH /orders/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req ChangeStatusRequest
	if !h.bind(w, r, &req) {
		return
	}

	updated, err := h.service.ChangeStatus(orderID, domain.OrderStatus(req.Status))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil))
}

// PaymentSucceeded handles POST /orders/{id}/payment-succeeded. It is the
// webhook twin of the broker notification.
func (h *Handler) PaymentSucceeded(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req PaymentSucceededRequest
	if !h.bind(w, r, &req) {
		return
	}

	updated, err := h.service.RecordPaymentSuccess(domain.PaymentSucceeded{
		OrderID:        orderID,
		StripeChargeID: req.StripePaymentID,
		ReceiptURL:     req.ReceiptURL,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil))
}

// bind decodes the JSON body into out and validates it. On failure it
// writes the 400 response and returns false.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return "validation failed on field " + fe.StructNamespace() + " (" + fe.Tag() + ")"
	}
	return "validation failed"
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), domain.IsProductNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrProductValidationUnavailable),
		errors.Is(err, domain.ErrPaymentSessionFailed),
		errors.Is(err, domain.ErrTransitionNotAllowed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrItemQuantityInvalid),
		errors.Is(err, domain.ErrStatusInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    msg,
	})
}
