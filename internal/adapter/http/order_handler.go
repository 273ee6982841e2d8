package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type CreateOrderRequest struct {
	RestaurantID    string             `json:"restaurant_id"`
	Items           []OrderItemRequest `json:"items"`
	DeliveryAddress AddressPayload     `json:"delivery_address"`
	PaymentMethod   string             `json:"payment_method"`
	CouponCode      *string            `json:"coupon_code,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
}

type OrderItemRequest struct {
	MealID              string  `json:"meal_id"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

type UpdateStatusRequest struct {
	Status       string  `json:"status"`
	StatusReason *string `json:"status_reason,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type AssignRequest struct {
	DeliveryPersonID string `json:"delivery_person_id"`
}

type RateRequest struct {
	Food     int     `json:"food"`
	Delivery int     `json:"delivery"`
	Overall  int     `json:"overall"`
	Comment  *string `json:"comment,omitempty"`
}

var validPaymentMethods = map[string]bool{
	"card":   true,
	"cash":   true,
	"wallet": true,
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	if p.Role != domain.RoleCustomer {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "Only customers can place orders"})
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	cmd, validationErrors := buildCreateCommand(p.ID, req)
	if len(validationErrors) > 0 {
		h.logger.Error("validation_failed", "Order validation failed", "", map[string]interface{}{
			"errors": validationErrors,
		}, domain.ValidationErrors(validationErrors))

		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Errors: validationErrors})
		return
	}

	order, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", "", nil, err)
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func buildCreateCommand(customerID string, req CreateOrderRequest) (interfaces.CreateOrderCommand, []domain.ValidationError) {
	var errs []domain.ValidationError

	if strings.TrimSpace(req.RestaurantID) == "" {
		errs = append(errs, domain.ValidationError{Field: "restaurant_id", Message: "restaurant id is required"})
	}
	if !validPaymentMethods[req.PaymentMethod] {
		errs = append(errs, domain.ValidationError{Field: "payment_method", Message: "payment method must be one of: card, cash, wallet"})
	}
	if len(req.Items) < 1 {
		errs = append(errs, domain.ValidationError{Field: "items", Message: "order must contain at least 1 item"})
	}

	items := make([]interfaces.CreateOrderItemCommand, 0, len(req.Items))
	for i, item := range req.Items {
		mealID, err := uuid.Parse(item.MealID)
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: itemField(i, "meal_id"), Message: "meal id must be a valid uuid"})
			continue
		}
		if item.Quantity < 1 || item.Quantity > 20 {
			errs = append(errs, domain.ValidationError{Field: itemField(i, "quantity"), Message: "item quantity must be 1-20"})
			continue
		}
		items = append(items, interfaces.CreateOrderItemCommand{
			MealID:              mealID,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
		})
	}

	cmd := interfaces.CreateOrderCommand{
		CustomerID:   customerID,
		RestaurantID: strings.TrimSpace(req.RestaurantID),
		Items:        items,
		DeliveryAddress: domain.Address{
			Street: strings.TrimSpace(req.DeliveryAddress.Street),
			City:   strings.TrimSpace(req.DeliveryAddress.City),
			State:  strings.TrimSpace(req.DeliveryAddress.State),
			Zip:    strings.TrimSpace(req.DeliveryAddress.Zip),
			Lat:    req.DeliveryAddress.Lat,
			Lon:    req.DeliveryAddress.Lon,
		},
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
		Notes:         req.Notes,
	}

	return cmd, errs
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), PrincipalFromContext(r.Context()), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	newStatus, err := domain.ToStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), PrincipalFromContext(r.Context()), orderID, newStatus, req.StatusReason)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	order, err := h.service.CancelOrder(r.Context(), PrincipalFromContext(r.Context()), orderID, req.Reason)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.DeliveryPersonID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Errors: []domain.ValidationError{
			{Field: "delivery_person_id", Message: "delivery person id is required"},
		}})
		return
	}

	order, err := h.service.AssignDelivery(r.Context(), PrincipalFromContext(r.Context()), orderID, req.DeliveryPersonID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) Rate(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	cmd := interfaces.RateOrderCommand{
		Food:     req.Food,
		Delivery: req.Delivery,
		Overall:  req.Overall,
		Comment:  req.Comment,
	}

	order, err := h.service.RateOrder(r.Context(), PrincipalFromContext(r.Context()), orderID, cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func orderIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid order id"})
		return uuid.Nil, false
	}
	return orderID, true
}
