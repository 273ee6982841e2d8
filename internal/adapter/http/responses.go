package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

type ErrorResponse struct {
	Error  string                   `json:"error"`
	Errors []domain.ValidationError `json:"errors,omitempty"`
}

type OrderResponse struct {
	OrderID         string              `json:"order_id"`
	OrderNumber     string              `json:"order_number"`
	CustomerID      string              `json:"customer_id"`
	RestaurantID    string              `json:"restaurant_id"`
	DeliveryPerson  *string             `json:"delivery_person_id,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	Pricing         PricingResponse     `json:"pricing"`
	DeliveryAddress AddressPayload      `json:"delivery_address"`
	PaymentMethod   string              `json:"payment_method"`
	Status          string              `json:"status"`
	StatusReason    *string             `json:"status_reason,omitempty"`
	Rating          *RatingResponse     `json:"rating,omitempty"`
	EstimatedAt     *time.Time          `json:"estimated_delivery_time,omitempty"`
	DeliveredAt     *time.Time          `json:"actual_delivery_time,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	MealID              string  `json:"meal_id"`
	Name                string  `json:"name"`
	Quantity            int     `json:"quantity"`
	UnitPrice           string  `json:"unit_price"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

type PricingResponse struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"delivery_fee"`
	ServiceFee  string `json:"service_fee"`
	Tax         string `json:"tax"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
}

type AddressPayload struct {
	Street string  `json:"street"`
	City   string  `json:"city"`
	State  string  `json:"state"`
	Zip    string  `json:"zip"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
}

type RatingResponse struct {
	Food     int       `json:"food"`
	Delivery int       `json:"delivery"`
	Overall  int       `json:"overall"`
	Comment  *string   `json:"comment,omitempty"`
	RatedAt  time.Time `json:"rated_at"`
}

type OrderPageResponse struct {
	Orders      []OrderResponse `json:"orders"`
	TotalCount  int             `json:"total_count"`
	TotalPages  int             `json:"total_pages"`
	CurrentPage int             `json:"current_page"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			MealID:              item.MealID.String(),
			Name:                item.Name,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice.StringFixed(2),
			SpecialInstructions: item.SpecialInstructions,
		}
	}

	resp := OrderResponse{
		OrderID:        order.ID.String(),
		OrderNumber:    order.Number,
		CustomerID:     order.CustomerID,
		RestaurantID:   order.RestaurantID,
		DeliveryPerson: order.DeliveryPersonID,
		Items:          items,
		Pricing: PricingResponse{
			Subtotal:    order.Pricing.Subtotal.StringFixed(2),
			DeliveryFee: order.Pricing.DeliveryFee.StringFixed(2),
			ServiceFee:  order.Pricing.ServiceFee.StringFixed(2),
			Tax:         order.Pricing.Tax.StringFixed(2),
			Discount:    order.Pricing.Discount.StringFixed(2),
			Total:       order.Pricing.Total.StringFixed(2),
		},
		DeliveryAddress: AddressPayload{
			Street: order.DeliveryAddress.Street,
			City:   order.DeliveryAddress.City,
			State:  order.DeliveryAddress.State,
			Zip:    order.DeliveryAddress.Zip,
			Lat:    order.DeliveryAddress.Lat,
			Lon:    order.DeliveryAddress.Lon,
		},
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
		StatusReason:  order.StatusReason,
		EstimatedAt:   order.EstimatedDelivery,
		DeliveredAt:   order.ActualDelivery,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}

	if order.Rating != nil {
		resp.Rating = &RatingResponse{
			Food:     order.Rating.Food,
			Delivery: order.Rating.Delivery,
			Overall:  order.Rating.Overall,
			Comment:  order.Rating.Comment,
			RatedAt:  order.Rating.RatedAt,
		}
	}

	return resp
}

func toOrderPageResponse(page *interfaces.OrderPage) OrderPageResponse {
	orders := make([]OrderResponse, len(page.Orders))
	for i, order := range page.Orders {
		orders[i] = toOrderResponse(order)
	}
	return OrderPageResponse{
		Orders:      orders,
		TotalCount:  page.TotalCount,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondDomainError maps the failure taxonomy onto distinct status codes so
// callers can tell a lost race from an illegal transition.
func respondDomainError(w http.ResponseWriter, err error) {
	if ves, ok := domain.AsValidationErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Errors: ves})
		return
	}

	var statusCode int
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrCourierNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotDelivered),
		errors.Is(err, domain.ErrAlreadyRated):
		statusCode = http.StatusUnprocessableEntity
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, statusCode, ErrorResponse{Error: err.Error()})
}
