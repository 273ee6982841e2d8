package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/YelzhanWeb/mealdash/internal/adapter/logger"
	"github.com/YelzhanWeb/mealdash/internal/domain"
	"github.com/YelzhanWeb/mealdash/internal/interfaces"
)

type BrowseHandler struct {
	service interfaces.BrowseService
	logger  logger.Logger
}

func NewBrowseHandler(service interfaces.BrowseService, logger logger.Logger) *BrowseHandler {
	return &BrowseHandler{
		service: service,
		logger:  logger,
	}
}

type TrackingResponseBody struct {
	OrderID           string     `json:"order_id"`
	OrderNumber       string     `json:"order_number"`
	Status            string     `json:"status"`
	RestaurantID      string     `json:"restaurant_id"`
	DeliveryPersonID  *string    `json:"delivery_person_id,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery_time,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type StatusLogResponse struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Note      *string   `json:"note,omitempty"`
}

type StatsResponse struct {
	Period            string `json:"period"`
	TotalOrders       int    `json:"total_orders"`
	TotalRevenue      string `json:"total_revenue"`
	AverageOrderValue string `json:"average_order_value"`
	Completed         int    `json:"completed"`
	Cancelled         int    `json:"cancelled"`
}

type CourierStatusBody struct {
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	OrdersDelivered int       `json:"orders_delivered"`
	LastSeen        time.Time `json:"last_seen"`
}

func (h *BrowseHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := domain.ToStatus(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		status = &s
	}

	page, limit := paginationParams(r)
	result, err := h.service.ListOrders(r.Context(), PrincipalFromContext(r.Context()), status, page, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPageResponse(result))
}

func (h *BrowseHandler) AvailableOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)
	result, err := h.service.AvailableOrders(r.Context(), PrincipalFromContext(r.Context()), page, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPageResponse(result))
}

func (h *BrowseHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	tracking, err := h.service.TrackOrder(r.Context(), PrincipalFromContext(r.Context()), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TrackingResponseBody{
		OrderID:           tracking.OrderID.String(),
		OrderNumber:       tracking.OrderNumber,
		Status:            string(tracking.Status),
		RestaurantID:      tracking.RestaurantID,
		DeliveryPersonID:  tracking.DeliveryPersonID,
		EstimatedDelivery: tracking.EstimatedDelivery,
		CreatedAt:         tracking.CreatedAt,
		UpdatedAt:         tracking.UpdatedAt,
	})
}

func (h *BrowseHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	history, err := h.service.OrderHistory(r.Context(), PrincipalFromContext(r.Context()), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	entries := make([]StatusLogResponse, len(history))
	for i, entry := range history {
		entries[i] = StatusLogResponse{
			Status:    string(entry.Status),
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
			Note:      entry.Note,
		}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *BrowseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	period, err := domain.ToPeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	stats, err := h.service.Stats(r.Context(), PrincipalFromContext(r.Context()), period)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Period:            string(period),
		TotalOrders:       stats.TotalOrders,
		TotalRevenue:      stats.TotalRevenue.StringFixed(2),
		AverageOrderValue: stats.AverageOrderValue.StringFixed(2),
		Completed:         stats.Completed,
		Cancelled:         stats.Cancelled,
	})
}

func (h *BrowseHandler) CouriersStatus(w http.ResponseWriter, r *http.Request) {
	couriers, err := h.service.CouriersStatus(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	body := make([]CourierStatusBody, len(couriers))
	for i, c := range couriers {
		body[i] = CourierStatusBody{
			Name:            c.CourierName,
			Status:          string(c.Status),
			OrdersDelivered: c.OrdersDelivered,
			LastSeen:        c.LastSeen,
		}
	}

	writeJSON(w, http.StatusOK, body)
}

func paginationParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
