package httppresentation

import (
	"net/http"
	"time"

	appOrder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	domainOrder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/shopspring/decimal"
)

type placeOrderRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderDTO struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

type placeOrderResponse struct {
	Success        bool     `json:"success"`
	Order          orderDTO `json:"order"`
	RemainingStock int      `json:"remaining_stock"`
	Replayed       bool     `json:"replayed,omitempty"`
}

type orderResponse struct {
	Success bool     `json:"success"`
	Order   orderDTO `json:"order"`
}

type ordersResponse struct {
	Success bool       `json:"success"`
	Orders  []orderDTO `json:"orders"`
}

func toOrderDTO(o *domainOrder.Order) orderDTO {
	return orderDTO{
		ID:         o.ID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
	}
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.deps.PlaceOrder.Execute(r.Context(), appOrder.PlaceOrderInput{
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, placeOrderResponse{
		Success:        true,
		Order:          toOrderDTO(result.Order),
		RemainingStock: result.RemainingStock,
		Replayed:       result.Replayed,
	})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.deps.GetOrder.Execute(r.Context(), pathID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Success: true, Order: toOrderDTO(o)})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.deps.ListOrders.Execute(r.Context(), pathID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, ordersResponse{Success: true, Orders: out})
}
