package httppresentation

import (
	"net/http"
	"time"

	appInventory "github.com/Zhima-Mochi/minishop-orders/internal/application/inventory"
	domainProduct "github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/shopspring/decimal"
)

type registerProductRequest struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

type productDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type productResponse struct {
	Success bool       `json:"success"`
	Product productDTO `json:"product"`
}

func toProductDTO(p *domainProduct.Product) productDTO {
	return productDTO{
		ID:        p.ID,
		Name:      p.Name,
		Stock:     p.Stock,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (h *Handler) handleRegisterProduct(w http.ResponseWriter, r *http.Request) {
	var req registerProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.deps.Catalogue.Register(r.Context(), appInventory.RegisterProductInput{
		ID:    req.ID,
		Name:  req.Name,
		Stock: req.Stock,
		Price: req.Price,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{Success: true, Product: toProductDTO(p)})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Catalogue.Get(r.Context(), pathID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: toProductDTO(p)})
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.deps.Catalogue.Restock(r.Context(), pathID(r), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: toProductDTO(p)})
}
