package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	appInventory "github.com/Zhima-Mochi/minishop-orders/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

// writeDomainError maps application error kinds onto status codes. Storage causes are not echoed.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appOrder.ErrValidation),
		errors.Is(err, appInventory.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, appOrder.ErrProductNotFound),
		errors.Is(err, appOrder.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, appOrder.ErrInsufficientStock),
		errors.Is(err, appOrder.ErrConflict),
		errors.Is(err, appInventory.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, appOrder.ErrStorage):
		writeError(w, http.StatusInternalServerError, appOrder.ErrStorage)
	case errors.Is(err, appInventory.ErrStorage):
		writeError(w, http.StatusInternalServerError, appInventory.ErrStorage)
	default:
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
