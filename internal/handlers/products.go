package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/services"
)

const defaultListLimit = 100

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := listLimit(r)
	products, err := h.productStore.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if products == nil {
		products = []*db.Product{}
	}
	h.writeJSON(w, r, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.productStore.GetByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.writeError(w, r, fmt.Errorf("%w: %s", services.ErrProductNotFound, productID))
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, product)
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return id, nil
}

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 1000 {
		return defaultListLimit
	}
	return limit
}
