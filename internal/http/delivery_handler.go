package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/checkout-service/domain"
	"github.com/fjod/go_cart/checkout-service/internal/delivery"
	"github.com/fjod/go_cart/checkout-service/internal/store"
)

// CustomerReader finds the account type that gates manual address entry.
type CustomerReader interface {
	GetCustomer(ctx context.Context, sessionID string) (*domain.Customer, error)
}

type DeliveryHandler struct {
	table     delivery.FeeTable
	writer    delivery.DeliveryWriter
	customers CustomerReader
	timeout   time.Duration
}

func NewDeliveryHandler(table delivery.FeeTable, writer delivery.DeliveryWriter, customers CustomerReader, timeout time.Duration) *DeliveryHandler {
	return &DeliveryHandler{
		table:     table,
		writer:    writer,
		customers: customers,
		timeout:   timeout,
	}
}

type TownDTO struct {
	Name string  `json:"name"`
	Fee  float64 `json:"fee"`
}

type RegionDTO struct {
	Name  string    `json:"name"`
	Towns []TownDTO `json:"towns"`
}

type CommitDeliveryRequestDTO struct {
	Region        string `json:"region"`
	Town          string `json:"town"`
	ManualAddress string `json:"manual_address"`
}

// GET /api/v1/delivery/regions
func (h *DeliveryHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions := make([]RegionDTO, 0, len(h.table))
	for _, region := range h.table.Regions() {
		dto := RegionDTO{Name: region}
		for _, town := range h.table.Towns(region) {
			fee, _ := h.table.Fee(region, town)
			dto.Towns = append(dto.Towns, TownDTO{Name: town, Fee: fee})
		}
		regions = append(regions, dto)
	}
	respondJSON(w, http.StatusOK, regions)
}

// POST /api/v1/delivery
func (h *DeliveryHandler) Commit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CommitDeliveryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sessionID := getSessionID(r.Context())
	accountType := domain.AccountTypeCustomer
	customer, err := h.customers.GetCustomer(ctx, sessionID)
	switch {
	case err == nil:
		accountType = customer.AccountType
	case !errors.Is(err, store.ErrNotFound):
		handleError(ctx, w, err)
		return
	}

	selector := delivery.NewSelector(h.table, h.writer, sessionID, accountType)
	if req.ManualAddress != "" {
		err = selector.EnterManualAddress(req.ManualAddress)
	} else {
		err = selector.SelectRegion(req.Region)
		selector.SelectTown(req.Town)
	}
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	info, err := selector.Commit(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}
