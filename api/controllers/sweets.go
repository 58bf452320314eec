package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sweetshop-backend/api/middleware"
	"github.com/angelmondragon/sweetshop-backend/api/responses"
	"github.com/angelmondragon/sweetshop-backend/api/validators"
	"github.com/angelmondragon/sweetshop-backend/internal/sweets"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
)

const sweetIDParam = "id"

type createSweetRequest struct {
	Name     *string          `json:"name" validate:"required"`
	Category *string          `json:"category" validate:"required"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Quantity *int             `json:"quantity" validate:"required"`
}

func (r createSweetRequest) toInput() sweets.CreateInput {
	return sweets.CreateInput{
		Name:     *r.Name,
		Category: *r.Category,
		Price:    *r.Price,
		Quantity: *r.Quantity,
	}
}

type updateSweetRequest struct {
	Name     *string          `json:"name,omitempty"`
	Category *string          `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
}

func (r updateSweetRequest) toInput() sweets.UpdateInput {
	return sweets.UpdateInput{
		Name:     r.Name,
		Category: r.Category,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

type purchaseRequest struct {
	Quantity *int `json:"quantity,omitempty"`
}

type restockRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CreateSweet handles POST /api/sweets.
func CreateSweet(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var payload createSweetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sweet, err := svc.CreateSweet(r.Context(), middleware.CallerFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sweet)
	}
}

// ListSweets handles GET /api/sweets.
func ListSweets(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		items, err := svc.ListSweets(r.Context(), middleware.CallerFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// SearchSweets handles GET /api/sweets/search. Unset parameters impose no
// constraint.
func SearchSweets(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		filters, err := sweets.ParseFilters(sweets.RawFilters{
			Name:     validators.QueryString(r, "name"),
			Category: validators.QueryString(r, "category"),
			MinPrice: validators.QueryString(r, "minPrice"),
			MaxPrice: validators.QueryString(r, "maxPrice"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.SearchSweets(r.Context(), middleware.CallerFromContext(r.Context()), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// GetSweet handles GET /api/sweets/{id}.
func GetSweet(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, sweetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sweet, err := svc.GetSweet(r.Context(), middleware.CallerFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sweet)
	}
}

// UpdateSweet handles PUT /api/sweets/{id} as a partial patch.
func UpdateSweet(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, sweetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSweetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sweet, err := svc.UpdateSweet(r.Context(), middleware.CallerFromContext(r.Context()), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sweet)
	}
}

// DeleteSweet handles DELETE /api/sweets/{id}.
func DeleteSweet(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, sweetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteSweet(r.Context(), middleware.CallerFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

// PurchaseSweet handles POST /api/sweets/{id}/purchase. The body is optional
// and a missing quantity buys a single unit.
func PurchaseSweet(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, sweetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		sweet, err := svc.PurchaseSweet(r.Context(), middleware.CallerFromContext(r.Context()), id, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sweet)
	}
}

// RestockSweet handles POST /api/sweets/{id}/restock.
func RestockSweet(svc sweets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		id, err := validators.ParseUUIDParam(r, sweetIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sweet, err := svc.RestockSweet(r.Context(), middleware.CallerFromContext(r.Context()), id, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sweet)
	}
}

func serviceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "sweet service unavailable")
}
