package sweets

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxQuantity matches the INTEGER quantity column.
const maxQuantity = math.MaxInt32

// maxPrice is the exclusive ceiling of the NUMERIC(12,2) price column.
var maxPrice = decimal.New(1, 10)

// Store owns the canonical collection of sweets. Implementations return copies;
// callers never share state with the store.
type Store interface {
	Create(ctx context.Context, input CreateInput) (*models.Sweet, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Sweet, error)
	List(ctx context.Context) ([]models.Sweet, error)
	Search(ctx context.Context, filters Filters) ([]models.Sweet, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Sweet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AdjustQuantity applies delta atomically. With guard set the result may not
	// drop below zero; without it only positive deltas are accepted.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int, guard bool) (*models.Sweet, error)
	Ping(ctx context.Context) error
}

// CreateInput holds the fields required to add a sweet.
type CreateInput struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Quantity int
}

// UpdateInput holds optional replacements; nil fields are left untouched.
type UpdateInput struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	Quantity *int
}

// IsEmpty reports whether the patch carries no fields.
func (in UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.Category == nil && in.Price == nil && in.Quantity == nil
}

func (in CreateInput) normalize() (CreateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)

	details := map[string]string{}
	checkText(details, "name", in.Name)
	checkText(details, "category", in.Category)
	checkPrice(details, in.Price)
	checkQuantity(details, in.Quantity)
	if len(details) > 0 {
		return CreateInput{}, validationError(details)
	}
	return in, nil
}

func (in UpdateInput) normalize() (UpdateInput, error) {
	if in.IsEmpty() {
		return UpdateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one field must be provided")
	}

	details := map[string]string{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		checkText(details, "name", name)
		in.Name = &name
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		checkText(details, "category", category)
		in.Category = &category
	}
	if in.Price != nil {
		checkPrice(details, *in.Price)
	}
	if in.Quantity != nil {
		checkQuantity(details, *in.Quantity)
	}
	if len(details) > 0 {
		return UpdateInput{}, validationError(details)
	}
	return in, nil
}

func (in UpdateInput) apply(sweet *models.Sweet) {
	if in.Name != nil {
		sweet.Name = *in.Name
	}
	if in.Category != nil {
		sweet.Category = *in.Category
	}
	if in.Price != nil {
		sweet.Price = *in.Price
	}
	if in.Quantity != nil {
		sweet.Quantity = *in.Quantity
	}
}

func checkText(details map[string]string, field, value string) {
	if value == "" {
		details[field] = "is required"
	}
}

func checkPrice(details map[string]string, price decimal.Decimal) {
	switch {
	case price.IsNegative():
		details["price"] = "must be zero or greater"
	case price.GreaterThanOrEqual(maxPrice):
		details["price"] = "must be less than " + maxPrice.String()
	case !price.Equal(price.Round(2)):
		details["price"] = "must have at most 2 decimal places"
	}
}

func checkQuantity(details map[string]string, quantity int) {
	switch {
	case quantity < 0:
		details["quantity"] = "must be zero or greater"
	case quantity > maxQuantity:
		details["quantity"] = "must not exceed " + strconv.Itoa(maxQuantity)
	}
}

func validationError(details map[string]string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid sweet").WithDetails(details)
}

// checkDelta enforces the mutation policy shared by both backends.
func checkDelta(delta int, guard bool) error {
	if delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity change must not be zero")
	}
	if delta < 0 && !guard {
		return pkgerrors.New(pkgerrors.CodeValidation, "negative quantity change requires a stock guard")
	}
	if delta > maxQuantity {
		return quantityOverflow(delta)
	}
	return nil
}

// overflows reports whether current+delta would pass maxQuantity.
func overflows(current, delta int) bool {
	return delta > 0 && current > maxQuantity-delta
}

func quantityOverflow(delta int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity change exceeds stock capacity").WithDetails(map[string]any{
		"quantity": "must not exceed " + strconv.Itoa(maxQuantity),
		"delta":    delta,
	})
}

func notFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "sweet not found").WithDetails(map[string]string{"id": id.String()})
}

func insufficientStock(id uuid.UUID, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(map[string]any{
		"id":        id.String(),
		"available": available,
		"requested": requested,
	})
}
