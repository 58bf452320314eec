package sweets

import (
	"strings"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Filters narrows a listing. Zero values impose no constraint and all set
// constraints must hold.
type Filters struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// RawFilters carries unparsed query string values.
type RawFilters struct {
	Name     string
	Category string
	MinPrice string
	MaxPrice string
}

// ParseFilters validates the numeric bounds. Negative bounds and an inverted
// range are accepted; the latter simply matches nothing.
func ParseFilters(raw RawFilters) (Filters, error) {
	filters := Filters{
		Name:     strings.TrimSpace(raw.Name),
		Category: strings.TrimSpace(raw.Category),
	}

	details := map[string]string{}
	if bound, ok := parseBound(details, "minPrice", raw.MinPrice); ok {
		filters.MinPrice = bound
	}
	if bound, ok := parseBound(details, "maxPrice", raw.MaxPrice); ok {
		filters.MaxPrice = bound
	}
	if len(details) > 0 {
		return Filters{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid search filters").WithDetails(details)
	}
	return filters, nil
}

func parseBound(details map[string]string, field, value string) (*decimal.Decimal, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	bound, err := decimal.NewFromString(value)
	if err != nil {
		details[field] = "must be a number"
		return nil, false
	}
	return &bound, true
}

// IsZero reports whether no constraint is set.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Name) == "" && strings.TrimSpace(f.Category) == "" && f.MinPrice == nil && f.MaxPrice == nil
}

// Matches evaluates the filters against a single sweet.
func (f Filters) Matches(sweet models.Sweet) bool {
	if !containsFold(sweet.Name, f.Name) {
		return false
	}
	if !containsFold(sweet.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && sweet.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && sweet.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func containsFold(value, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

// apply translates the filters into SQL predicates.
func (f Filters) apply(q *gorm.DB) *gorm.DB {
	if name := strings.TrimSpace(f.Name); name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(name))
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		q = q.Where(`LOWER(category) LIKE ? ESCAPE '\'`, likePattern(category))
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(needle string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
}

// filterSweets keeps the input order.
func filterSweets(items []models.Sweet, filters Filters) []models.Sweet {
	out := make([]models.Sweet, 0, len(items))
	for _, item := range items {
		if filters.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}
