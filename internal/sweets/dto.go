package sweets

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/google/uuid"
)

// SweetDTO is the sweet payload returned to clients.
type SweetDTO struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FromModel maps a stored sweet to its DTO.
func FromModel(sweet models.Sweet) SweetDTO {
	return SweetDTO{
		ID:        sweet.ID,
		Name:      sweet.Name,
		Category:  sweet.Category,
		Price:     json.Number(sweet.Price.StringFixed(2)),
		Quantity:  sweet.Quantity,
		CreatedAt: sweet.CreatedAt.UTC(),
		UpdatedAt: sweet.UpdatedAt.UTC(),
	}
}

func fromModels(items []models.Sweet) []SweetDTO {
	out := make([]SweetDTO, 0, len(items))
	for _, item := range items {
		out = append(out, FromModel(item))
	}
	return out
}
