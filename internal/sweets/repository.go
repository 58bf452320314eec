package sweets

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const listOrder = "created_at ASC, id ASC"

// Repository is the SQL-backed Store.
type Repository struct {
	client *db.Client
	db     *gorm.DB
	now    func() time.Time
}

// NewRepository builds a repository on the shared database client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{
		client: client,
		db:     client.DB(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new sweet with a fresh id.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*models.Sweet, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	now := r.now()
	sweet := &models.Sweet{
		ID:        uuid.New(),
		Name:      input.Name,
		Category:  input.Category,
		Price:     input.Price,
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(sweet).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "db: insert sweet")
	}
	return sweet, nil
}

// Get loads a sweet by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	return findSweet(r.db.WithContext(ctx), id)
}

// List returns every sweet in insertion order.
func (r *Repository) List(ctx context.Context) ([]models.Sweet, error) {
	return r.Search(ctx, Filters{})
}

// Search returns the sweets matching filters in insertion order.
func (r *Repository) Search(ctx context.Context, filters Filters) ([]models.Sweet, error) {
	items := []models.Sweet{}
	q := filters.apply(r.db.WithContext(ctx).Model(&models.Sweet{}))
	if err := q.Order(listOrder).Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "db: list sweets")
	}
	return items, nil
}

// Update writes only the supplied fields so concurrent stock moves are not
// overwritten by a stale quantity.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Sweet, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	assignments := map[string]any{"updated_at": r.now()}
	if input.Name != nil {
		assignments["name"] = *input.Name
	}
	if input.Category != nil {
		assignments["category"] = *input.Category
	}
	if input.Price != nil {
		assignments["price"] = *input.Price
	}
	if input.Quantity != nil {
		assignments["quantity"] = *input.Quantity
	}

	var updated *models.Sweet
	err = r.client.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Sweet{}).Where("id = ?", id).Updates(assignments)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "db: update sweet")
		}
		if res.RowsAffected == 0 {
			return notFound(id)
		}
		sweet, err := findSweet(tx, id)
		if err != nil {
			return err
		}
		updated = sweet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the sweet permanently.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Sweet{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "db: delete sweet")
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

// AdjustQuantity applies delta with a single conditional UPDATE. When no row
// matches, a reload separates a missing sweet from a stock shortfall or a
// restock past the column ceiling.
func (r *Repository) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int, guard bool) (*models.Sweet, error) {
	if err := checkDelta(delta, guard); err != nil {
		return nil, err
	}

	var adjusted *models.Sweet
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		q := tx.Model(&models.Sweet{}).Where("id = ?", id)
		if guard {
			q = q.Where("quantity + ? >= 0", delta)
		}
		if delta > 0 {
			q = q.Where("quantity <= ?", maxQuantity-delta)
		}
		res := q.Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": r.now(),
		})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "db: adjust sweet quantity")
		}

		current, err := findSweet(tx, id)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			if overflows(current.Quantity, delta) {
				return quantityOverflow(delta)
			}
			return insufficientStock(id, current.Quantity, -delta)
		}
		adjusted = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adjusted, nil
}

// Ping verifies the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func findSweet(q *gorm.DB, id uuid.UUID) (*models.Sweet, error) {
	var sweet models.Sweet
	if err := q.First(&sweet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "db: load sweet")
	}
	return &sweet, nil
}
