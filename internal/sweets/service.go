package sweets

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/metrics"
	"github.com/google/uuid"
)

// Service exposes the capability-checked inventory operations.
type Service interface {
	CreateSweet(ctx context.Context, caller auth.Caller, input CreateInput) (*SweetDTO, error)
	GetSweet(ctx context.Context, caller auth.Caller, id uuid.UUID) (*SweetDTO, error)
	ListSweets(ctx context.Context, caller auth.Caller) ([]SweetDTO, error)
	SearchSweets(ctx context.Context, caller auth.Caller, filters Filters) ([]SweetDTO, error)
	UpdateSweet(ctx context.Context, caller auth.Caller, id uuid.UUID, input UpdateInput) (*SweetDTO, error)
	DeleteSweet(ctx context.Context, caller auth.Caller, id uuid.UUID) error
	PurchaseSweet(ctx context.Context, caller auth.Caller, id uuid.UUID, quantity int) (*SweetDTO, error)
	RestockSweet(ctx context.Context, caller auth.Caller, id uuid.UUID, quantity int) (*SweetDTO, error)
}

type tier int

const (
	tierMember tier = iota
	tierAdmin
)

// ServiceOptions carries the optional collaborators of the service.
type ServiceOptions struct {
	Metrics           *metrics.InventoryMetrics
	LowStockThreshold int
}

type service struct {
	store             Store
	logg              *logger.Logger
	metrics           *metrics.InventoryMetrics
	lowStockThreshold int
}

// NewService constructs the inventory service.
func NewService(store Store, logg *logger.Logger, opts ServiceOptions) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sweet store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.LowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must not be negative")
	}
	return &service{
		store:             store,
		logg:              logg,
		metrics:           opts.Metrics,
		lowStockThreshold: opts.LowStockThreshold,
	}, nil
}

func authorize(caller auth.Caller, required tier) error {
	if !caller.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if required == tierAdmin && !caller.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

func (s *service) CreateSweet(ctx context.Context, caller auth.Caller, input CreateInput) (*SweetDTO, error) {
	if err := authorize(caller, tierAdmin); err != nil {
		return nil, err
	}
	defer s.observe("create", time.Now())

	sweet, err := s.store.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOperation(s.logg.WithSweetID(ctx, sweet.ID.String()), "create")
	s.logg.Info(s.logg.WithRemaining(ctx, sweet.Quantity), "inventory.created")

	dto := FromModel(*sweet)
	return &dto, nil
}

func (s *service) GetSweet(ctx context.Context, caller auth.Caller, id uuid.UUID) (*SweetDTO, error) {
	if err := authorize(caller, tierMember); err != nil {
		return nil, err
	}
	defer s.observe("get", time.Now())

	sweet, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*sweet)
	return &dto, nil
}

func (s *service) ListSweets(ctx context.Context, caller auth.Caller) ([]SweetDTO, error) {
	if err := authorize(caller, tierMember); err != nil {
		return nil, err
	}
	defer s.observe("list", time.Now())

	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return fromModels(items), nil
}

func (s *service) SearchSweets(ctx context.Context, caller auth.Caller, filters Filters) ([]SweetDTO, error) {
	if err := authorize(caller, tierMember); err != nil {
		return nil, err
	}
	defer s.observe("search", time.Now())

	var (
		items []models.Sweet
		err   error
	)
	if filters.IsZero() {
		items, err = s.store.List(ctx)
	} else {
		items, err = s.store.Search(ctx, filters)
	}
	if err != nil {
		return nil, err
	}
	return fromModels(items), nil
}

func (s *service) UpdateSweet(ctx context.Context, caller auth.Caller, id uuid.UUID, input UpdateInput) (*SweetDTO, error) {
	if err := authorize(caller, tierAdmin); err != nil {
		return nil, err
	}
	defer s.observe("update", time.Now())

	sweet, err := s.store.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOperation(s.logg.WithSweetID(ctx, id.String()), "update"), "inventory.updated")
	dto := FromModel(*sweet)
	return &dto, nil
}

func (s *service) DeleteSweet(ctx context.Context, caller auth.Caller, id uuid.UUID) error {
	if err := authorize(caller, tierAdmin); err != nil {
		return err
	}
	defer s.observe("delete", time.Now())

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithOperation(s.logg.WithSweetID(ctx, id.String()), "delete"), "inventory.deleted")
	return nil
}

func (s *service) PurchaseSweet(ctx context.Context, caller auth.Caller, id uuid.UUID, quantity int) (*SweetDTO, error) {
	if err := authorize(caller, tierMember); err != nil {
		return nil, err
	}
	defer s.observe(logger.OpPurchase, time.Now())

	if quantity < 1 {
		s.metrics.ObservePurchase(metrics.OutcomeRejected, 0)
		return nil, quantityError("purchase quantity must be at least 1")
	}

	sweet, err := s.store.AdjustQuantity(ctx, id, -quantity, true)
	ctx = s.logg.WithStockMove(ctx, id.String(), logger.OpPurchase, quantity)
	if err != nil {
		s.metrics.ObservePurchase(outcomeFor(err), 0)
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.logg.Info(ctx, "inventory.purchase_rejected")
		}
		return nil, err
	}
	s.metrics.ObservePurchase(metrics.OutcomeSuccess, quantity)

	ctx = s.logg.WithRemaining(ctx, sweet.Quantity)
	s.logg.Info(ctx, "inventory.purchased")
	switch {
	case sweet.Quantity == 0:
		s.logg.Warn(ctx, "inventory.sold_out")
	case sweet.Quantity <= s.lowStockThreshold:
		s.logg.Warn(ctx, "inventory.low_stock")
	}

	dto := FromModel(*sweet)
	return &dto, nil
}

func (s *service) RestockSweet(ctx context.Context, caller auth.Caller, id uuid.UUID, quantity int) (*SweetDTO, error) {
	if err := authorize(caller, tierAdmin); err != nil {
		return nil, err
	}
	defer s.observe(logger.OpRestock, time.Now())

	if quantity < 1 {
		s.metrics.ObserveRestock(metrics.OutcomeRejected, 0)
		return nil, quantityError("restock quantity must be at least 1")
	}

	sweet, err := s.store.AdjustQuantity(ctx, id, quantity, false)
	if err != nil {
		s.metrics.ObserveRestock(outcomeFor(err), 0)
		return nil, err
	}
	s.metrics.ObserveRestock(metrics.OutcomeSuccess, quantity)

	ctx = s.logg.WithStockMove(ctx, id.String(), logger.OpRestock, quantity)
	s.logg.Info(s.logg.WithRemaining(ctx, sweet.Quantity), "inventory.restocked")

	dto := FromModel(*sweet)
	return &dto, nil
}

func (s *service) observe(operation string, start time.Time) {
	s.metrics.ObserveDuration(operation, time.Since(start))
}

func quantityError(message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]string{"quantity": "must be at least 1"})
}

func outcomeFor(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return metrics.OutcomeNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
