package sweets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	adminCaller    = auth.Caller{UserID: uuid.New(), Role: enums.RoleAdmin}
	customerCaller = auth.Caller{UserID: uuid.New(), Role: enums.RoleCustomer}
)

type serviceFixture struct {
	svc      Service
	store    *MemoryStore
	registry *prometheus.Registry
	logs     *bytes.Buffer
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	store := NewMemoryStore()
	registry := prometheus.NewRegistry()
	logs := &bytes.Buffer{}

	svc, err := NewService(store, newTestLogger(logs), ServiceOptions{
		Metrics:           metrics.NewInventoryMetrics(registry),
		LowStockThreshold: 2,
	})
	require.NoError(t, err)
	return serviceFixture{svc: svc, store: store, registry: registry, logs: logs}
}

func (f serviceFixture) seed(t *testing.T, name string, quantity int) *SweetDTO {
	t.Helper()
	created, err := f.svc.CreateSweet(context.Background(), adminCaller, newInput(name, "Chocolate", "2.50", quantity))
	require.NoError(t, err)
	return created
}

func (f serviceFixture) counter(t *testing.T, name, label, value string) float64 {
	t.Helper()
	mfs, err := f.registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabel(metric.GetLabel(), label, value) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	logg := newTestLogger(&bytes.Buffer{})

	_, err := NewService(nil, logg, ServiceOptions{})
	assert.Error(t, err)
	_, err = NewService(NewMemoryStore(), nil, ServiceOptions{})
	assert.Error(t, err)
	_, err = NewService(NewMemoryStore(), logg, ServiceOptions{LowStockThreshold: -1})
	assert.Error(t, err)
}

func TestServiceAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	existing := f.seed(t, "Bonbon", 5)
	anonymous := auth.Caller{}

	adminOnly := map[string]func(caller auth.Caller) error{
		"create": func(c auth.Caller) error {
			_, err := f.svc.CreateSweet(ctx, c, newInput("Mint", "Hard", "1.00", 1))
			return err
		},
		"update": func(c auth.Caller) error {
			_, err := f.svc.UpdateSweet(ctx, c, existing.ID, UpdateInput{Quantity: ptr(3)})
			return err
		},
		"delete": func(c auth.Caller) error {
			return f.svc.DeleteSweet(ctx, c, uuid.New())
		},
		"restock": func(c auth.Caller) error {
			_, err := f.svc.RestockSweet(ctx, c, existing.ID, 1)
			return err
		},
	}
	for name, call := range adminOnly {
		t.Run(name, func(t *testing.T) {
			assert.True(t, pkgerrors.IsCode(call(customerCaller), pkgerrors.CodeForbidden))
			assert.True(t, pkgerrors.IsCode(call(anonymous), pkgerrors.CodeUnauthorized))
		})
	}

	memberOps := map[string]func(caller auth.Caller) error{
		"get": func(c auth.Caller) error {
			_, err := f.svc.GetSweet(ctx, c, existing.ID)
			return err
		},
		"list": func(c auth.Caller) error {
			_, err := f.svc.ListSweets(ctx, c)
			return err
		},
		"search": func(c auth.Caller) error {
			_, err := f.svc.SearchSweets(ctx, c, Filters{Name: "bon"})
			return err
		},
		"purchase": func(c auth.Caller) error {
			_, err := f.svc.PurchaseSweet(ctx, c, existing.ID, 1)
			return err
		},
	}
	for name, call := range memberOps {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, call(customerCaller))
			assert.True(t, pkgerrors.IsCode(call(anonymous), pkgerrors.CodeUnauthorized))
		})
	}

	got, err := f.svc.GetSweet(ctx, adminCaller, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity, "rejected callers must not move stock")
}

func TestServicePurchase(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	sweet := f.seed(t, "Truffle", 5)

	got, err := f.svc.PurchaseSweet(ctx, customerCaller, sweet.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	_, err = f.svc.PurchaseSweet(ctx, customerCaller, sweet.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	_, err = f.svc.PurchaseSweet(ctx, customerCaller, sweet.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.PurchaseSweet(ctx, customerCaller, uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err = f.svc.PurchaseSweet(ctx, customerCaller, sweet.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	assert.Equal(t, float64(2), f.counter(t, "inventory_purchases_total", "outcome", metrics.OutcomeSuccess))
	assert.Equal(t, float64(1), f.counter(t, "inventory_purchases_total", "outcome", metrics.OutcomeInsufficientStock))
	assert.Equal(t, float64(1), f.counter(t, "inventory_purchases_total", "outcome", metrics.OutcomeRejected))
	assert.Equal(t, float64(1), f.counter(t, "inventory_purchases_total", "outcome", metrics.OutcomeNotFound))
	assert.Equal(t, float64(5), f.counter(t, "inventory_units_moved_total", "direction", metrics.DirectionOut))
}

func TestServicePurchaseLogsStockWarnings(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	sweet := f.seed(t, "Fudge", 4)

	_, err := f.svc.PurchaseSweet(ctx, customerCaller, sweet.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.PurchaseSweet(ctx, customerCaller, sweet.ID, 2)
	require.NoError(t, err)

	var lowStock, soldOut map[string]any
	for _, line := range strings.Split(strings.TrimSpace(f.logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		switch entry["message"] {
		case "inventory.low_stock":
			lowStock = entry
		case "inventory.sold_out":
			soldOut = entry
		}
	}

	require.NotNil(t, lowStock, "expected low stock warning")
	assert.Equal(t, "warn", lowStock["level"])
	assert.Equal(t, float64(2), lowStock["remaining"])

	require.NotNil(t, soldOut, "expected sold out warning")
	assert.Equal(t, "warn", soldOut["level"])
	assert.Equal(t, sweet.ID.String(), soldOut["sweet_id"])
	assert.Equal(t, float64(0), soldOut["remaining"])
	assert.Equal(t, "purchase", soldOut["inventory_op"])
	assert.Equal(t, float64(-2), soldOut["delta"])
}

func TestServiceRestock(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	sweet := f.seed(t, "Caramel", 1)

	got, err := f.svc.RestockSweet(ctx, adminCaller, sweet.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	for _, qty := range []int{0, -4} {
		_, err := f.svc.RestockSweet(ctx, adminCaller, sweet.ID, qty)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "qty %d", qty)
	}

	_, err = f.svc.RestockSweet(ctx, adminCaller, uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err = f.svc.GetSweet(ctx, customerCaller, sweet.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	assert.Equal(t, float64(1), f.counter(t, "inventory_restocks_total", "outcome", metrics.OutcomeSuccess))
	assert.Equal(t, float64(2), f.counter(t, "inventory_restocks_total", "outcome", metrics.OutcomeRejected))
	assert.Equal(t, float64(9), f.counter(t, "inventory_units_moved_total", "direction", metrics.DirectionIn))
}

func TestServiceCatalogOperations(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	empty, err := f.svc.ListSweets(ctx, customerCaller)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	bar := f.seed(t, "Chocolate Bar", 3)
	f.seed(t, "Vanilla", 3)
	assert.Equal(t, json.Number("2.50"), bar.Price)

	found, err := f.svc.SearchSweets(ctx, customerCaller, Filters{Name: "CHOC"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bar.ID, found[0].ID)

	all, err := f.svc.SearchSweets(ctx, customerCaller, Filters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	updated, err := f.svc.UpdateSweet(ctx, adminCaller, bar.ID, UpdateInput{Price: ptr(price("3"))})
	require.NoError(t, err)
	assert.Equal(t, json.Number("3.00"), updated.Price)
	assert.Equal(t, 3, updated.Quantity)

	require.NoError(t, f.svc.DeleteSweet(ctx, adminCaller, bar.ID))
	_, err = f.svc.GetSweet(ctx, customerCaller, bar.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(f.svc.DeleteSweet(ctx, adminCaller, bar.ID), pkgerrors.CodeNotFound))
}

type failingStore struct {
	Store
	err error
}

func (s failingStore) List(context.Context) ([]models.Sweet, error) {
	return nil, s.err
}

func TestServicePropagatesStoreFailures(t *testing.T) {
	cause := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("disk on fire"), "db: list sweets")
	svc, err := NewService(failingStore{Store: NewMemoryStore(), err: cause}, newTestLogger(&bytes.Buffer{}), ServiceOptions{})
	require.NoError(t, err)

	_, err = svc.ListSweets(context.Background(), customerCaller)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	assert.ErrorIs(t, err, cause)
}
