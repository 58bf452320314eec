package sweets

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/angelmondragon/sweetshop-backend/pkg/db"
	"github.com/angelmondragon/sweetshop-backend/pkg/db/models"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSQLiteRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:sweets_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(&models.Sweet{}))
	return NewRepository(db.Wrap(conn))
}

type storeFactory struct {
	name string
	new  func(t *testing.T) Store
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{name: "memory", new: func(t *testing.T) Store { return NewMemoryStore() }},
		{name: "sqlite", new: func(t *testing.T) Store { return newSQLiteRepository(t) }},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Helper()
	for _, factory := range storeFactories() {
		t.Run(factory.name, func(t *testing.T) {
			fn(t, factory.new(t))
		})
	}
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newInput(name, category, amount string, quantity int) CreateInput {
	return CreateInput{Name: name, Category: category, Price: price(amount), Quantity: quantity}
}

func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{ServiceName: "sweets-test", Output: buf})
}

func ptr[T any](v T) *T {
	return &v
}
