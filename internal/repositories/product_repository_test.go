package repositories_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB returns an isolated in-memory SQLite database with the schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func productRepositories(t *testing.T) map[string]repositories.ProductRepository {
	return map[string]repositories.ProductRepository{
		"memory": repositories.NewInMemoryProductRepository(),
		"gorm":   repositories.NewGORMProductRepository(openTestDB(t)),
	}
}

func seed(t *testing.T, repo repositories.ProductRepository, products ...models.Product) {
	t.Helper()
	for i := range products {
		require.NoError(t, repo.Create(&products[i]))
	}
}

func stockOf(t *testing.T, repo repositories.ProductRepository, id string) int {
	t.Helper()
	p, err := repo.GetByID(id)
	require.NoError(t, err)
	return p.Stock
}

func TestProductRepository_CRUD(t *testing.T) {
	for name, repo := range productRepositories(t) {
		t.Run(name, func(t *testing.T) {
			p := models.Product{Name: "Running Femme", Category: models.CategoryFemme, Price: 10499, Stock: 22, Active: true}
			require.NoError(t, repo.Create(&p))
			assert.NotEmpty(t, p.ID)

			got, err := repo.GetByID(p.ID)
			require.NoError(t, err)
			assert.Equal(t, "Running Femme", got.Name)
			assert.Equal(t, int64(10499), got.Price)

			got.Price = 9999
			got.Active = false
			require.NoError(t, repo.Update(got))

			got, err = repo.GetByID(p.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(9999), got.Price)
			assert.False(t, got.Active)

			all, err := repo.GetAll()
			require.NoError(t, err)
			assert.Len(t, all, 1)

			_, err = repo.GetByID("missing")
			assert.True(t, errors.Is(err, apperrors.ErrNotFound))

			err = repo.Update(&models.Product{ID: "missing", Name: "Ghost", Category: models.CategoryHomme, Price: 1})
			assert.True(t, errors.Is(err, apperrors.ErrNotFound))
		})
	}
}

func TestProductRepository_ReserveStockIsAllOrNothing(t *testing.T) {
	for name, repo := range productRepositories(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo,
				models.Product{ID: "p1", Name: "Basket Homme Noir", Category: models.CategoryHomme, Price: 8999, Stock: 5, Active: true},
				models.Product{ID: "p2", Name: "Basket Femme Rose", Category: models.CategoryFemme, Price: 8499, Stock: 1, Active: true},
			)

			err := repo.ReserveStock([]models.StockLine{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 2}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
			assert.Equal(t, 5, stockOf(t, repo, "p1"), "first line must not be decremented")
			assert.Equal(t, 1, stockOf(t, repo, "p2"))

			require.NoError(t, repo.ReserveStock([]models.StockLine{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 1}}))
			assert.Equal(t, 2, stockOf(t, repo, "p1"))
			assert.Equal(t, 0, stockOf(t, repo, "p2"))

			require.NoError(t, repo.ReleaseStock([]models.StockLine{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 1}}))
			assert.Equal(t, 5, stockOf(t, repo, "p1"))
			assert.Equal(t, 1, stockOf(t, repo, "p2"))
		})
	}
}

func TestProductRepository_ReserveStockChecksCombinedDemand(t *testing.T) {
	for name, repo := range productRepositories(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo, models.Product{ID: "p1", Name: "Running Homme", Category: models.CategoryHomme, Price: 10999, Stock: 4, Active: true})

			err := repo.ReserveStock([]models.StockLine{{ProductID: "p1", Quantity: 3}, {ProductID: "p1", Quantity: 2}})
			assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
			assert.Equal(t, 4, stockOf(t, repo, "p1"))
		})
	}
}

func TestProductRepository_ReserveUnknownProduct(t *testing.T) {
	for name, repo := range productRepositories(t) {
		t.Run(name, func(t *testing.T) {
			err := repo.ReserveStock([]models.StockLine{{ProductID: "ghost", Quantity: 1}})
			assert.True(t, errors.Is(err, apperrors.ErrNotFound))
		})
	}
}

func TestProductRepository_UpdateLeavesStockAlone(t *testing.T) {
	for name, repo := range productRepositories(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo, models.Product{ID: "p1", Name: "Basket Homme Noir", Category: models.CategoryHomme, Price: 8999, Stock: 5, Active: true})

			stale, err := repo.GetByID("p1")
			require.NoError(t, err)
			require.NoError(t, repo.ReserveStock([]models.StockLine{{ProductID: "p1", Quantity: 2}}))

			stale.Price = 7999
			require.NoError(t, repo.Update(stale))
			assert.Equal(t, 3, stale.Stock)

			got, err := repo.GetByID("p1")
			require.NoError(t, err)
			assert.Equal(t, 3, got.Stock)
			assert.Equal(t, int64(7999), got.Price)
		})
	}
}
