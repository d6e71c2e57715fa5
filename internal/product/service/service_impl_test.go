package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/product/domain"
	"github.com/smallbiznis/orderbill/internal/product/repository"
	"github.com/smallbiznis/orderbill/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{DB: conn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})
}

func TestCreateAndFindBySKUs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	customerID := snowflake.ID(42)

	_, err := svc.Create(ctx, domain.CreateProductRequest{CustomerID: "42", SKU: "box-12", CaseSize: 12, Unit: "Case"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateProductRequest{CustomerID: "42", SKU: "tape"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateProductRequest{CustomerID: "43", SKU: "box-12", CaseSize: 6, Unit: "case"})
	require.NoError(t, err)

	products, err := svc.FindBySKUs(ctx, customerID, []string{"BOX12", "box 12", "TAPE", "missing", ""})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(12), products["BOX12"].CaseSize)
	assert.Equal(t, "case", products["BOX12"].Unit)
	assert.Equal(t, domain.UnitEach, products["TAPE"].Unit)

	empty, err := svc.FindBySKUs(ctx, customerID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateProductRequest{CustomerID: "7", SKU: "A-1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateProductRequest{CustomerID: "7", SKU: "a1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateSKU)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateProductRequest{CustomerID: "x", SKU: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
	_, err = svc.Create(ctx, domain.CreateProductRequest{CustomerID: "7", SKU: " - "})
	assert.ErrorIs(t, err, domain.ErrInvalidSKU)
	_, err = svc.Create(ctx, domain.CreateProductRequest{CustomerID: "7", SKU: "A", CaseSize: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidCaseSize)
}

func TestUnitsPerCase(t *testing.T) {
	assert.Equal(t, int64(12), domain.Product{CaseSize: 12, Unit: "CASE"}.UnitsPerCase("case"))
	assert.Equal(t, int64(1), domain.Product{CaseSize: 12, Unit: "each"}.UnitsPerCase("case"))
	assert.Equal(t, int64(1), domain.Product{CaseSize: 0, Unit: "case"}.UnitsPerCase("case"))
}
