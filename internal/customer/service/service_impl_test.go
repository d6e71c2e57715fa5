package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/customer/domain"
	"github.com/smallbiznis/orderbill/internal/customer/repository"
	"github.com/smallbiznis/orderbill/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{DB: conn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})
}

func TestCreateAndGetCustomer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: " Acme ", Email: "ops@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Name)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "ops@acme.test", got.Email)

	list, err := svc.List(ctx, domain.ListCustomerFilter{Name: "Acme"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateCustomerValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "", Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(context.Background(), domain.CreateCustomerRequest{Name: "x", Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestGetCustomerErrors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(context.Background(), "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
