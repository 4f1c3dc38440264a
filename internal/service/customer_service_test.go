package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCustomerCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.customers.Create(ctx, &CustomerRequest{Name: "", Address: "1 Main Street"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.customers.Create(ctx, &CustomerRequest{Name: strings.Repeat("n", 51), Address: "1 Main Street"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = f.customers.Create(ctx, &CustomerRequest{Name: "John Doe", Address: strings.Repeat("a", 101)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCustomerCreate_DuplicatePair(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "John Doe", "123 Main Street")

	_, err := f.customers.Create(context.Background(), &CustomerRequest{Name: "John Doe", Address: "123 Main Street"})
	assert.ErrorIs(t, err, ErrConflict)

	f.addCustomer(t, "John Doe", "456 Other Street")
	assert.Equal(t, []string{EventCustomerCreated, EventCustomerCreated}, f.events.types())
}

func TestCustomerRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	john := f.addCustomer(t, "John Doe", "123 Main Street")
	f.addCustomer(t, "Johanna Smith", "9 Elm Road")
	f.addCustomer(t, "Mary Major", "123 Side Street")

	got, err := f.customers.Read(ctx, CustomerSelector{ID: intPtr(john.ID)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "John Doe", got[0].Name)

	got, err = f.customers.Read(ctx, CustomerSelector{Name: strPtr("joh")})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.customers.Read(ctx, CustomerSelector{Address: strPtr("123 ")})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.customers.Read(ctx, CustomerSelector{ID: intPtr(999)})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.customers.Read(ctx, CustomerSelector{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCustomerUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	john := f.addCustomer(t, "John Doe", "123 Main Street")
	f.addCustomer(t, "Jane Doe", "123 Main Street")

	updated, err := f.customers.Update(ctx, john.ID, &CustomerRequest{Name: "John Doe", Address: "5 New Road"})
	require.NoError(t, err)
	assert.Equal(t, "5 New Road", updated.Address)

	_, err = f.customers.Update(ctx, john.ID, &CustomerRequest{Name: "Jane Doe", Address: "123 Main Street"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.customers.Update(ctx, 999, &CustomerRequest{Name: "Nobody", Address: "Nowhere"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerDelete_GuardedByProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "Test_123")
	customer := f.addCustomer(t, "John Doe", "123 Main Street")
	widget := f.addType(t, "widget")
	f.storeProduct(t, widget.ID(), 1, customer.ID, user.ID)

	err := f.customers.Delete(ctx, customer.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.repos.Customers.FindByID(ctx, customer.ID)
	assert.NoError(t, err)
	products, err := f.repos.Products.FindByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestCustomerDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.addCustomer(t, "John Doe", "123 Main Street")

	require.NoError(t, f.customers.Delete(ctx, customer.ID))
	assert.ErrorIs(t, f.customers.Delete(ctx, customer.ID), ErrNotFound)
	assert.Contains(t, f.events.types(), EventCustomerDeleted)
}
