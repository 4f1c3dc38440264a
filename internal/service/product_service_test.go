package service

import (
	"context"
	"sync"
	"testing"

	"biro-server/internal/model"
	"biro-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reserveEnv struct {
	f        *fixture
	user     *model.User
	token    []byte
	customer *model.Customer
	widget   *ProductTypeHandle
}

func newReserveEnv(t *testing.T) *reserveEnv {
	f := newFixture(t)
	user := f.addUser(t, "Test_123")
	return &reserveEnv{
		f:        f,
		user:     user,
		token:    f.login(t, user),
		customer: f.addCustomer(t, "John Doe", "123 Main Street"),
		widget:   f.addType(t, "widget"),
	}
}

func (e *reserveEnv) reserve(t *testing.T, serial int) *ReserveOutcome {
	t.Helper()
	out, err := e.f.products.Reserve(context.Background(), e.token, &ReserveRequest{
		TypeID:       e.widget.ID(),
		SerialNumber: serial,
		CustomerID:   e.customer.ID,
	})
	require.NoError(t, err)
	return out
}

func TestReserve_HonorsFreeSerial(t *testing.T) {
	e := newReserveEnv(t)

	out := e.reserve(t, 1)
	assert.Equal(t, 1, out.SerialNumber)
	assert.False(t, out.Corrected)
	require.NotNil(t, out.Product.Metadata)
	assert.Equal(t, e.user.ID, out.Product.Metadata.UserID)
	assert.Equal(t, e.f.clock.Now(), out.Product.Metadata.ReserveTime)

	_, reserved := e.widget.Snapshot()
	assert.Empty(t, reserved, "confirmed serials leave the reserved set")
}

func TestReserve_CorrectsTakenSerial(t *testing.T) {
	e := newReserveEnv(t)
	e.reserve(t, 1)

	out := e.reserve(t, 1)
	assert.True(t, out.Corrected)
	assert.Equal(t, 2, out.SerialNumber)

	out = e.reserve(t, 9)
	assert.True(t, out.Corrected)
	assert.Equal(t, 3, out.SerialNumber)

	out = e.reserve(t, 0)
	assert.True(t, out.Corrected)
	assert.Equal(t, 4, out.SerialNumber)
}

func TestReserve_ByTypeName(t *testing.T) {
	e := newReserveEnv(t)

	for i, name := range []string{"widget", " widget", "widget\t"} {
		out, err := e.f.products.Reserve(context.Background(), e.token, &ReserveRequest{
			TypeName:     name,
			SerialNumber: i + 1,
			CustomerID:   e.customer.ID,
		})
		require.NoError(t, err, "type name %q", name)
		assert.Equal(t, e.widget.ID(), out.Product.TypeID)
		assert.Equal(t, i+1, out.SerialNumber)
	}

	_, err := e.f.products.Reserve(context.Background(), e.token, &ReserveRequest{
		TypeName:   "   ",
		CustomerID: e.customer.ID,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReserve_NegativeSerialTakesNextNumber(t *testing.T) {
	e := newReserveEnv(t)
	e.reserve(t, 1)

	out := e.reserve(t, -5)
	assert.True(t, out.Corrected)
	assert.Equal(t, 2, out.SerialNumber)

	_, reserved := e.widget.Snapshot()
	assert.Empty(t, reserved)
}

func TestReserve_Rejections(t *testing.T) {
	e := newReserveEnv(t)
	ctx := context.Background()

	_, err := e.f.products.Reserve(ctx, []byte("bogus"), &ReserveRequest{TypeID: e.widget.ID(), SerialNumber: 1, CustomerID: e.customer.ID})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.f.products.Reserve(ctx, e.token, &ReserveRequest{TypeID: e.widget.ID(), TypeName: "widget", SerialNumber: 1, CustomerID: e.customer.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.f.products.Reserve(ctx, e.token, &ReserveRequest{TypeID: 404, SerialNumber: 1, CustomerID: e.customer.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.f.products.Reserve(ctx, e.token, &ReserveRequest{TypeID: e.widget.ID(), SerialNumber: 1, CustomerID: 404})
	assert.ErrorIs(t, err, ErrNotFound)

	next, reserved := e.widget.Snapshot()
	assert.Equal(t, 1, next, "rejected requests claim nothing")
	assert.Empty(t, reserved)
}

func TestReserve_ConcurrentRequestsPersistDistinctSerials(t *testing.T) {
	e := newReserveEnv(t)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.f.products.Reserve(ctx, e.token, &ReserveRequest{
				TypeID:       e.widget.ID(),
				SerialNumber: i%5 + 1,
				CustomerID:   e.customer.ID,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	products, err := e.f.repos.Products.FindByType(ctx, e.widget.ID())
	require.NoError(t, err)
	require.Len(t, products, n)
	for i, p := range products {
		assert.Equal(t, i+1, p.SerialNumber)
	}
}

func TestProductRead_WithUserContext(t *testing.T) {
	e := newReserveEnv(t)
	ctx := context.Background()
	first := e.reserve(t, 1)
	e.reserve(t, 2)

	products, users, err := e.f.products.Read(ctx, ProductSelector{TypeID: intPtr(e.widget.ID())})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, map[int]string{e.user.ID: "Test_123"}, users)

	products, _, err = e.f.products.Read(ctx, ProductSelector{TypeID: intPtr(e.widget.ID()), Serial: intPtr(2)})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 2, products[0].SerialNumber)

	products, _, err = e.f.products.Read(ctx, ProductSelector{ID: intPtr(first.Product.ID)})
	require.NoError(t, err)
	require.Len(t, products, 1)

	products, _, err = e.f.products.Read(ctx, ProductSelector{CustomerID: intPtr(e.customer.ID)})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, users, err = e.f.products.Read(ctx, ProductSelector{ID: intPtr(999)})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Empty(t, users)

	_, _, err = e.f.products.Read(ctx, ProductSelector{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductUpdateCustomer(t *testing.T) {
	e := newReserveEnv(t)
	ctx := context.Background()
	out := e.reserve(t, 1)
	other := e.f.addCustomer(t, "Jane Doe", "9 Elm Road")

	updated, err := e.f.products.UpdateCustomer(ctx, out.Product.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, updated.CustomerID)

	_, err = e.f.products.UpdateCustomer(ctx, out.Product.ID, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.f.products.UpdateCustomer(ctx, 404, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductDelete_SerialCanBeBackfilled(t *testing.T) {
	e := newReserveEnv(t)
	ctx := context.Background()
	e.reserve(t, 1)
	second := e.reserve(t, 2)
	e.reserve(t, 3)

	require.NoError(t, e.f.products.Delete(ctx, second.Product.ID))
	assert.ErrorIs(t, e.f.products.Delete(ctx, second.Product.ID), ErrNotFound)

	out := e.reserve(t, 2)
	assert.False(t, out.Corrected)
	assert.Equal(t, 2, out.SerialNumber)

	assert.Contains(t, e.f.events.types(), EventProductDeleted)
}

// deleteHookProducts runs afterDelete once the row is gone but before the
// service sees Delete return.
type deleteHookProducts struct {
	repository.ProductRepository
	afterDelete func()
}

func (r deleteHookProducts) Delete(ctx context.Context, id int) error {
	if err := r.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.afterDelete()
	return nil
}

func TestProductDelete_KeepsConcurrentBackfillReserved(t *testing.T) {
	e := newReserveEnv(t)
	ctx := context.Background()
	first := e.reserve(t, 1)

	inFlight := 0
	repos := e.f.repos
	repos.Products = deleteHookProducts{
		ProductRepository: e.f.repos.Products,
		afterDelete: func() {
			n, err := e.widget.Reserve(ctx, 1)
			require.NoError(t, err)
			inFlight = n
		},
	}
	products := NewProductService(repos, e.f.sessions, e.f.allocator, e.f.clock, e.f.events, e.f.log)

	require.NoError(t, products.Delete(ctx, first.Product.ID))
	require.Equal(t, 1, inFlight, "backfill of the deleted serial")

	next, err := e.widget.Reserve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, next, "serial 1 is still held by the in-flight reservation")

	_, reserved := e.widget.Snapshot()
	assert.Equal(t, []int{1, 2}, reserved)
}

func TestProductRead_RejectsNegativeSerial(t *testing.T) {
	e := newReserveEnv(t)
	typeID, serial := e.widget.ID(), -1

	_, _, err := e.f.products.Read(context.Background(), ProductSelector{TypeID: &typeID, Serial: &serial})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductDelete_UnblocksCustomerDelete(t *testing.T) {
	e := newReserveEnv(t)
	ctx := context.Background()
	out := e.reserve(t, 1)

	assert.ErrorIs(t, e.f.customers.Delete(ctx, e.customer.ID), ErrConflict)
	require.NoError(t, e.f.products.Delete(ctx, out.Product.ID))
	assert.NoError(t, e.f.customers.Delete(ctx, e.customer.ID))
}
