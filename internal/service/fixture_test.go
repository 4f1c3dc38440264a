package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"biro-server/internal/clock"
	"biro-server/internal/model"
	"biro-server/internal/repository"
	"biro-server/internal/repository/memory"
	"biro-server/pkg/jwt"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const testPassword = "Str0ng!Password"

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ interface{}) {
	p.mu.Lock()
	p.events = append(p.events, eventType)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type fixture struct {
	store  *memory.Store
	repos  repository.Repositories
	clock  *clock.Manual
	log    *zap.SugaredLogger
	events *recordingPublisher

	credentials  CredentialStore
	sessions     SessionManager
	allocator    *SerialAllocator
	customers    CustomerService
	productTypes ProductTypeService
	products     ProductService
	auth         AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  memory.NewStore(),
		clock:  clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		log:    zaptest.NewLogger(t).Sugar(),
		events: &recordingPublisher{},
	}
	f.repos = f.store.Repositories()
	f.credentials = NewCredentialStore(f.repos.Users, f.log)
	f.sessions = NewSessionManager(f.repos.Sessions, f.clock, DefaultSessionTTL, DefaultSweepInterval, f.log)
	f.allocator = NewSerialAllocator(f.repos.ProductTypes, f.repos.Products, f.log)
	f.customers = NewCustomerService(f.repos.Customers, f.repos.Products, f.events, f.log)
	f.productTypes = NewProductTypeService(f.allocator, f.events)
	f.products = NewProductService(f.repos, f.sessions, f.allocator, f.clock, f.events, f.log)
	f.auth = NewAuthService(f.credentials, f.sessions, jwt.NewSigner("test-secret", time.Minute), f.clock)
	return f
}

func (f *fixture) addUser(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := f.credentials.AddUser(context.Background(), username, testPassword)
	require.NoError(t, err)
	return user
}

func (f *fixture) login(t *testing.T, user *model.User) []byte {
	t.Helper()
	token, err := f.sessions.IssueOrRenew(context.Background(), user)
	require.NoError(t, err)
	return token
}

func (f *fixture) addCustomer(t *testing.T, name, address string) *model.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), &CustomerRequest{Name: name, Address: address})
	require.NoError(t, err)
	return c
}

func (f *fixture) addType(t *testing.T, name string) *ProductTypeHandle {
	t.Helper()
	h, err := f.allocator.CreateType(context.Background(), name, 0)
	require.NoError(t, err)
	return h
}

// storeProduct writes a product straight to the store, bypassing the
// allocator, the way rows written by an earlier process look.
func (f *fixture) storeProduct(t *testing.T, typeID, serial, customerID, userID int) {
	t.Helper()
	err := f.repos.Products.CreateWithMetadata(context.Background(),
		&model.Product{TypeID: typeID, SerialNumber: serial, CustomerID: customerID},
		&model.ProductMetadata{UserID: userID, ReserveTime: f.clock.Now()})
	require.NoError(t, err)
}
