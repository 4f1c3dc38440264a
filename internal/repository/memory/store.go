// Package memory is a process-local implementation of the repository
// interfaces. It enforces the same uniqueness and reference constraints as
// the relational schema and is used for development and tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"biro-server/internal/model"
	"biro-server/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	users        map[int]model.User
	sessions     map[string]model.Session // keyed by string(token)
	customers    map[int]model.Customer
	productTypes map[int]model.ProductType
	products     map[int]model.Product
	metadata     map[int]model.ProductMetadata

	nextCustomerID int
	nextProductID  int
}

func NewStore() *Store {
	return &Store{
		users:          make(map[int]model.User),
		sessions:       make(map[string]model.Session),
		customers:      make(map[int]model.Customer),
		productTypes:   make(map[int]model.ProductType),
		products:       make(map[int]model.Product),
		metadata:       make(map[int]model.ProductMetadata),
		nextCustomerID: 1,
		nextProductID:  1,
	}
}

func (s *Store) Users() repository.UserRepository               { return userRepo{s} }
func (s *Store) Sessions() repository.SessionRepository         { return sessionRepo{s} }
func (s *Store) Customers() repository.CustomerRepository       { return customerRepo{s} }
func (s *Store) ProductTypes() repository.ProductTypeRepository { return productTypeRepo{s} }
func (s *Store) Products() repository.ProductRepository         { return productRepo{s} }
func (s *Store) Stats() repository.StatsRepository              { return statsRepo{s} }

// ---- users ----

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) FindByID(_ context.Context, id int) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (r userRepo) FindByIDs(_ context.Context, ids []int) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := []model.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r userRepo) MaxID(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	max := 0
	for id := range r.s.users {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func cloneUser(u model.User) model.User {
	u.PasswordHash = bytes.Clone(u.PasswordHash)
	u.Salt = bytes.Clone(u.Salt)
	return u
}

// ---- sessions ----

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[session.UserID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.s.sessions[string(session.Token)]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.s.sessions {
		if existing.UserID == session.UserID {
			return repository.ErrDuplicate
		}
	}
	stored := *session
	stored.Token = bytes.Clone(session.Token)
	stored.User = nil
	r.s.sessions[string(stored.Token)] = stored
	return nil
}

func (r sessionRepo) FindByToken(_ context.Context, token []byte) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[string(token)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withUser(session), nil
}

func (r sessionRepo) FindByUserID(_ context.Context, userID int) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, session := range r.s.sessions {
		if session.UserID == userID {
			return r.withUser(session), nil
		}
	}
	return nil, repository.ErrNotFound
}

// withUser must be called with the store lock held.
func (r sessionRepo) withUser(session model.Session) *model.Session {
	out := session
	out.Token = bytes.Clone(session.Token)
	if u, ok := r.s.users[session.UserID]; ok {
		user := cloneUser(u)
		out.User = &user
	}
	return &out
}

func (r sessionRepo) UpdateExpiration(_ context.Context, token []byte, expiration time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[string(token)]
	if !ok {
		return repository.ErrNotFound
	}
	session.Expiration = expiration
	r.s.sessions[string(token)] = session
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for key, session := range r.s.sessions {
		if session.Expired(now) {
			delete(r.s.sessions, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r sessionRepo) CountActive(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.countActiveSessions(now), nil
}

func (s *Store) countActiveSessions(now time.Time) int64 {
	var n int64
	for _, session := range s.sessions {
		if !session.Expired(now) {
			n++
		}
	}
	return n
}

// ---- customers ----

type customerRepo struct{ s *Store }

func (r customerRepo) Create(_ context.Context, customer *model.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.customerPairTaken(customer.Name, customer.Address, 0) {
		return repository.ErrDuplicate
	}
	customer.ID = r.s.nextCustomerID
	r.s.nextCustomerID++
	now := time.Now().UTC()
	customer.CreatedAt, customer.UpdatedAt = now, now
	r.s.customers[customer.ID] = *customer
	return nil
}

func (s *Store) customerPairTaken(name, address string, exceptID int) bool {
	for id, c := range s.customers {
		if id != exceptID && c.Name == name && c.Address == address {
			return true
		}
	}
	return false
}

func (r customerRepo) FindByID(_ context.Context, id int) (*model.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r customerRepo) FindByNamePrefix(_ context.Context, prefix string) ([]model.Customer, error) {
	return r.findByPrefix(prefix, func(c model.Customer) string { return c.Name }), nil
}

func (r customerRepo) FindByAddressPrefix(_ context.Context, prefix string) ([]model.Customer, error) {
	return r.findByPrefix(prefix, func(c model.Customer) string { return c.Address }), nil
}

func (r customerRepo) findByPrefix(prefix string, field func(model.Customer) string) []model.Customer {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lowered := strings.ToLower(prefix)
	customers := []model.Customer{}
	for _, c := range r.s.customers {
		if strings.HasPrefix(strings.ToLower(field(c)), lowered) {
			customers = append(customers, c)
		}
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers
}

func (r customerRepo) Update(_ context.Context, customer *model.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.customers[customer.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.s.customerPairTaken(customer.Name, customer.Address, customer.ID) {
		return repository.ErrDuplicate
	}
	existing.Name = customer.Name
	existing.Address = customer.Address
	existing.UpdatedAt = time.Now().UTC()
	r.s.customers[customer.ID] = existing
	return nil
}

func (r customerRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.s.products {
		if p.CustomerID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.s.customers, id)
	return nil
}

func (r customerRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.customers)), nil
}

// ---- product types ----

type productTypeRepo struct{ s *Store }

func (r productTypeRepo) Create(_ context.Context, productType *model.ProductType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.productTypes[productType.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, t := range r.s.productTypes {
		if t.Name == productType.Name {
			return repository.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	productType.CreatedAt, productType.UpdatedAt = now, now
	r.s.productTypes[productType.ID] = *productType
	return nil
}

func (r productTypeRepo) FindByID(_ context.Context, id int) (*model.ProductType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.productTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r productTypeRepo) FindByName(_ context.Context, name string) (*model.ProductType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.productTypes {
		if t.Name == name {
			out := t
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r productTypeRepo) FindAll(_ context.Context) ([]model.ProductType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	types := make([]model.ProductType, 0, len(r.s.productTypes))
	for _, t := range r.s.productTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}

func (r productTypeRepo) MaxID(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	max := 0
	for id := range r.s.productTypes {
		if id > max {
			max = id
		}
	}
	return max, nil
}

// ---- products ----

type productRepo struct{ s *Store }

func (r productRepo) CreateWithMetadata(_ context.Context, product *model.Product, metadata *model.ProductMetadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.productTypes[product.TypeID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.s.customers[product.CustomerID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.s.users[metadata.UserID]; !ok {
		return repository.ErrReferenced
	}
	for _, p := range r.s.products {
		if p.TypeID == product.TypeID && p.SerialNumber == product.SerialNumber {
			return repository.ErrDuplicate
		}
	}

	product.ID = r.s.nextProductID
	r.s.nextProductID++
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	metadata.ProductID = product.ID

	stored := *product
	stored.Type, stored.Customer, stored.Metadata = nil, nil, nil
	r.s.products[product.ID] = stored
	r.s.metadata[product.ID] = *metadata
	product.Metadata = metadata
	return nil
}

func (r productRepo) FindByID(_ context.Context, id int) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := r.s.withRelations(p)
	return &out, nil
}

func (r productRepo) FindByType(_ context.Context, typeID int) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool { return p.TypeID == typeID }), nil
}

func (r productRepo) FindByTypeAndSerial(_ context.Context, typeID, serialNumber int) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool {
		return p.TypeID == typeID && p.SerialNumber == serialNumber
	}), nil
}

func (r productRepo) FindByCustomer(_ context.Context, customerID int) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool { return p.CustomerID == customerID }), nil
}

func (r productRepo) filter(keep func(model.Product) bool) []model.Product {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := []model.Product{}
	for _, p := range r.s.products {
		if keep(p) {
			products = append(products, r.s.withRelations(p))
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].TypeID != products[j].TypeID {
			return products[i].TypeID < products[j].TypeID
		}
		return products[i].SerialNumber < products[j].SerialNumber
	})
	return products
}

// withRelations must be called with the store lock held.
func (s *Store) withRelations(p model.Product) model.Product {
	if t, ok := s.productTypes[p.TypeID]; ok {
		p.Type = &t
	}
	if c, ok := s.customers[p.CustomerID]; ok {
		p.Customer = &c
	}
	if m, ok := s.metadata[p.ID]; ok {
		p.Metadata = &m
	}
	return p
}

func (r productRepo) ExistsSerial(_ context.Context, typeID, serialNumber int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.products {
		if p.TypeID == typeID && p.SerialNumber == serialNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r productRepo) MaxSerial(_ context.Context, typeID int) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	max := 0
	for _, p := range r.s.products {
		if p.TypeID == typeID && p.SerialNumber > max {
			max = p.SerialNumber
		}
	}
	return max, nil
}

func (r productRepo) CountByCustomer(_ context.Context, customerID int) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, p := range r.s.products {
		if p.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r productRepo) UpdateCustomer(_ context.Context, id, customerID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.customers[customerID]; !ok {
		return repository.ErrReferenced
	}
	p.CustomerID = customerID
	p.UpdatedAt = time.Now().UTC()
	r.s.products[id] = p
	return nil
}

func (r productRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	delete(r.s.metadata, id)
	return nil
}

func (r productRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.products)), nil
}

// ---- stats ----

type statsRepo struct{ s *Store }

func (r statsRepo) GetStats(_ context.Context, now time.Time) (*repository.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return &repository.Stats{
		TotalCustomers:    int64(len(r.s.customers)),
		TotalProducts:     int64(len(r.s.products)),
		TotalProductTypes: int64(len(r.s.productTypes)),
		ActiveSessions:    r.s.countActiveSessions(now),
	}, nil
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:        s.Users(),
		Sessions:     s.Sessions(),
		Customers:    s.Customers(),
		ProductTypes: s.ProductTypes(),
		Products:     s.Products(),
		Stats:        s.Stats(),
	}
}
