package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"biro-server/internal/clock"
	"biro-server/internal/model"
	"biro-server/internal/repository"

	"go.uber.org/zap"
)

// ReserveRequest names the type by id or by name. A SerialNumber of 0 or
// below asks the server to pick the next free number.
type ReserveRequest struct {
	TypeID       int    `json:"type_id" validate:"omitempty,min=1"`
	TypeName     string `json:"type_name" validate:"omitempty,max=50"`
	SerialNumber int    `json:"serial_number"`
	CustomerID   int    `json:"customer_id" validate:"required,min=1"`
}

type ReserveOutcome struct {
	Product      *model.Product
	SerialNumber int
	// Corrected is set when the proposed number could not be honored.
	Corrected bool
}

// ProductSelector holds exactly one of ID, TypeID (optionally with Serial)
// or CustomerID.
type ProductSelector struct {
	ID         *int
	TypeID     *int
	Serial     *int `validate:"omitempty,serial"`
	CustomerID *int
}

type ProductService interface {
	Reserve(ctx context.Context, token []byte, req *ReserveRequest) (*ReserveOutcome, error)
	Read(ctx context.Context, sel ProductSelector) ([]model.Product, map[int]string, error)
	UpdateCustomer(ctx context.Context, id, customerID int) (*model.Product, error)
	Delete(ctx context.Context, id int) error
}

type productService struct {
	products  repository.ProductRepository
	customers repository.CustomerRepository
	users     repository.UserRepository
	sessions  SessionManager
	allocator *SerialAllocator
	clock     clock.Clock
	events    EventPublisher
	log       *zap.SugaredLogger
}

func NewProductService(
	repos repository.Repositories,
	sessions SessionManager,
	allocator *SerialAllocator,
	clk clock.Clock,
	events EventPublisher,
	log *zap.SugaredLogger,
) ProductService {
	return &productService{
		products:  repos.Products,
		customers: repos.Customers,
		users:     repos.Users,
		sessions:  sessions,
		allocator: allocator,
		clock:     clk,
		events:    events,
		log:       log,
	}
}

func (s *productService) Reserve(ctx context.Context, token []byte, req *ReserveRequest) (*ReserveOutcome, error) {
	// 1. Validate input
	if err := validate(req); err != nil {
		return nil, err
	}
	typeName := strings.TrimSpace(req.TypeName)
	if (req.TypeID == 0) == (typeName == "") {
		return nil, invalid("type", "exactly one of type_id or type_name is required")
	}

	// 2. Who is reserving
	owner, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	// 3. Resolve type and customer
	var h *ProductTypeHandle
	if req.TypeID != 0 {
		h, err = s.allocator.GetOrLoadTypeByID(ctx, req.TypeID)
	} else {
		h, err = s.allocator.GetOrLoadTypeByName(ctx, typeName)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.customers.FindByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, req.CustomerID)
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}

	// 4. Claim a serial number
	proposed := req.SerialNumber
	if proposed < 0 {
		proposed = 0
	}
	serial, err := h.Reserve(ctx, proposed)
	if err != nil {
		return nil, err
	}

	// 5. Product and metadata in one transaction
	product := &model.Product{
		TypeID:       h.ID(),
		SerialNumber: serial,
		CustomerID:   req.CustomerID,
	}
	metadata := &model.ProductMetadata{
		UserID:      owner.ID,
		ReserveTime: s.clock.Now(),
	}
	if err := s.products.CreateWithMetadata(ctx, product, metadata); err != nil {
		h.Release(serial)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.log.Errorw("allocated serial already stored", "type_id", h.ID(), "serial", serial)
			return nil, fmt.Errorf("%w: serial %d of type %d is taken", ErrConflict, serial, h.ID())
		case errors.Is(err, repository.ErrReferenced):
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, req.CustomerID)
		}
		return nil, fmt.Errorf("store product: %w", err)
	}
	h.Confirm(serial)

	s.log.Infow("product reserved",
		"product_id", product.ID, "type_id", h.ID(), "serial", serial,
		"proposed", req.SerialNumber, "user_id", owner.ID)
	s.events.Publish(EventProductReserved, product)

	return &ReserveOutcome{
		Product:      product,
		SerialNumber: serial,
		Corrected:    serial != req.SerialNumber,
	}, nil
}

// Read also returns the usernames of the users who reserved the matches,
// keyed by user id.
func (s *productService) Read(ctx context.Context, sel ProductSelector) ([]model.Product, map[int]string, error) {
	if err := validate(&sel); err != nil {
		return nil, nil, err
	}

	var (
		products []model.Product
		err      error
	)
	switch {
	case sel.ID != nil:
		var p *model.Product
		p, err = s.products.FindByID(ctx, *sel.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return []model.Product{}, map[int]string{}, nil
		}
		if p != nil {
			products = []model.Product{*p}
		}
	case sel.TypeID != nil && sel.Serial != nil:
		products, err = s.products.FindByTypeAndSerial(ctx, *sel.TypeID, *sel.Serial)
	case sel.TypeID != nil:
		products, err = s.products.FindByType(ctx, *sel.TypeID)
	case sel.CustomerID != nil:
		products, err = s.products.FindByCustomer(ctx, *sel.CustomerID)
	default:
		return nil, nil, invalid("selector", "one of id, type or customer is required")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read products: %w", err)
	}

	userContext, err := s.owners(ctx, products)
	if err != nil {
		return nil, nil, err
	}
	return products, userContext, nil
}

func (s *productService) owners(ctx context.Context, products []model.Product) (map[int]string, error) {
	seen := make(map[int]bool)
	var ids []int
	for _, p := range products {
		if p.Metadata != nil && !seen[p.Metadata.UserID] {
			seen[p.Metadata.UserID] = true
			ids = append(ids, p.Metadata.UserID)
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load product owners: %w", err)
	}
	out := make(map[int]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

func (s *productService) UpdateCustomer(ctx context.Context, id, customerID int) (*model.Product, error) {
	if customerID < 1 {
		return nil, invalid("customer_id", "customer_id is required")
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}

	if err := s.products.UpdateCustomer(ctx, id, customerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		case errors.Is(err, repository.ErrReferenced):
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload product: %w", err)
	}
	s.events.Publish(EventProductUpdated, product)
	return product, nil
}

// Delete removes the product. Its serial number was confirmed when the row
// was stored, so once the row is gone a later reservation can backfill it.
func (s *productService) Delete(ctx context.Context, id int) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return fmt.Errorf("load product: %w", err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.log.Infow("product deleted", "product_id", product.ID, "type_id", product.TypeID, "serial", product.SerialNumber)
	s.events.Publish(EventProductDeleted, map[string]int{
		"id":            product.ID,
		"type_id":       product.TypeID,
		"serial_number": product.SerialNumber,
	})
	return nil
}
