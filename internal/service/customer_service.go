package service

import (
	"context"
	"errors"
	"fmt"

	"biro-server/internal/model"
	"biro-server/internal/repository"

	"go.uber.org/zap"
)

type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=50"`
	Address string `json:"address" validate:"required,max=100"`
}

// CustomerSelector holds exactly one lookup key.
type CustomerSelector struct {
	ID      *int
	Name    *string
	Address *string
}

type CustomerService interface {
	Create(ctx context.Context, req *CustomerRequest) (*model.Customer, error)
	Read(ctx context.Context, sel CustomerSelector) ([]model.Customer, error)
	Update(ctx context.Context, id int, req *CustomerRequest) (*model.Customer, error)
	Delete(ctx context.Context, id int) error
}

type customerService struct {
	customers repository.CustomerRepository
	products  repository.ProductRepository
	events    EventPublisher
	log       *zap.SugaredLogger
}

func NewCustomerService(customers repository.CustomerRepository, products repository.ProductRepository, events EventPublisher, log *zap.SugaredLogger) CustomerService {
	return &customerService{
		customers: customers,
		products:  products,
		events:    events,
		log:       log,
	}
}

func (s *customerService) Create(ctx context.Context, req *CustomerRequest) (*model.Customer, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	customer := &model.Customer{Name: req.Name, Address: req.Address}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: customer %q at %q already exists", ErrConflict, req.Name, req.Address)
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.events.Publish(EventCustomerCreated, customer)
	return customer, nil
}

// Read returns an empty slice, not an error, when nothing matches.
func (s *customerService) Read(ctx context.Context, sel CustomerSelector) ([]model.Customer, error) {
	switch {
	case sel.ID != nil:
		customer, err := s.customers.FindByID(ctx, *sel.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return []model.Customer{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read customer: %w", err)
		}
		return []model.Customer{*customer}, nil
	case sel.Name != nil:
		return s.customers.FindByNamePrefix(ctx, *sel.Name)
	case sel.Address != nil:
		return s.customers.FindByAddressPrefix(ctx, *sel.Address)
	}
	return nil, invalid("selector", "one of id, name or address is required")
}

func (s *customerService) Update(ctx context.Context, id int, req *CustomerRequest) (*model.Customer, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	customer := &model.Customer{ID: id, Name: req.Name, Address: req.Address}
	if err := s.customers.Update(ctx, customer); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: customer %d", ErrNotFound, id)
		case errors.Is(err, repository.ErrDuplicate):
			return nil, fmt.Errorf("%w: customer %q at %q already exists", ErrConflict, req.Name, req.Address)
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}

	updated, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload customer: %w", err)
	}
	s.events.Publish(EventCustomerUpdated, updated)
	return updated, nil
}

// Delete refuses while any product still references the customer.
func (s *customerService) Delete(ctx context.Context, id int) error {
	refs, err := s.products.CountByCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("count customer products: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: customer %d is referenced by %d product(s)", ErrConflict, id, refs)
	}

	if err := s.customers.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%w: customer %d", ErrNotFound, id)
		case errors.Is(err, repository.ErrReferenced):
			return fmt.Errorf("%w: customer %d is referenced", ErrConflict, id)
		}
		return fmt.Errorf("delete customer: %w", err)
	}

	s.log.Infow("customer deleted", "customer_id", id)
	s.events.Publish(EventCustomerDeleted, map[string]int{"id": id})
	return nil
}
