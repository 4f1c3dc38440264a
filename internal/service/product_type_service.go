package service

import (
	"context"
	"errors"

	"biro-server/internal/model"
)

type ProductTypeRequest struct {
	ID   int    `json:"id" validate:"omitempty,min=1"`
	Name string `json:"name" validate:"required,max=50"`
}

type ProductTypeSelector struct {
	ID   *int
	Name *string
}

type ProductTypeService interface {
	Create(ctx context.Context, req *ProductTypeRequest) (*model.ProductType, error)
	Read(ctx context.Context, sel ProductTypeSelector) ([]model.ProductType, error)
}

type productTypeService struct {
	allocator *SerialAllocator
	events    EventPublisher
}

func NewProductTypeService(allocator *SerialAllocator, events EventPublisher) ProductTypeService {
	return &productTypeService{allocator: allocator, events: events}
}

func (s *productTypeService) Create(ctx context.Context, req *ProductTypeRequest) (*model.ProductType, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	h, err := s.allocator.CreateType(ctx, req.Name, req.ID)
	if err != nil {
		return nil, err
	}
	pt := h.Model()
	s.events.Publish(EventProductTypeCreated, pt)
	return &pt, nil
}

// Read goes through the allocator so a looked-up type is cached for the
// reservations that usually follow.
func (s *productTypeService) Read(ctx context.Context, sel ProductTypeSelector) ([]model.ProductType, error) {
	var (
		h   *ProductTypeHandle
		err error
	)
	switch {
	case sel.ID != nil:
		h, err = s.allocator.GetOrLoadTypeByID(ctx, *sel.ID)
	case sel.Name != nil:
		h, err = s.allocator.GetOrLoadTypeByName(ctx, *sel.Name)
	default:
		return s.allocator.types.FindAll(ctx)
	}
	if errors.Is(err, ErrNotFound) {
		return []model.ProductType{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []model.ProductType{h.Model()}, nil
}
