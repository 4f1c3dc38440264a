package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"biro-server/internal/model"
	"biro-server/internal/repository"

	"go.uber.org/zap"
)

// SerialAllocator caches one ProductTypeHandle per product type and hands
// out serial numbers that are unique per type.
//
// Lock order is index (SerialAllocator.mu) before entry
// (ProductTypeHandle.mu). No path takes the index lock while holding an
// entry lock.
type SerialAllocator struct {
	types    repository.ProductTypeRepository
	products repository.ProductRepository
	log      *zap.SugaredLogger

	mu     sync.Mutex
	byID   map[int]*ProductTypeHandle
	byName map[string]*ProductTypeHandle
}

func NewSerialAllocator(types repository.ProductTypeRepository, products repository.ProductRepository, log *zap.SugaredLogger) *SerialAllocator {
	return &SerialAllocator{
		types:    types,
		products: products,
		log:      log,
		byID:     make(map[int]*ProductTypeHandle),
		byName:   make(map[string]*ProductTypeHandle),
	}
}

// ProductTypeHandle is the cached allocation state of one product type.
type ProductTypeHandle struct {
	id   int
	name string

	products repository.ProductRepository
	log      *zap.SugaredLogger

	mu       sync.Mutex
	next     int
	reserved map[int]struct{}
}

func (h *ProductTypeHandle) ID() int      { return h.id }
func (h *ProductTypeHandle) Name() string { return h.name }

func (h *ProductTypeHandle) Model() model.ProductType {
	return model.ProductType{ID: h.id, Name: h.name}
}

// GetOrLoadTypeByID returns ErrNotFound when no such type is stored.
func (a *SerialAllocator) GetOrLoadTypeByID(ctx context.Context, id int) (*ProductTypeHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h, ok := a.byID[id]; ok {
		return h, nil
	}
	pt, err := a.types.FindByID(ctx, id)
	if err != nil {
		return nil, a.loadError(err, "id", id)
	}
	return a.hydrateLocked(ctx, pt)
}

// GetOrLoadTypeByName matches the type name exactly after trimming
// surrounding whitespace, as CreateType does.
func (a *SerialAllocator) GetOrLoadTypeByName(ctx context.Context, name string) (*ProductTypeHandle, error) {
	name = strings.TrimSpace(name)
	a.mu.Lock()
	defer a.mu.Unlock()

	if h, ok := a.byName[name]; ok {
		return h, nil
	}
	pt, err := a.types.FindByName(ctx, name)
	if err != nil {
		return nil, a.loadError(err, "name", name)
	}
	if h, ok := a.byID[pt.ID]; ok {
		return h, nil
	}
	return a.hydrateLocked(ctx, pt)
}

func (a *SerialAllocator) loadError(err error, key string, value interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: product type %s=%v", ErrNotFound, key, value)
	}
	return fmt.Errorf("load product type: %w", err)
}

// hydrateLocked seeds the frontier from the highest stored serial of the
// type. Callers hold a.mu, so a type is hydrated at most once.
func (a *SerialAllocator) hydrateLocked(ctx context.Context, pt *model.ProductType) (*ProductTypeHandle, error) {
	maxSerial, err := a.products.MaxSerial(ctx, pt.ID)
	if err != nil {
		return nil, fmt.Errorf("hydrate product type %d: %w", pt.ID, err)
	}
	h := a.newHandle(pt.ID, pt.Name, maxSerial+1)
	a.byID[h.id] = h
	a.byName[h.name] = h

	a.log.Debugw("product type hydrated", "type_id", h.id, "next_serial", h.next)
	return h, nil
}

func (a *SerialAllocator) newHandle(id int, name string, next int) *ProductTypeHandle {
	return &ProductTypeHandle{
		id:       id,
		name:     name,
		products: a.products,
		log:      a.log,
		next:     next,
		reserved: make(map[int]struct{}),
	}
}

// CreateType stores a new product type. An id of 0 takes max existing id + 1.
func (a *SerialAllocator) CreateType(ctx context.Context, name string, id int) (*ProductTypeHandle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	if len([]rune(name)) > 50 {
		return nil, invalid("name", "name must be at most 50 characters")
	}
	if id < 0 {
		return nil, invalid("id", "id must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if id == 0 {
		maxID, err := a.types.MaxID(ctx)
		if err != nil {
			return nil, fmt.Errorf("next product type id: %w", err)
		}
		id = maxID + 1
	}

	pt := &model.ProductType{ID: id, Name: name}
	if err := a.types.Create(ctx, pt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: product type %q or id %d already exists", ErrConflict, name, id)
		}
		return nil, fmt.Errorf("create product type: %w", err)
	}

	h := a.newHandle(pt.ID, pt.Name, 1)
	a.byID[h.id] = h
	a.byName[h.name] = h

	a.log.Infow("product type created", "type_id", h.id, "name", h.name)
	return h, nil
}

// TryReserve claims serial for an in-flight reservation. It refuses numbers
// already stored, already reserved, or beyond the frontier.
func (h *ProductTypeHandle) TryReserve(ctx context.Context, serial int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tryReserveLocked(ctx, serial)
}

func (h *ProductTypeHandle) tryReserveLocked(ctx context.Context, serial int) (bool, error) {
	if serial < 1 || serial > h.next {
		return false, nil
	}
	if _, taken := h.reserved[serial]; taken {
		return false, nil
	}
	exists, err := h.products.ExistsSerial(ctx, h.id, serial)
	if err != nil {
		return false, fmt.Errorf("check serial %d of type %d: %w", serial, h.id, err)
	}
	if exists {
		return false, nil
	}

	h.reserved[serial] = struct{}{}
	if serial == h.next {
		h.next++
	}
	return true, nil
}

// Allocate returns the frontier and advances it. The reserved set is left
// untouched.
func (h *ProductTypeHandle) Allocate() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocateLocked()
}

func (h *ProductTypeHandle) allocateLocked() int {
	for {
		n := h.next
		h.next++
		if _, dup := h.reserved[n]; !dup {
			return n
		}
		h.log.Errorw("reserved serial at or above frontier",
			"type_id", h.id, "serial", n, "next_serial", h.next)
	}
}

// Reserve runs the reservation protocol: the proposed number when it can be
// honored, otherwise a freshly allocated one. Either way the returned number
// stays reserved until Confirm or Release.
func (h *ProductTypeHandle) Reserve(ctx context.Context, proposed int) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ok, err := h.tryReserveLocked(ctx, proposed)
	if err != nil {
		return 0, err
	}
	if ok {
		return proposed, nil
	}

	n := h.allocateLocked()
	h.reserved[n] = struct{}{}
	return n, nil
}

// Confirm drops serial from the reserved set once the product row is stored;
// storage answers for it from then on.
func (h *ProductTypeHandle) Confirm(serial int) {
	h.mu.Lock()
	delete(h.reserved, serial)
	h.mu.Unlock()
}

// Release gives serial back so a later reservation can backfill it. Only the
// holder of an unconfirmed reservation may call it, after persisting fails.
func (h *ProductTypeHandle) Release(serial int) {
	h.mu.Lock()
	delete(h.reserved, serial)
	h.mu.Unlock()
}

// Snapshot returns the frontier and the sorted reserved set.
func (h *ProductTypeHandle) Snapshot() (int, []int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reserved := make([]int, 0, len(h.reserved))
	for n := range h.reserved {
		reserved = append(reserved, n)
	}
	sort.Ints(reserved)
	return h.next, reserved
}
