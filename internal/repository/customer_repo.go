package repository

import (
	"context"

	"biro-server/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id int) (*model.Customer, error)
	FindByNamePrefix(ctx context.Context, prefix string) ([]model.Customer, error)
	FindByAddressPrefix(ctx context.Context, prefix string) ([]model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int64, error)
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return translate(r.db.WithContext(ctx).Create(customer).Error)
}

func (r *customerRepo) FindByID(ctx context.Context, id int) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

// FindByNamePrefix matches case-insensitively on the start of the name.
func (r *customerRepo) FindByNamePrefix(ctx context.Context, prefix string) ([]model.Customer, error) {
	return r.findByPrefix(ctx, "name", prefix)
}

func (r *customerRepo) FindByAddressPrefix(ctx context.Context, prefix string) ([]model.Customer, error) {
	return r.findByPrefix(ctx, "address", prefix)
}

func (r *customerRepo) findByPrefix(ctx context.Context, column, prefix string) ([]model.Customer, error) {
	customers := []model.Customer{}
	err := r.db.WithContext(ctx).
		Where(column+" ILIKE ?", likePrefix(prefix)).
		Order("id ASC").
		Find(&customers).Error
	if err != nil {
		return nil, translate(err)
	}
	return customers, nil
}

func (r *customerRepo) Update(ctx context.Context, customer *model.Customer) error {
	res := r.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"name":    customer.Name,
			"address": customer.Address,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete fails with ErrReferenced when a product still points at the customer.
func (r *customerRepo) Delete(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Customer{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).Count(&count).Error
	return count, translate(err)
}
