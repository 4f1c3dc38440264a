package repository

import (
	"context"

	"biro-server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	// CreateWithMetadata writes the product and its reservation metadata in
	// one transaction. A product never exists without its metadata.
	CreateWithMetadata(ctx context.Context, product *model.Product, metadata *model.ProductMetadata) error
	FindByID(ctx context.Context, id int) (*model.Product, error)
	FindByType(ctx context.Context, typeID int) ([]model.Product, error)
	FindByTypeAndSerial(ctx context.Context, typeID, serialNumber int) ([]model.Product, error)
	FindByCustomer(ctx context.Context, customerID int) ([]model.Product, error)
	ExistsSerial(ctx context.Context, typeID, serialNumber int) (bool, error)
	MaxSerial(ctx context.Context, typeID int) (int, error)
	CountByCustomer(ctx context.Context, customerID int) (int64, error)
	UpdateCustomer(ctx context.Context, id, customerID int) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) CreateWithMetadata(ctx context.Context, product *model.Product, metadata *model.ProductMetadata) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return err
		}
		metadata.ProductID = product.ID
		return tx.Omit(clause.Associations).Create(metadata).Error
	})
	if err != nil {
		return translate(err)
	}
	product.Metadata = metadata
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id int) (*model.Product, error) {
	var product model.Product
	if err := r.withRelations(ctx).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) FindByType(ctx context.Context, typeID int) ([]model.Product, error) {
	return r.find(ctx, "type_id = ?", typeID)
}

func (r *productRepo) FindByTypeAndSerial(ctx context.Context, typeID, serialNumber int) ([]model.Product, error) {
	return r.find(ctx, "type_id = ? AND serial_number = ?", typeID, serialNumber)
}

func (r *productRepo) FindByCustomer(ctx context.Context, customerID int) ([]model.Product, error) {
	return r.find(ctx, "customer_id = ?", customerID)
}

func (r *productRepo) find(ctx context.Context, query string, args ...interface{}) ([]model.Product, error) {
	products := []model.Product{}
	err := r.withRelations(ctx).Where(query, args...).Order("type_id ASC, serial_number ASC").Find(&products).Error
	if err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *productRepo) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Type").Preload("Customer").Preload("Metadata")
}

func (r *productRepo) ExistsSerial(ctx context.Context, typeID, serialNumber int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("type_id = ? AND serial_number = ?", typeID, serialNumber).
		Count(&count).Error
	return count > 0, translate(err)
}

// MaxSerial returns the highest persisted serial number for the type, or 0.
func (r *productRepo) MaxSerial(ctx context.Context, typeID int) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("type_id = ?", typeID).
		Select("COALESCE(MAX(serial_number), 0)").
		Scan(&max).Error
	return max, translate(err)
}

func (r *productRepo) CountByCustomer(ctx context.Context, customerID int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("customer_id = ?", customerID).Count(&count).Error
	return count, translate(err)
}

func (r *productRepo) UpdateCustomer(ctx context.Context, id, customerID int) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("customer_id", customerID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the product; its metadata goes with it (ON DELETE CASCADE).
func (r *productRepo) Delete(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, translate(err)
}
