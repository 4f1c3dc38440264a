package repository

import (
	"context"

	"biro-server/internal/model"

	"gorm.io/gorm"
)

type ProductTypeRepository interface {
	Create(ctx context.Context, productType *model.ProductType) error
	FindByID(ctx context.Context, id int) (*model.ProductType, error)
	FindByName(ctx context.Context, name string) (*model.ProductType, error)
	FindAll(ctx context.Context) ([]model.ProductType, error)
	MaxID(ctx context.Context) (int, error)
}

type productTypeRepo struct {
	db *gorm.DB
}

func NewProductTypeRepo(db *gorm.DB) ProductTypeRepository {
	return &productTypeRepo{db}
}

func (r *productTypeRepo) Create(ctx context.Context, productType *model.ProductType) error {
	return translate(r.db.WithContext(ctx).Create(productType).Error)
}

func (r *productTypeRepo) FindByID(ctx context.Context, id int) (*model.ProductType, error) {
	var productType model.ProductType
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&productType).Error; err != nil {
		return nil, translate(err)
	}
	return &productType, nil
}

func (r *productTypeRepo) FindByName(ctx context.Context, name string) (*model.ProductType, error) {
	var productType model.ProductType
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&productType).Error; err != nil {
		return nil, translate(err)
	}
	return &productType, nil
}

func (r *productTypeRepo) FindAll(ctx context.Context) ([]model.ProductType, error) {
	productTypes := []model.ProductType{}
	err := r.db.WithContext(ctx).Order("id ASC").Find(&productTypes).Error
	return productTypes, translate(err)
}

func (r *productTypeRepo) MaxID(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.ProductType{}).Select("COALESCE(MAX(id), 0)").Scan(&max).Error
	return max, translate(err)
}
