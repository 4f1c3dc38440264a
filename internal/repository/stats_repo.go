package repository

import (
	"context"
	"time"

	"biro-server/internal/model"

	"gorm.io/gorm"
)

type StatsRepository interface {
	GetStats(ctx context.Context, now time.Time) (*Stats, error)
}

// Stats untuk overview
type Stats struct {
	TotalCustomers    int64 `json:"total_customers"`
	TotalProducts     int64 `json:"total_products"`
	TotalProductTypes int64 `json:"total_product_types"`
	ActiveSessions    int64 `json:"active_sessions"`
}

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db}
}

func (r *statsRepo) GetStats(ctx context.Context, now time.Time) (*Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&model.ProductType{}).Count(&stats.TotalProductTypes).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&model.Session{}).Where("expiration > ?", now).Count(&stats.ActiveSessions).Error; err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}
