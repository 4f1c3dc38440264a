package model

import "time"

// ProductMetadata records who reserved a product and when. It is written in
// the same transaction as the product row.
type ProductMetadata struct {
	ProductID   int       `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	UserID      int       `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"-"`
	ReserveTime time.Time `gorm:"not null" json:"reserve_time"`
}

func (ProductMetadata) TableName() string {
	return "product_metadata"
}
