package model

type Customer struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_customer_name_address" json:"name" validate:"required,max=50"`
	Address string `gorm:"type:varchar(100);not null;uniqueIndex:idx_customer_name_address" json:"address" validate:"required,max=100"`
	Timestamps
}
