package model

// Product is one serialized item. (TypeID, SerialNumber) is unique.
type Product struct {
	ID           int          `gorm:"primaryKey" json:"id"`
	TypeID       int          `gorm:"not null;uniqueIndex:idx_product_type_serial" json:"type_id"`
	Type         *ProductType `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	SerialNumber int          `gorm:"not null;uniqueIndex:idx_product_type_serial" json:"serial_number"`
	CustomerID   int          `gorm:"not null;index" json:"customer_id"`
	Customer     *Customer    `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"customer,omitempty"`

	// Relasi
	Metadata *ProductMetadata `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"metadata,omitempty"`
	Timestamps
}
