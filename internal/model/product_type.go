package model

// ProductType names a family of serialized products. The serial counter and
// reserved set live in the allocator cache, not in this row.
type ProductType struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name" validate:"required,max=50"`
	Timestamps
}
