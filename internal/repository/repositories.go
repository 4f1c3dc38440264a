package repository

import "gorm.io/gorm"

// Repositories bundles one implementation of every store the services use.
type Repositories struct {
	Users        UserRepository
	Sessions     SessionRepository
	Customers    CustomerRepository
	ProductTypes ProductTypeRepository
	Products     ProductRepository
	Stats        StatsRepository
}

func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:        NewUserRepo(db),
		Sessions:     NewSessionRepo(db),
		Customers:    NewCustomerRepo(db),
		ProductTypes: NewProductTypeRepo(db),
		Products:     NewProductRepo(db),
		Stats:        NewStatsRepo(db),
	}
}
