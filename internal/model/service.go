package model

import "time"

// Service is a catalog entry for extras billed on top of lodging (spa,
// laundry, minibar...).  Inactive services stay referenced by historical
// invoice lines but cannot be added to new ones.
//
// Fields:
//  ID          – primary key identifier.
//  CategoryID  – owning category; nil for uncategorized services.
//  Name        – display name, used as the default line description.
//  Description – optional details.
//  Price       – default unit price when the caller does not override it.
//  Active      – whether the service can be billed.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Service struct {
	ID          uint64    // services.id
	CategoryID  *uint64   // services.category_id (nullable)
	Name        string    // services.name
	Description *string   // services.description (nullable)
	Price       float64   // services.price
	Active      bool      // services.active
	CreatedAt   time.Time // services.created_at
	UpdatedAt   time.Time // services.updated_at
}

// ServiceCategory groups services for catalog browsing.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique category name.
//  Active    – whether the category is shown.
//  CreatedAt – creation timestamp.
type ServiceCategory struct {
	ID        uint64    // service_categories.id
	Name      string    // service_categories.name
	Active    bool      // service_categories.active
	CreatedAt time.Time // service_categories.created_at
}
