package model

import "time"

// Brand is a minimal stub referenced by Product.BrandID. Catalog management
// is out of scope; the purchasing core only needs the foreign key to satisfy
// the persisted schema.
type Brand struct {
	ID   int64
	Name string
}

// Product is the minimal catalog record the purchasing core consumes.
type Product struct {
	ID        int64
	Name      string
	Price     int64
	Stock     int64
	BrandID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
