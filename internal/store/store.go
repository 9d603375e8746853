// Package store abstracts the persistent record store behind a small
// keyed CRUD surface. The sync engine is the only writer; it never
// depends on backend specifics.
package store

import "context"

// Record is a loosely typed persisted document. Nil values are
// meaningful: they mark a field as explicitly absent.
type Record = map[string]any

// Collection names used across the pipeline.
const (
	Merchants     = "roasters"
	Products      = "coffees"
	ProductPrices = "coffee_prices"
	FlavorLinks   = "coffee_flavor_profiles"
	BrewLinks     = "coffee_brew_methods"
	ExternalLinks = "coffee_external_links"
)

// Store is a generic keyed record store. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the record with the given id, or a types.ErrNotFound
	// wrapped StoreError when no record exists.
	Get(ctx context.Context, collection, id string) (Record, error)
	// ListByField returns all records whose field equals value.
	ListByField(ctx context.Context, collection, field string, value any) ([]Record, error)
	// Insert stores a new record and returns its assigned id.
	Insert(ctx context.Context, collection string, rec Record) (string, error)
	// Update applies a partial record to an existing one.
	Update(ctx context.Context, collection, id string, partial Record) error
	// DeleteWhere removes every record whose field equals value.
	DeleteWhere(ctx context.Context, collection, field string, value any) error
	Close(ctx context.Context) error
}
