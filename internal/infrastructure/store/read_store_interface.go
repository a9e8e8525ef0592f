package store

import "context"

// ReadStoreInterface defines the interface for read model storage
type ReadStoreInterface interface {
	// Set stores a read model
	Set(ctx context.Context, collection, id string, data any) error

	// Get retrieves a read model by id
	Get(ctx context.Context, collection, id string) (any, bool, error)

	// GetAll retrieves all items in a collection
	GetAll(ctx context.Context, collection string) ([]any, error)

	// Delete removes a read model
	Delete(ctx context.Context, collection, id string) error

	// Update modifies a read model using an update function; false when id is unknown
	Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error)
}
