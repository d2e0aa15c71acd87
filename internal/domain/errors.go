package domain

import "errors"

var (
	// ErrProductNotFound signals a product id absent from the catalog.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidRequest signals rejected search parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDataUnavailable signals that the backing store could not supply
	// the catalog or embeddings tables.
	ErrDataUnavailable = errors.New("data source unavailable")
)
