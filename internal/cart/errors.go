package cart

import "errors"

var (
	ErrInvalidCatalogItem = errors.New("invalid catalog item")
	ErrPersist            = errors.New("persist cart snapshot failed")
	ErrNoSession          = errors.New("session id is required")
)
