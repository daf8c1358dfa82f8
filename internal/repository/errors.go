package repository

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidUser     = errors.New("invalid user")
)
