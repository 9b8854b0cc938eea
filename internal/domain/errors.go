package domain

import "errors"

var (
	ErrTitleRequired = errors.New("title is required")
	ErrNegativePrice = errors.New("price must not be negative")
	ErrOwnerRequired = errors.New("owner is required")
)
