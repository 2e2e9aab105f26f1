package catalog

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductConflict = errors.New("product already exists")
)
