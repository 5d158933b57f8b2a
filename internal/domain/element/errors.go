package element

import "errors"

var (
	ErrElementNotFound = errors.New("element not found")
	ErrStatusConflict  = errors.New("element status changed concurrently")
	ErrElementInUse    = errors.New("element is referenced by a batch or delivery")
)
