package batch

import "errors"

var (
	ErrBatchNotFound       = errors.New("batch not found")
	ErrBatchNumberTaken    = errors.New("batch number already exists")
	ErrBatchStatusConflict = errors.New("batch status changed concurrently")
)
