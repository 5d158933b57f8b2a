package delivery

import "errors"

var (
	ErrDeliveryNotFound       = errors.New("delivery not found")
	ErrItemNotFound           = errors.New("delivery item not found")
	ErrDuplicateItem          = errors.New("element already on delivery")
	ErrDeliveryStatusConflict = errors.New("delivery status changed concurrently")
)
