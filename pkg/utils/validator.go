package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var truckRegistrationPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 -]{1,18}[A-Z0-9]$`)

var elementTypes = map[string]struct{}{
	"wall": {}, "filigran": {}, "staircase": {}, "balcony": {},
	"ceiling": {}, "column": {}, "beam": {}, "other": {},
}

func init() {
	validate = validator.New()

	err := validate.RegisterValidation("element_type", validateElementType)
	if err != nil {
		return
	}
	err = validate.RegisterValidation("truck_registration", validateTruckRegistration)
	if err != nil {
		return
	}
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateElementType(fl validator.FieldLevel) bool {
	_, ok := elementTypes[fl.Field().String()]
	return ok
}

// validateTruckRegistration accepts upper-case plates such as "AB 123" or
// "KT-X45".
func validateTruckRegistration(fl validator.FieldLevel) bool {
	return truckRegistrationPattern.MatchString(fl.Field().String())
}
