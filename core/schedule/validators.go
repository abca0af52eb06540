package schedule

import (
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

var (
	weekdayTag  = "weekday"
	weekdayText = "invalid day of week"
)

// InitValidators registers the schedule package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	// let `required` see through Date to its zero time
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Date); ok {
			return d.Time
		}
		return nil
	}, Date{})

	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)
}

// weekdayValidation only allows monday through saturday.
func weekdayValidation(fl validator.FieldLevel) bool {
	return Weekday(fl.Field().String()).IsValid()
}
