package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/foodtrack/api/internal/domain/ingredient"
	"github.com/foodtrack/api/internal/domain/recipe"
	apperrors "github.com/foodtrack/api/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Validator checks request payloads against their `validate` tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the domain enum rules registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return recipe.Difficulty(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("diet", func(fl validator.FieldLevel) bool {
		return recipe.DietType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		return recipe.Unit(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return ingredient.Category(strings.ToUpper(fl.Field().String())).IsValid()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a validation AppError listing every failed field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewBadRequestError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fieldPath(fe),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "difficulty":
		return fmt.Sprintf("%s must be EASY, MEDIUM or HARD", field)
	case "diet":
		return fmt.Sprintf("%s must be VEGETARIAN, VEGAN or PESCATARIAN", field)
	case "unit":
		return fmt.Sprintf("%s is not a known unit", field)
	case "category":
		return fmt.Sprintf("%s is not a known ingredient category", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
