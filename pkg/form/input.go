package form

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-estimator/pkg/model"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Input parses the raw values into a FormInput. It returns ErrIncomplete
// while required fields are empty and *ValidationError for malformed or
// out-of-range values.
func (s *Store) Input() (model.FormInput, error) {
	if missing := s.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, name := range missing {
			names[i] = string(name)
		}
		return model.FormInput{}, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(names, ", "))
	}

	verr := &ValidationError{}
	input := model.FormInput{
		Area:         s.values[model.FieldArea],
		PropertyType: model.PropertyType(s.values[model.FieldPropertyType]),
		BHK:          parseInt(verr, model.FieldBHK, s.values[model.FieldBHK]),
		Sqft:         parseFloat(verr, model.FieldSqft, s.values[model.FieldSqft]),
		Floor:        parseInt(verr, model.FieldFloor, s.values[model.FieldFloor]),
		Age:          parseInt(verr, model.FieldAge, s.values[model.FieldAge]),
	}
	if s.cityScoping {
		input.City = s.values[model.FieldCity]
	}

	if err := ValidateInput(input); err != nil {
		var fieldErrs *ValidationError
		if errors.As(err, &fieldErrs) {
			for name, msg := range fieldErrs.Fields {
				verr.add(name, "%s", msg)
			}
		} else {
			return model.FormInput{}, err
		}
	}
	if len(verr.Fields) > 0 {
		return model.FormInput{}, verr
	}
	return input, nil
}

// ValidateInput checks a typed FormInput against the field ranges.
func ValidateInput(input model.FormInput) error {
	err := inputValidator().Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("form: validate: %w", err)
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		name := model.FieldName(fe.Field())
		verr.add(name, "%s", describe(name, fe))
	}
	return verr
}

func describe(name model.FieldName, fe validator.FieldError) string {
	label := name.Label()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func parseInt(verr *ValidationError, name model.FieldName, raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		verr.add(name, "%s must be a whole number", name.Label())
		return 0
	}
	return v
}

func parseFloat(verr *ValidationError, name model.FieldName, raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		verr.add(name, "%s must be a number", name.Label())
		return 0
	}
	return v
}

var (
	fieldTagsOnce sync.Once
	fieldTags     map[model.FieldName]string
)

func validateTags() map[model.FieldName]string {
	fieldTagsOnce.Do(func() {
		fieldTags = make(map[model.FieldName]string)
		typ := reflect.TypeOf(model.FormInput{})
		for i := 0; i < typ.NumField(); i++ {
			fld := typ.Field(i)
			name := model.FieldName(strings.SplitN(fld.Tag.Get("json"), ",", 2)[0])
			if tag := fld.Tag.Get("validate"); tag != "" {
				fieldTags[name] = tag
			}
		}
	})
	return fieldTags
}

// ValidateField checks one raw control value with the same rules Input
// applies. Select fields only need a value; their options are enforced by
// Store.Set.
func ValidateField(name model.FieldName, raw string) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	verr := &ValidationError{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if name == model.FieldCity {
			return nil
		}
		verr.add(name, "%s is required", name.Label())
		return verr
	}

	var value any
	switch name {
	case model.FieldBHK, model.FieldFloor, model.FieldAge:
		value = parseInt(verr, name, raw)
	case model.FieldSqft:
		value = parseFloat(verr, name, raw)
	default:
		return nil
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	err := inputValidator().Var(value, validateTags()[name])
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("form: validate %s: %w", name, err)
	}
	verr.add(name, "%s", describe(name, fieldErrs[0]))
	return verr
}
