package deal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = eris.New("invalid input")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks facts before scoring.
func (f PropertyFacts) Validate() error {
	return check(f)
}

// Validate checks ROI inputs before computing.
func (in RoiInputs) Validate() error {
	return check(in)
}

// Validate checks quick-estimate inputs.
func (in QuickInputs) Validate() error {
	return check(in)
}

// ValidateCounts rejects negative bed or bath counts for the rate estimator.
func ValidateCounts(beds, baths int) error {
	if beds < 0 || baths < 0 {
		return eris.Wrapf(ErrInvalidInput, "beds and baths must be >= 0, got %d/%d", beds, baths)
	}
	return nil
}

func check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return eris.Wrap(err, "validating input")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return eris.Wrap(ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// ValidateStruct checks any struct carrying validate tags and reports
// failures the same way as the typed Validate methods.
func ValidateStruct(v any) error {
	return check(v)
}
