package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// CustomValidators are the domain tags registered on every engine
var CustomValidators = map[string]validator.Func{
	"category": func(fl validator.FieldLevel) bool {
		return model.EventCategory(fl.Field().String()).Valid()
	},
	"priority": func(fl validator.FieldLevel) bool {
		return model.Priority(fl.Field().String()).Valid()
	},
	"hhmm": func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	},
}

var messages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email",
	"min":      "%s must be at least %s characters",
	"max":      "%s must not exceed %s characters",
	"gte":      "%s must be at least %s",
	"lte":      "%s must be at most %s",
	"oneof":    "%s must be one of [%s]",
	"category": "%s is not a valid category",
	"priority": "%s is not a valid priority",
	"hhmm":     "%s must be in HH:MM format",
}

// Validator validates request payloads and reports every failing field
type Validator interface {
	Validate(obj interface{}) error
	Engine() *validator.Validate
}

type playgroundValidator struct {
	engine *validator.Validate
}

var (
	defaultOnce sync.Once
	defaultVal  Validator
)

// Default returns the process-wide validator
func Default() Validator {
	defaultOnce.Do(func() {
		defaultVal = New()
	})
	return defaultVal
}

func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	Configure(v)
	return &playgroundValidator{engine: v}
}

// Configure registers json field names and the domain tags on v
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	for tag, fn := range CustomValidators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
}

func (v *playgroundValidator) Engine() *validator.Validate {
	return v.engine
}

// Validate returns nil or an *errors.AppError with one entry per failing field
func (v *playgroundValidator) Validate(obj interface{}) error {
	err := v.engine.Struct(obj)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Translate converts validator errors into a validation AppError. AppErrors
// pass through; anything else is a bad request.
func Translate(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.BadRequest("Invalid request body", err)
	}

	fields := make([]errors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, errors.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return errors.Validation(fields...)
}

func message(fe validator.FieldError) string {
	format, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	if strings.Count(format, "%s") == 2 {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf(format, fe.Field())
}
