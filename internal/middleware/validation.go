package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	appvalidator "github.com/jwalitptl/eventflow-api/pkg/validator"
)

// RegisterValidation teaches gin's binding engine the JSON field names and
// the custom tags used by the request DTOs. It must run before the router
// serves its first request.
func RegisterValidation() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		appvalidator.Configure(v)
	}
}
