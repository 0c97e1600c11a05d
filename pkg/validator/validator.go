// Package validator registers domain-specific validation tags with the
// binding engine used by gin.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/hospital-core/internal/model"
)

// RegisterCustom installs the custom tags on gin's validator. Call once
// at startup before routes are registered.
func RegisterCustom() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("locationkind", func(fl validator.FieldLevel) bool {
		return model.LocationKind(fl.Field().String()).Valid()
	})
	v.RegisterValidation("resourcetype", func(fl validator.FieldLevel) bool {
		return model.ResourceType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("resourcestate", func(fl validator.FieldLevel) bool {
		return model.ResourceState(fl.Field().String()).Valid()
	})
	v.RegisterValidation("gatemode", func(fl validator.FieldLevel) bool {
		_, err := model.ParseGate(fl.Field().String())
		return err == nil
	})
}
