// Package validation registers the domain validators used in request binding tags.
package validation

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/construction-pm-api/internal/models"
)

// Register adds project_status, task_status and task_priority to gin's validator.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v)
}

// RegisterOn adds the domain validators to v.
func RegisterOn(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"project_status": func(fl validator.FieldLevel) bool {
			return models.ProjectStatus(fl.Field().String()).Valid()
		},
		"task_status": func(fl validator.FieldLevel) bool {
			return models.TaskStatus(fl.Field().String()).Valid()
		},
		"task_priority": func(fl validator.FieldLevel) bool {
			return models.TaskPriority(fl.Field().String()).Valid()
		},
	}

	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}
